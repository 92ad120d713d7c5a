// Package viz provides the terminal views of a running simulation.
//
// The live view is a Bubble Tea program that steps a [sim.System] on a
// timer and draws the tracked entities on a braille [Canvas]:
//
//   - [Model]: live view with pause, reset, replay and a 3D orbit camera
//   - [Menu]: scenario and preset picker that launches a [Model]
//   - [Canvas]: braille pixel canvas, 2x4 dots per cell
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the scenario
//	[ ]   - Replay backwards/forwards through recent frames
//	M     - Toggle side view and orbit camera
//	X/Y   - Rotate the orbit camera
//	+/-   - Zoom
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
