package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/physim/internal/linalg"
	"github.com/san-kum/physim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameInterval   = time.Second / 60
)

// Factory builds the system shown by the live view. It is called again on
// reset.
type Factory func() (sim.System, error)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a system once per tick and draws it.
type Model struct {
	name    string
	factory Factory
	sys     sim.System
	dt      float64
	t       float64
	frame   int

	canvas   *Canvas
	viewport Viewport
	camera   *Camera
	orbit    bool
	theme    Theme
	styles   styles

	running  bool
	showHelp bool
	err      error

	history  []sim.Snapshot
	playHead int // -1 when live
	energy   []float64
}

func NewModel(name string, factory Factory, dt float64) (Model, error) {
	m := Model{
		name:     name,
		factory:  factory,
		dt:       dt,
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		theme:    ThemeCyberpunk,
		styles:   newStyles(ThemeCyberpunk),
		running:  true,
		playHead: -1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "m":
			m.orbit = !m.orbit
		case "x":
			m.camera.Rotate(0, 0.1)
		case "X":
			m.camera.Rotate(0, -0.1)
		case "y":
			m.camera.Rotate(0.1, 0)
		case "Y":
			m.camera.Rotate(-0.1, 0)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances the world one frame and records the result. A physics
// error pauses the view.
func (m *Model) step() {
	if m.err != nil {
		return
	}
	m.sys.PrepareFrame()
	if err := m.sys.RunPhysics(m.dt); err != nil {
		m.err = &sim.FrameError{Frame: m.frame, Time: m.t, Wrapped: err}
		m.running = false
		return
	}
	m.t += m.dt
	m.frame++

	snap := m.sys.Observe()
	snap.Time = m.t
	if !snap.IsValid() {
		m.err = &sim.FrameError{Frame: m.frame, Time: m.t, Wrapped: sim.ErrInvalidState}
		m.running = false
		return
	}
	m.record(snap)
}

func (m *Model) record(snap sim.Snapshot) {
	m.history = append(m.history, snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	m.energy = append(m.energy, kineticEnergy(snap))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
}

// scrub moves the replay position; moving past the newest frame returns
// to live stepping.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead = max(m.playHead+dir, 0)
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset rebuilds the system from the factory and refits the view.
func (m *Model) reset() error {
	sys, err := m.factory()
	if err != nil {
		return err
	}
	m.sys = sys
	m.t, m.frame = 0, 0
	m.err = nil
	m.history = m.history[:0]
	m.energy = m.energy[:0]
	m.playHead = -1

	snap := sys.Observe()
	m.record(snap)

	xs := make([]float64, 0, snap.Len()+1)
	ys := make([]float64, 0, snap.Len()+1)
	for _, p := range snap.Positions {
		xs = append(xs, p[0])
		ys = append(ys, p[1])
	}
	ys = append(ys, 0) // keep the ground in view
	m.viewport = FitViewport(xs, ys, 4)
	m.camera.Target = centroid(snap.Positions)
	return nil
}

// current is the snapshot on screen.
func (m Model) current() sim.Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

func (m Model) draw(snap sim.Snapshot) {
	m.canvas.Clear()

	if m.orbit {
		m.camera.DrawGrid(m.canvas, 5, 11)
		for _, p := range snap.Positions {
			if x, y, ok := m.camera.Project(p, m.canvas); ok {
				m.canvas.DrawDisc(x, y, 1)
			}
		}
		return
	}

	if m.viewport.MinY <= 0 && m.viewport.MaxY >= 0 {
		_, gy := m.viewport.Project(0, 0, m.canvas)
		m.canvas.DrawLine(0, gy, m.canvas.PixelWidth()-1, gy)
	}
	for i, p := range snap.Positions {
		x, y := m.viewport.Project(p[0], p[1], m.canvas)
		r := 1
		if math.IsInf(massAt(snap, i), 1) {
			r = 0
		}
		m.canvas.DrawDisc(x, y, r)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	snap := m.current()
	m.draw(snap)

	st := m.styles
	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.failed.Render("FAILED") + "\n" + st.value.Render(m.err.Error()) + "\n\n")
	case m.playHead != -1:
		s.WriteString(st.paused.Render(fmt.Sprintf("REPLAY (%.2fs)", snap.Time-m.t)) + "\n\n")
	case !m.running:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Frame", fmt.Sprintf("%d", m.frame))
	row("Entities", fmt.Sprintf("%d", snap.Len()))
	row("Energy", fmt.Sprintf("%.3f", kineticEnergy(snap)))
	row("Max speed", fmt.Sprintf("%.3f", maxSpeed(snap)))
	row("History", ProgressBar(float64(len(m.history))/historyCapacity, 12))

	view := "side"
	if m.orbit {
		view = "orbit"
	}
	row("View", view)
	row("Theme", m.theme.Name)

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\n[ ]:Replay M:View ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  Space    pause / resume
  R        rebuild the scenario
  [ ]      replay recent frames
  M        side view / orbit camera
  X Y      rotate camera (shift reverses)
  + -      zoom
  T        cycle themes
  Q        quit
`

func massAt(s sim.Snapshot, i int) float64 {
	if i < len(s.Masses) {
		return s.Masses[i]
	}
	return 1
}

func kineticEnergy(s sim.Snapshot) float64 {
	ke := 0.0
	for i, v := range s.Velocities {
		if m := massAt(s, i); !math.IsInf(m, 1) {
			ke += 0.5 * m * v.LenSqr()
		}
	}
	return ke
}

func maxSpeed(s sim.Snapshot) float64 {
	top := 0.0
	for _, v := range s.Velocities {
		top = math.Max(top, v.Len())
	}
	return top
}

func centroid(ps []linalg.Vec3) linalg.Vec3 {
	if len(ps) == 0 {
		return linalg.Zero
	}
	var c linalg.Vec3
	for _, p := range ps {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(ps)))
}
