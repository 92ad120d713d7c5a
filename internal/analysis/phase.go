package analysis

import (
	"strings"
)

type Point struct {
	X, Y float64
}

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	Points []Point
}

// NewPhasePortrait pairs two equally sampled series, for example the
// height of an entity and its vertical speed from Velocity.
func NewPhasePortrait(xs, ys []float64) *PhasePortrait2D {
	n := min(len(xs), len(ys))
	portrait := &PhasePortrait2D{Points: make([]Point, n)}
	for i := range n {
		portrait.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return portrait
}

// Velocity differentiates a series sampled every dt seconds using central
// differences, one-sided at the ends.
func Velocity(series []float64, dt float64) []float64 {
	n := len(series)
	out := make([]float64, n)
	if n < 2 || dt <= 0 {
		return out
	}
	out[0] = (series[1] - series[0]) / dt
	out[n-1] = (series[n-1] - series[n-2]) / dt
	for i := 1; i < n-1; i++ {
		out[i] = (series[i+1] - series[i-1]) / (2 * dt)
	}
	return out
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// 10% padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// axes, where they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points where a trajectory crosses a threshold
type PoincareSection struct {
	Points []Point
}

// NewPoincareSection records (xs, ys) wherever cross rises through
// threshold, interpolated linearly between the two bracketing samples.
func NewPoincareSection(cross, xs, ys []float64, threshold float64) *PoincareSection {
	section := &PoincareSection{Points: make([]Point, 0)}
	n := min(len(cross), len(xs), len(ys))
	for i := 1; i < n; i++ {
		prev, curr := cross[i-1], cross[i]
		if prev >= threshold || curr < threshold {
			continue
		}
		frac := (threshold - prev) / (curr - prev)
		section.Points = append(section.Points, Point{
			X: xs[i-1] + frac*(xs[i]-xs[i-1]),
			Y: ys[i-1] + frac*(ys[i]-ys[i-1]),
		})
	}
	return section
}

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{Points: section.Points}, width, height)
}
