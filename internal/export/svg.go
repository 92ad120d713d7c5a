// Package export renders canvases and stored trajectories as SVG.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/physim/internal/storage"
	"github.com/san-kum/physim/internal/viz"
)

// Palette cycles across entities in TrajectoryToSVG.
var Palette = []string{"#00ff88", "#00ccff", "#ff00ff", "#ffcc00", "#ff4444", "#88ff88"}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per set dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	var sb strings.Builder
	header(&sb, float64(canvas.PixelWidth())*scale, float64(canvas.PixelHeight())*scale)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for y := 0; y < canvas.PixelHeight(); y++ {
		for x := 0; x < canvas.PixelWidth(); x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws the x/y path of every entity in traj, y up. It
// returns an empty string when there are fewer than two frames.
func TrajectoryToSVG(traj *storage.Trajectory, width, height int) string {
	if traj == nil || len(traj.Positions) < 2 || traj.Entities() == 0 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, frame := range traj.Positions {
		for _, p := range frame {
			minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
			minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))

	for e := 0; e < traj.Entities(); e++ {
		xs, ys := traj.Series(e, 0), traj.Series(e, 1)
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, Palette[e%len(Palette)])
		for i := range xs {
			x := (xs[i] - minX) / rangeX * float64(width)
			y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
