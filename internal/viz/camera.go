package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/physim/internal/linalg"
)

// Camera orbits a target point and projects world points with a simple
// perspective divide.
type Camera struct {
	Target     linalg.Vec3
	Yaw, Pitch float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: -0.3, Distance: 20, Zoom: 1}
}

func (c *Camera) Rotate(yaw, pitch float64) {
	c.Yaw += yaw
	c.Pitch = mgl64.Clamp(c.Pitch+pitch, -math.Pi/2, math.Pi/2)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view rotates p into camera space, camera looking down -z.
func (c *Camera) view(p linalg.Vec3) linalg.Vec3 {
	rot := mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
	return rot.Mul3x1(p.Sub(c.Target)).Mul(c.Zoom)
}

// Project converts a world point to canvas pixels. It reports false for
// points behind the camera or off the canvas.
func (c *Camera) Project(p linalg.Vec3, canvas *Canvas) (int, int, bool) {
	x, y, front := c.project(p, canvas)
	return x, y, front && x >= 0 && x < canvas.PixelWidth() && y >= 0 && y < canvas.PixelHeight()
}

func (c *Camera) project(p linalg.Vec3, canvas *Canvas) (int, int, bool) {
	v := c.view(p)
	if v[2] >= c.Distance-0.1 {
		return 0, 0, false
	}
	sw, sh := canvas.PixelWidth(), canvas.PixelHeight()
	scale := c.Distance / (c.Distance - v[2])
	unit := float64(min(sw, sh)) / 10
	x := int(v[0]*scale*unit) + sw/2
	y := int(-v[1]*scale*unit) + sh/2
	return x, y, true
}

// DrawGrid draws a square grid of the given half extent on the y=0 plane.
func (c *Camera) DrawGrid(canvas *Canvas, half float64, lines int) {
	if lines < 2 {
		return
	}
	step := 2 * half / float64(lines-1)
	for i := 0; i < lines; i++ {
		k := -half + float64(i)*step
		c.drawSegment(canvas, linalg.Vec3{k, 0, -half}, linalg.Vec3{k, 0, half})
		c.drawSegment(canvas, linalg.Vec3{-half, 0, k}, linalg.Vec3{half, 0, k})
	}
}

// drawSegment skips segments crossing behind the camera or projecting far
// outside the canvas.
func (c *Camera) drawSegment(canvas *Canvas, a, b linalg.Vec3) {
	x0, y0, ok0 := c.project(a, canvas)
	x1, y1, ok1 := c.project(b, canvas)
	if !ok0 || !ok1 {
		return
	}
	limit := 4 * max(canvas.PixelWidth(), canvas.PixelHeight())
	for _, v := range [4]int{x0, y0, x1, y1} {
		if absInt(v) > limit {
			return
		}
	}
	canvas.DrawLine(x0, y0, x1, y1)
}
