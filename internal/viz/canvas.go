package viz

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const blank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells. Pixel coordinates address dots, so
// the canvas is Width*2 by Height*4 pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, pixelMap[y%4][x%2], true
}

// Set turns on the dot at pixel (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

func (c *Canvas) Unset(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= mask
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&mask != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDisc fills a disc of radius r pixels, or a single dot when r < 1.
func (c *Canvas) DrawDisc(cx, cy, r int) {
	if r < 1 {
		c.Set(cx, cy)
		return
	}
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps world x/y onto canvas pixels, y up.
type Viewport struct {
	MinX, MinY, MaxX, MaxY float64
}

// FitViewport returns a viewport around the points with 10% padding and
// at least size units on each axis.
func FitViewport(xs, ys []float64, size float64) Viewport {
	v := Viewport{MinX: -size / 2, MaxX: size / 2, MinY: -size / 2, MaxY: size / 2}
	if len(xs) == 0 || len(ys) == 0 {
		return v
	}
	v = Viewport{MinX: xs[0], MaxX: xs[0], MinY: ys[0], MaxY: ys[0]}
	for _, x := range xs {
		v.MinX, v.MaxX = min(v.MinX, x), max(v.MaxX, x)
	}
	for _, y := range ys {
		v.MinY, v.MaxY = min(v.MinY, y), max(v.MaxY, y)
	}

	grow := func(lo, hi float64) (float64, float64) {
		span := max(hi-lo, size)
		mid := (lo + hi) / 2
		return mid - 0.6*span, mid + 0.6*span
	}
	v.MinX, v.MaxX = grow(v.MinX, v.MaxX)
	v.MinY, v.MaxY = grow(v.MinY, v.MaxY)
	return v
}

func (v Viewport) Project(x, y float64, c *Canvas) (int, int) {
	px := (x - v.MinX) / (v.MaxX - v.MinX) * float64(c.PixelWidth()-1)
	py := (v.MaxY - y) / (v.MaxY - v.MinY) * float64(c.PixelHeight()-1)
	return int(px + 0.5), int(py + 0.5)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
