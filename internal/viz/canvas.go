package viz

import (
	"strings"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// Unicode offset 0x2800
const blank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome dot grid of Width x Height braille cells, that is
// 2*Width x 4*Height addressable dots.
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

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Set turns on the dot at (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
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

// Rect outlines the box with corners (x0, y0) and (x1, y1), or fills it.
func (c *Canvas) Rect(x0, y0, x1, y1 int, fill bool) {
	if fill {
		for y := min(y0, y1); y <= max(y0, y1); y++ {
			c.DrawLine(x0, y, x1, y)
		}
		return
	}
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

// Spring draws a horizontal zigzag from x0 to x1 at height y.
func (c *Canvas) Spring(x0, x1, y int) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if x1-x0 < 4 {
		c.DrawLine(x0, y, x1, y)
		return
	}
	px, py := x0, y
	up := true
	for x := x0 + 2; x < x1; x += 2 {
		ny := y + 1
		if up {
			ny = y - 1
		}
		up = !up
		c.DrawLine(px, py, x, ny)
		px, py = x, ny
	}
	c.DrawLine(px, py, x1, y)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
