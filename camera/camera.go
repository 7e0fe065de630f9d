// Package camera provides a pan and zoom viewport over the square lattice.
package camera

import "math"

// Camera maps lattice cells to screen pixels. Positions are in cell units,
// so (2.5, 0.5) is the center of the cell at row 0, column 2. On a toroidal
// lattice the view wraps; on a bounded one it is kept inside the grid.
type Camera struct {
	// X, Y is the view center in cell units
	X, Y float32

	// Zoom is pixels per cell
	Zoom float32

	// Screen rectangle the lattice is drawn into
	OriginX, OriginY     float32
	ViewportW, ViewportH float32

	// Side of the lattice in cells
	Size float32
	Wrap bool

	MinZoom, MaxZoom float32
}

// New creates a camera that fits an n×n lattice into the viewport.
func New(originX, originY, viewportW, viewportH float32, n int, wrap bool) *Camera {
	c := &Camera{
		OriginX:   originX,
		OriginY:   originY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Size:      float32(max(n, 1)),
		Wrap:      wrap,
	}
	c.MinZoom = c.fitZoom()
	c.MaxZoom = max(48, c.MinZoom)
	c.Reset()
	return c
}

// fitZoom is the zoom at which the whole lattice fills the viewport.
func (c *Camera) fitZoom() float32 {
	return min(c.ViewportW, c.ViewportH) / c.Size
}

// CellToScreen returns the top-left pixel of the cell at (row, col). On a
// torus the nearest copy relative to the view center is used.
func (c *Camera) CellToScreen(row, col int) (sx, sy float32) {
	dx := float32(col) - c.X
	dy := float32(row) - c.Y
	if c.Wrap {
		dx = toroidalDelta(float32(col)+0.5, c.X, c.Size) - 0.5
		dy = toroidalDelta(float32(row)+0.5, c.Y, c.Size) - 0.5
	}
	sx = c.OriginX + c.ViewportW/2 + dx*c.Zoom
	sy = c.OriginY + c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToCell returns the cell under a screen point. ok is false outside
// the viewport or, when bounded, outside the lattice.
func (c *Camera) ScreenToCell(sx, sy float32) (row, col int, ok bool) {
	if sx < c.OriginX || sy < c.OriginY || sx >= c.OriginX+c.ViewportW || sy >= c.OriginY+c.ViewportH {
		return 0, 0, false
	}
	wx := c.X + (sx-c.OriginX-c.ViewportW/2)/c.Zoom
	wy := c.Y + (sy-c.OriginY-c.ViewportH/2)/c.Zoom
	if c.Wrap {
		wx = mod(wx, c.Size)
		wy = mod(wy, c.Size)
	}
	if wx < 0 || wy < 0 || wx >= c.Size || wy >= c.Size {
		return 0, 0, false
	}
	return int(wy), int(wx), true
}

// IsVisible reports whether any part of the cell at a screen position
// lies inside the viewport.
func (c *Camera) IsVisible(sx, sy float32) bool {
	return sx+c.Zoom > c.OriginX && sy+c.Zoom > c.OriginY &&
		sx < c.OriginX+c.ViewportW && sy < c.OriginY+c.ViewportH
}

// Pan moves the view by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.constrain()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.constrain()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the lattice and fits it to the viewport.
func (c *Camera) Reset() {
	c.X = c.Size / 2
	c.Y = c.Size / 2
	c.Zoom = c.MinZoom
}

// constrain wraps the center on a torus and keeps a bounded view inside
// the lattice.
func (c *Camera) constrain() {
	if c.Wrap {
		c.X = mod(c.X, c.Size)
		c.Y = mod(c.Y, c.Size)
		return
	}
	halfW := min(c.ViewportW/(2*c.Zoom), c.Size/2)
	halfH := min(c.ViewportH/(2*c.Zoom), c.Size/2)
	c.X = clamp(c.X, halfW, c.Size-halfW)
	c.Y = clamp(c.Y, halfH, c.Size-halfH)
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a toroidal space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
