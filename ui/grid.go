package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/camera"
	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/games"
	"github.com/pthm-cable/evogrid/systems"
)

// GridView draws the lattice as square cells colored by strategy, through
// a pan and zoom camera.
type GridView struct {
	renderer *Renderer
	cam      *camera.Camera
}

// NewGridView creates a grid view drawing through cam.
func NewGridView(cam *camera.Camera) *GridView {
	return &GridView{renderer: NewRenderer(), cam: cam}
}

// Camera returns the view's camera.
func (v *GridView) Camera() *camera.Camera { return v.cam }

// Draw renders g. selected is a slot index or -1.
func (v *GridView) Draw(g *systems.Grid, colors map[string]rl.Color, types []games.TypeTag, overlays *OverlayRegistry, selected int) {
	cam := v.cam
	cs := int32(math.Ceil(float64(cam.Zoom)))

	heatmap := overlays.IsEnabled(OverlayScores)
	var lo, hi int
	if heatmap {
		lo, hi = scoreRange(g.Scores())
	}
	shadeTypes := overlays.IsEnabled(OverlayTypes) && len(types) > 1
	lines := overlays.IsEnabled(OverlayGridLines) && cam.Zoom >= 4

	rl.BeginScissorMode(int32(cam.OriginX), int32(cam.OriginY), int32(cam.ViewportW), int32(cam.ViewportH))
	g.Each(func(i int, a *components.Agent) {
		row, col := g.Coords(i)
		sx, sy := cam.CellToScreen(row, col)
		if !cam.IsVisible(sx, sy) {
			return
		}
		var c rl.Color
		switch {
		case heatmap:
			c = heat(a.Score, lo, hi)
		default:
			c = colors[a.StrategyName()]
			if shadeTypes && a.Type != types[0] {
				c = darken(c, 0.55)
			}
		}
		rl.DrawRectangle(int32(sx), int32(sy), cs, cs, c)
		if lines {
			rl.DrawRectangleLines(int32(sx), int32(sy), cs, cs, v.renderer.Theme.GridLine)
		}
	})

	if selected >= 0 && selected < g.Len() {
		row, col := g.Coords(selected)
		sx, sy := cam.CellToScreen(row, col)
		rl.DrawRectangleLines(int32(sx), int32(sy), cs, cs, v.renderer.Theme.Selection)
	}
	rl.EndScissorMode()
}

// CellAt maps a screen point to a slot index of an n×n grid.
func (v *GridView) CellAt(px, py float32, n int) (int, bool) {
	row, col, ok := v.cam.ScreenToCell(px, py)
	if !ok || row >= n || col >= n {
		return -1, false
	}
	return row*n + col, true
}

func darken(c rl.Color, f float32) rl.Color {
	return rl.Color{R: uint8(float32(c.R) * f), G: uint8(float32(c.G) * f), B: uint8(float32(c.B) * f), A: c.A}
}

func scoreRange(scores []int) (lo, hi int) {
	if len(scores) == 0 {
		return 0, 0
	}
	lo, hi = scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}
	return lo, hi
}

// heat maps score onto a dark blue to yellow ramp over [lo, hi].
func heat(score, lo, hi int) rl.Color {
	t := float32(0.5)
	if hi > lo {
		t = float32(score-lo) / float32(hi-lo)
	}
	return rl.Color{
		R: uint8(20 + 235*t),
		G: uint8(30 + 190*t),
		B: uint8(120 - 100*t),
		A: 255,
	}
}
