package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsLattice(t *testing.T) {
	cam := New(0, 0, 800, 800, 50, true)

	if cam.X != 25 || cam.Y != 25 {
		t.Errorf("expected camera at (25, 25), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 16 || cam.MinZoom != 16 {
		t.Errorf("expected fit zoom 16, got %f (min %f)", cam.Zoom, cam.MinZoom)
	}

	sx, sy := cam.CellToScreen(0, 0)
	if !near(sx, 0) || !near(sy, 0) {
		t.Errorf("cell (0,0) at (%f, %f), want origin", sx, sy)
	}
}

func TestScreenToCellRoundtrip(t *testing.T) {
	for _, wrap := range []bool{true, false} {
		cam := New(10, 20, 600, 600, 30, wrap)
		cam.SetZoom(40)
		cam.Pan(130, -70)

		for _, tc := range []struct{ sx, sy float32 }{{310, 320}, {15, 25}, {600, 610}} {
			row, col, ok := cam.ScreenToCell(tc.sx, tc.sy)
			if !ok {
				t.Fatalf("wrap=%v: (%f,%f) not on the lattice", wrap, tc.sx, tc.sy)
			}
			x, y := cam.CellToScreen(row, col)
			if tc.sx < x || tc.sx >= x+cam.Zoom || tc.sy < y || tc.sy >= y+cam.Zoom {
				t.Errorf("wrap=%v: (%f,%f) -> cell (%d,%d) drawn at (%f,%f)", wrap, tc.sx, tc.sy, row, col, x, y)
			}
		}
	}
}

func TestScreenToCellOutsideViewport(t *testing.T) {
	cam := New(0, 0, 400, 400, 10, true)
	if _, _, ok := cam.ScreenToCell(401, 10); ok {
		t.Error("point right of the viewport mapped to a cell")
	}
	if _, _, ok := cam.ScreenToCell(-1, 10); ok {
		t.Error("point left of the viewport mapped to a cell")
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := New(0, 0, 400, 400, 10, true)
	cam.SetZoom(80)
	cam.X = 0.5 // view centered on column 0

	// Column 9 is adjacent to column 0 across the seam.
	sx, _ := cam.CellToScreen(5, 9)
	if !near(sx, 200-40-80) {
		t.Errorf("column 9 at x=%f, want left of column 0", sx)
	}
}

func TestPanWrapsOnTorus(t *testing.T) {
	cam := New(0, 0, 400, 400, 10, true)
	cam.SetZoom(80)
	cam.X = 1

	cam.Pan(-160, 0) // two cells left

	if !near(cam.X, 9) {
		t.Errorf("expected X to wrap to 9, got %f", cam.X)
	}
}

func TestPanClampsWhenBounded(t *testing.T) {
	cam := New(0, 0, 400, 400, 10, false)
	cam.SetZoom(80) // 5 cells visible

	cam.Pan(-10000, 10000)

	if !near(cam.X, 2.5) || !near(cam.Y, 7.5) {
		t.Errorf("expected view clamped to (2.5, 7.5), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(0, 0, 800, 600, 100, true)

	// Fit uses the smaller side: 600/100
	if cam.MinZoom != 6 {
		t.Errorf("expected MinZoom 6, got %f", cam.MinZoom)
	}

	cam.SetZoom(1)
	if cam.Zoom != 6 {
		t.Errorf("expected zoom clamped to 6, got %f", cam.Zoom)
	}

	cam.SetZoom(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}

	tiny := New(0, 0, 800, 800, 2, true)
	if tiny.MaxZoom < tiny.MinZoom {
		t.Errorf("MaxZoom %f below MinZoom %f", tiny.MaxZoom, tiny.MinZoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(0, 0, 400, 400, 10, true)

	if !cam.IsVisible(100, 100) {
		t.Error("cell inside the viewport should be visible")
	}
	if !cam.IsVisible(-20, 100) {
		t.Error("cell straddling the left edge should be visible")
	}
	if cam.IsVisible(400, 100) || cam.IsVisible(-40, 100) {
		t.Error("cells outside the viewport should not be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(0, 0, 400, 400, 10, true)
	cam.SetZoom(100)
	cam.Pan(37, 12)

	cam.Reset()

	if cam.X != 5 || cam.Y != 5 || cam.Zoom != 40 {
		t.Errorf("expected (5, 5) at zoom 40, got (%f, %f) at %f", cam.X, cam.Y, cam.Zoom)
	}
}
