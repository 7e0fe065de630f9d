package ui

import (
	"context"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/camera"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/sim"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/telemetry"
)

const controlsHelp = "[Space] pause  [Right] step  [,/.] speed  [Click] inspect  [S/T/G/C/W/P] overlays  [Wheel/Shift+Arrows] zoom/pan  [Home] reset"

// Viewer drives a Runner from the raylib frame loop and draws the grid
// with its side panels. The window must be open before NewViewer.
type Viewer struct {
	runner *sim.Runner
	height int32

	overlays  *OverlayRegistry
	grid      *GridView
	hud       *HUD
	controls  *ControlsPanel
	legend    *Legend
	chart     *PopulationChart
	stats     *StatsPanel
	perf      *PerfPanel
	inspector *CellInspector

	state     ControlsState
	selected  int
	window    telemetry.WindowStats
	hasWindow bool
	err       error
}

// NewViewer lays out the panels for cfg's screen and registers for stats
// windows on r.
func NewViewer(r *sim.Runner, cfg *config.Config) *Viewer {
	gridPixels := int32(cfg.Derived.GridPixels)
	panelX := gridPixels + 10
	colW := (int32(cfg.Screen.Width) - panelX - 20) / 2
	rightX := panelX + colW + 10
	size := r.Simulation().Grid().Size()
	wrap := r.Simulation().Options().Topology == systems.Toroidal

	v := &Viewer{
		runner:    r,
		height:    int32(cfg.Screen.Height),
		overlays:  NewOverlayRegistry(),
		grid:      NewGridView(camera.New(0, 0, float32(gridPixels), float32(gridPixels), size, wrap)),
		hud:       NewHUD(panelX, 10, colW),
		controls:  NewControlsPanel(panelX, 0, colW),
		legend:    NewLegend(panelX, 0, colW),
		chart:     NewPopulationChart(rightX, 10, colW, 200, 200),
		stats:     NewStatsPanel(rightX, 0, colW),
		perf:      NewPerfPanel(rightX, 0, colW),
		inspector: NewCellInspector(rightX, 0, colW),
		state:     ControlsState{StepsPerFrame: min(max(cfg.Screen.StepsPerFrame, 1), MaxStepsPerFrame)},
		selected:  -1,
	}
	r.SetStatsCallback(func(s telemetry.WindowStats) {
		v.window = s
		v.hasWindow = true
	})
	return v
}

// Update handles input and advances the run by the current speed.
func (v *Viewer) Update(ctx context.Context) {
	v.handleInput()
	v.runner.Perf().RecordFrame()

	if v.err != nil || v.runner.Done() {
		return
	}
	steps := v.state.StepsPerFrame
	if v.state.Paused {
		steps = 0
		if v.state.StepOnce {
			steps = 1
		}
	}
	v.state.StepOnce = false

	for i := 0; i < steps; i++ {
		_, done, err := v.runner.Advance(ctx)
		if err != nil {
			slog.Error("step failed", "error", err)
			v.err = err
			return
		}
		if done {
			return
		}
	}
}

// Err returns the error that stopped the run, if any.
func (v *Viewer) Err() error { return v.err }

func (v *Viewer) handleInput() {
	v.handleCameraInput()
	if rl.IsKeyPressed(rl.KeySpace) {
		v.state.Paused = !v.state.Paused
	}
	if rl.IsKeyPressed(rl.KeyRight) && !shiftDown() {
		v.state.Paused = true
		v.state.StepOnce = true
	}
	if rl.IsKeyPressed(rl.KeyComma) && v.state.StepsPerFrame > 1 {
		v.state.StepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.state.StepsPerFrame < MaxStepsPerFrame {
		v.state.StepsPerFrame++
	}
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		v.overlays.HandleKeyPress(key)
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		n := v.runner.Simulation().Grid().Size()
		if i, ok := v.grid.CellAt(mouse.X, mouse.Y, n); ok {
			v.selected = i
		}
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		v.selected = -1
	}
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	cam := v.grid.Camera()

	if shiftDown() {
		const panSpeed = 8 // screen pixels per frame
		if rl.IsKeyDown(rl.KeyRight) {
			cam.Pan(panSpeed, 0)
		}
		if rl.IsKeyDown(rl.KeyLeft) {
			cam.Pan(-panSpeed, 0)
		}
		if rl.IsKeyDown(rl.KeyDown) {
			cam.Pan(0, panSpeed)
		}
		if rl.IsKeyDown(rl.KeyUp) {
			cam.Pan(0, -panSpeed)
		}
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		cam.Pan(-d.X, -d.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}
}

func shiftDown() bool {
	return rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	s := v.runner.Simulation()
	def := s.Definition()
	g := s.Grid()
	colors := s.Colors()
	counts := s.Counts()

	rl.BeginDrawing()
	rl.ClearBackground(v.hud.renderer.Theme.Background)

	v.grid.Draw(g, colors, s.Types(), v.overlays, v.selected)

	// Left column: run header, controls, legend.
	y := v.hud.Draw(HUDData{
		Game:          def.Name,
		Dynamic:       s.Options().Dynamic.Name(),
		Iteration:     s.Iteration(),
		StepsPerFrame: v.state.StepsPerFrame,
		FPS:           rl.GetFPS(),
		Paused:        v.state.Paused,
		Done:          v.runner.Done(),
		StableAt:      v.runner.StableAt(),
		Err:           v.err,
	})
	v.controls.y = y + 4
	y = v.controls.Draw(v.overlays, &v.state)
	v.legend.y = y + 8
	v.legend.Draw(LegendData{Names: def.Names(), Counts: counts, Colors: colors, Total: g.Len()})

	// Right column: optional panels stacked top to bottom.
	y = v.chart.y
	if v.overlays.IsEnabled(OverlayChart) {
		y = v.chart.Draw(s.History(), def.Names(), colors, g.Len()) + 8
	}
	if v.overlays.IsEnabled(OverlayStats) && v.hasWindow {
		v.stats.SetPosition(v.stats.x, y)
		y = v.stats.Draw(v.window) + 8
	}
	if v.overlays.IsEnabled(OverlayPerf) {
		v.perf.SetPosition(v.perf.x, y)
		y = v.perf.Draw(v.runner.Perf().Stats()) + 8
	}
	if v.selected >= 0 && v.selected < g.Len() {
		row, col := g.Coords(v.selected)
		agent := g.AgentAt(v.selected)
		v.inspector.SetPosition(v.inspector.x, y)
		v.inspector.Draw(CellData{
			Row:    row,
			Col:    col,
			Agent:  agent,
			Color:  colors[agent.StrategyName()],
			Rounds: RoundsOf(s.Previous().AgentAt(v.selected)),
		})
	}

	v.hud.DrawControls(v.height, controlsHelp)
	rl.EndDrawing()
}
