package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Game          string
	Dynamic       string
	Iteration     int
	StepsPerFrame int
	FPS           int32
	Paused        bool
	Done          bool
	StableAt      int
	Err           error
}

// HUD renders the run header at the top of the side panel.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD(x, y, width int32) *HUD {
	return &HUD{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Draw renders the HUD and returns the Y below it.
func (h *HUD) Draw(data HUDData) int32 {
	x, y := h.x, h.y
	rl.DrawText(data.Game, x, y, 20, rl.White)
	y += 24

	rl.DrawText(
		fmt.Sprintf("%s | Iteration: %d | Speed: %dx | FPS: %d", data.Dynamic, data.Iteration, data.StepsPerFrame, data.FPS),
		x, y, 14, rl.LightGray,
	)
	y += 18

	status, col := "Running", rl.Green
	switch {
	case data.Err != nil:
		status, col = "Error: "+data.Err.Error(), rl.Red
	case data.Done:
		status, col = "Finished", rl.SkyBlue
	case data.Paused:
		status, col = "PAUSED", rl.Yellow
	}
	if data.StableAt >= 0 {
		status += fmt.Sprintf(" | stable since %d", data.StableAt)
	}
	rl.DrawText(status, x, y, 14, col)
	return y + 22
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, h.x, screenHeight-22, 12, rl.Gray)
}

var windowSection = SectionDescriptor{
	Title: "Window",
	Fields: []FieldDescriptor{
		{Label: "Iterations", Widget: WidgetText, TextGetter: func(d any) string {
			s := d.(telemetry.WindowStats)
			return fmt.Sprintf("%d-%d", s.WindowStart, s.WindowEnd)
		}},
		{Label: "Interactions", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).Interactions) }},
		{
			Label:   "Unpaired",
			Widget:  WidgetText,
			Format:  "%.0f",
			Visible: func(d any) bool { return d.(telemetry.WindowStats).Unpaired > 0 },
			Getter:  func(d any) float32 { return float32(d.(telemetry.WindowStats).Unpaired) },
		},
		{Label: "Switch rate", Widget: WidgetBar, Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).SwitchRate) }},
		{Label: "Score mean", Widget: WidgetText, TextGetter: func(d any) string {
			s := d.(telemetry.WindowStats)
			return fmt.Sprintf("%.2f ± %.2f", s.ScoreMean, s.ScoreStd)
		}},
		{Label: "Score p10/50/90", Widget: WidgetText, TextGetter: func(d any) string {
			s := d.(telemetry.WindowStats)
			return fmt.Sprintf("%.0f / %.0f / %.0f", s.ScoreP10, s.ScoreP50, s.ScoreP90)
		}},
		{Label: "Diversity", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).Diversity) }},
		{Label: "Dominant", Widget: WidgetText, TextGetter: func(d any) string { return d.(telemetry.WindowStats).Dominant }},
		{Label: "Dominant share", Widget: WidgetBar, Getter: func(d any) float32 { return float32(d.(telemetry.WindowStats).DominantShare) }},
	},
}

// StatsPanel shows the latest flushed telemetry window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the Y below it.
func (p *StatsPanel) Draw(stats telemetry.WindowStats) int32 {
	r := p.renderer
	padding := r.Theme.Padding
	height := r.SectionHeight(windowSection, stats) + padding*2
	r.DrawPanel(p.x, p.y, p.width, height)
	r.DrawSection(p.x+padding, p.y+padding, windowSection, stats, p.width-padding*2)
	return p.y + height
}

// PerfPanel renders average time per step phase.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel and returns the Y below it.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) int32 {
	r := p.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	height := lineHeight*int32(telemetry.NumPhases+2) + padding*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x, y := p.x+padding, p.y+padding
	y = r.DrawSectionHeader(x, y, "Step Timing")
	y = r.DrawLabelValue(x, y, "Step", fmt.Sprintf("%s (%.0f/s)", stats.AvgStep.Round(time.Microsecond), stats.StepsPerSecond))
	for ph := range telemetry.NumPhases {
		y = r.DrawLabelValue(x, y, ph.String(), fmt.Sprintf("%10s  %5.1f%%", stats.Phase[ph].Round(time.Microsecond), stats.Share[ph]))
	}
	return p.y + height
}
