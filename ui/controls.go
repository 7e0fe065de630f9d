package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxStepsPerFrame bounds the speed slider.
const MaxStepsPerFrame = 20

// ControlsState is the playback state the controls panel edits.
type ControlsState struct {
	Paused        bool
	StepOnce      bool
	StepsPerFrame int
}

// ControlsPanel renders playback buttons, the speed slider and overlay
// toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Draw renders the panel, applies button and slider input to state and
// returns the Y below it.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry, state *ControlsState) int32 {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + int32(len(categories))*4 + padding*3 + 64

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding

	pauseLabel := "Pause"
	if state.Paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: 90, Height: 26}, pauseLabel) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + 100, Y: float32(y), Width: 90, Height: 26}, "Step") {
		state.Paused = true
		state.StepOnce = true
	}
	y += 34

	speed := gui.SliderBar(
		rl.Rectangle{X: x + 90, Y: float32(y), Width: float32(c.width - padding*2 - 140), Height: 18},
		"Steps/frame",
		fmt.Sprintf("%d", state.StepsPerFrame),
		float32(state.StepsPerFrame),
		1,
		MaxStepsPerFrame,
	)
	state.StepsPerFrame = min(max(int(speed+0.5), 1), MaxStepsPerFrame)
	y += 30

	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return c.y + panelHeight
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "grid":
		return "Grid"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
