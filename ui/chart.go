package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/telemetry"
)

// PopulationChart plots strategy counts over the most recent iterations.
type PopulationChart struct {
	renderer      *Renderer
	x, y          int32
	width, height int32
	span          int // iterations shown
}

// NewPopulationChart creates a chart showing up to span iterations.
func NewPopulationChart(x, y, width, height int32, span int) *PopulationChart {
	return &PopulationChart{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		height:   height,
		span:     max(span, 2),
	}
}

// Draw plots history, one line per name, and returns the Y below it.
func (c *PopulationChart) Draw(history []telemetry.PopulationRecord, names []string, colors map[string]rl.Color, population int) int32 {
	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, c.height)
	r.DrawSectionHeader(c.x+padding, c.y+padding, "Population")

	if len(history) > c.span {
		history = history[len(history)-c.span:]
	}
	plotX := c.x + padding
	plotY := c.y + padding + r.Theme.LineHeight + 4
	plotW := c.width - padding*2
	plotH := c.height - (plotY - c.y) - padding - r.Theme.LineHeight

	rl.DrawRectangleLines(plotX, plotY, plotW, plotH, r.Theme.PanelBorder)
	if len(history) < 2 || population == 0 {
		return c.y + c.height
	}

	step := float32(plotW) / float32(c.span-1)
	point := func(k, count int) (int32, int32) {
		px := plotX + int32(float32(k)*step)
		py := plotY + plotH - int32(float32(plotH)*float32(count)/float32(population))
		return px, py
	}
	for _, name := range names {
		col := colors[name]
		for k := 1; k < len(history); k++ {
			x0, y0 := point(k-1, history[k-1].Counts[name])
			x1, y1 := point(k, history[k].Counts[name])
			rl.DrawLine(x0, y0, x1, y1, col)
		}
	}

	first, last := history[0].Iteration, history[len(history)-1].Iteration
	axis := fmt.Sprintf("iterations %d-%d", first, last)
	rl.DrawText(axis, plotX, plotY+plotH+4, r.Theme.FontSize, r.Theme.LabelColor)
	return c.y + c.height
}
