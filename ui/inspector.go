package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/components"
)

// historyTail is how many of the latest rounds the inspector lists.
const historyTail = 6

// CellData is the slot shown by the inspector.
type CellData struct {
	Row, Col int
	Agent    *components.Agent
	Color    rl.Color
	// Rounds is the previous occupant's history; the current occupant has
	// not played yet.
	Rounds []string
}

var cellSection = SectionDescriptor{
	Title: "Cell",
	Fields: []FieldDescriptor{
		{Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
			c := d.(CellData)
			return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
		}},
		{Label: "Strategy", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color { return d.(CellData).Color }},
		{Label: "Name", Widget: WidgetText, TextGetter: func(d any) string { return d.(CellData).Agent.StrategyName() }},
		{
			Label:      "Type",
			Widget:     WidgetText,
			Visible:    func(d any) bool { return d.(CellData).Agent.Type != "" },
			TextGetter: func(d any) string { return string(d.(CellData).Agent.Type) },
		},
		{Label: "Score", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(d.(CellData).Agent.Score) }},
		{Label: "Prev score", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(d.(CellData).Agent.PrevScore) }},
		{
			Label:   "Last rounds",
			Widget:  WidgetText,
			Visible: func(d any) bool { return len(d.(CellData).Rounds) > 0 },
			TextGetter: func(d any) string {
				return strings.Join(d.(CellData).Rounds, " ")
			},
		},
	},
}

// CellInspector shows the selected slot.
type CellInspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewCellInspector creates an inspector panel.
func NewCellInspector(x, y, width int32) *CellInspector {
	return &CellInspector{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the inspector position.
func (ins *CellInspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector and returns the Y below it.
func (ins *CellInspector) Draw(data CellData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	height := r.SectionHeight(cellSection, data) + padding*2
	r.DrawPanel(ins.x, ins.y, ins.width, height)
	r.DrawSection(ins.x+padding, ins.y+padding, cellSection, data, ins.width-padding*2)
	return ins.y + height
}

// RoundsOf formats the latest rounds of an agent's history as own/other
// action pairs, newest last.
func RoundsOf(a *components.Agent) []string {
	h := a.History
	if len(h) > historyTail {
		h = h[len(h)-historyTail:]
	}
	out := make([]string, len(h))
	for i, m := range h {
		out[i] = m.String()
	}
	return out
}
