package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// LegendData is the census shown by the legend.
type LegendData struct {
	Names  []string // catalog order
	Counts map[string]int
	Colors map[string]rl.Color
	Total  int
}

// Legend lists every strategy with its color, count and share.
type Legend struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewLegend creates a legend panel.
func NewLegend(x, y, width int32) *Legend {
	return &Legend{renderer: NewRenderer(), x: x, y: y, width: width}
}

// section builds one share bar per strategy.
func (l *Legend) section(data LegendData) SectionDescriptor {
	sd := SectionDescriptor{Title: "Strategies"}
	for _, name := range data.Names {
		sd.Fields = append(sd.Fields, FieldDescriptor{
			Label:  fmt.Sprintf("%s (%d)", name, data.Counts[name]),
			Widget: WidgetBar,
			Getter: func(d any) float32 {
				ld := d.(LegendData)
				if ld.Total == 0 {
					return 0
				}
				return float32(ld.Counts[name]) / float32(ld.Total)
			},
			ColorGetter: func(d any) rl.Color { return d.(LegendData).Colors[name] },
		})
	}
	return sd
}

// Draw renders the legend and returns the Y below it.
func (l *Legend) Draw(data LegendData) int32 {
	r := l.renderer
	padding := r.Theme.Padding
	sd := l.section(data)

	height := r.SectionHeight(sd, data) + padding*2
	r.DrawPanel(l.x, l.y, l.width, height)
	r.DrawSection(l.x+padding, l.y+padding, sd, data, l.width-padding*2)
	return l.y + height
}
