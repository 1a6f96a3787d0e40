package board

import (
	"strconv"
	"strings"
)

// minBarPercent keeps zero-valued chart entries visible.
const minBarPercent = 5

// Layout is the presentation-ready form of a Spec.
type Layout struct {
	Title  string `json:"title"`
	Visual Visual `json:"visual"`

	// Bullets is populated for list, steps, comparison, code and summary
	// layouts; Bars for the chart layout.
	Bullets []Item `json:"bullets,omitempty"`
	Bars    []Bar  `json:"bars,omitempty"`

	// Code is the joined item content for the code layout.
	Code string `json:"code,omitempty"`
}

// Bar is one column of the chart layout.
type Bar struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent int     `json:"percent"`
}

// Render maps a Spec to its layout. It never fails: unparseable numbers
// default to 0 and empty fields render empty.
func Render(spec Spec) Layout {
	layout := Layout{Title: spec.Title, Visual: spec.Visual}

	switch spec.Visual {
	case VisualChart:
		layout.Bars = renderBars(spec.Items)
	case VisualCode:
		lines := make([]string, 0, len(spec.Items))
		for _, item := range spec.Items {
			lines = append(lines, item.Content)
		}
		layout.Code = strings.Join(lines, "\n")
	default:
		layout.Bullets = spec.Items
	}
	return layout
}

func renderBars(items []Item) []Bar {
	bars := make([]Bar, 0, len(items))
	maxValue := 1.0 // floor avoids division by zero
	for _, item := range items {
		value, err := strconv.ParseFloat(strings.TrimSpace(item.Content), 64)
		if err != nil || value < 0 {
			value = 0
		}
		if value > maxValue {
			maxValue = value
		}
		bars = append(bars, Bar{Label: item.Heading, Value: value})
	}
	for i := range bars {
		percent := int(bars[i].Value / maxValue * 100)
		if percent < minBarPercent {
			percent = minBarPercent
		}
		bars[i].Percent = percent
	}
	return bars
}
