// Package chart keeps a chart's series list in step with the selected COT
// fields and the optional price/volume overlay.
package chart

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindField  Kind = "field"
	KindPrice  Kind = "price"
	KindVolume Kind = "volume"
)

const (
	PriceColor  = "#2196F3"
	VolumeColor = "#9E9E9E"

	PriceSeriesName  = "Price"
	VolumeSeriesName = "Volume"
)

// Palette colours field series by their position in the selection, so the
// same field can change colour when the selection is reordered.
var Palette = []string{
	"#D4AF37",
	"#4CAF50",
	"#E91E63",
	"#9C27B0",
	"#FF9800",
	"#00BCD4",
	"#795548",
	"#3F51B5",
	"#8BC34A",
	"#F44336",
}

// PaletteColor wraps around when more fields are selected than colours exist.
func PaletteColor(i int) string {
	return Palette[i%len(Palette)]
}

// Point is one (timestamp ms, value) pair. It encodes as a two-element array.
type Point struct {
	T int64
	V float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{float64(p.T), p.V})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("chart point: %w", err)
	}
	p.T, p.V = int64(pair[0]), pair[1]
	return nil
}

type Series struct {
	Name   string  `json:"name"`
	Field  string  `json:"field,omitempty"`
	Kind   Kind    `json:"kind"`
	Type   string  `json:"type"`
	Color  string  `json:"color"`
	Axis   int     `json:"yAxis"`
	Points []Point `json:"data"`
}

type Axis struct {
	Title    string `json:"title"`
	Height   string `json:"height"`
	Top      string `json:"top"`
	Opposite bool   `json:"opposite"`
}

// Extremes is the visible x-range in epoch milliseconds.
type Extremes struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Chart is the mutable chart surface the reconciler drives. The redraw flag on
// AddSeries and RemoveSeries asks the chart to repaint immediately.
type Chart interface {
	Series() []Series
	AddSeries(s Series, redraw bool)
	RemoveSeries(name string, redraw bool)
	SetTitle(title string)
	SetAxes(axes []Axis)
	Redraw()
}
