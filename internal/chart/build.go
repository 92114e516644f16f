package chart

import (
	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/normalize"
)

// FieldData is a fetched trend series for one selected field.
type FieldData struct {
	Field  string
	Points []domain.TrendPoint
}

// Desired describes what the chart should show. Fields are in selection order.
type Desired struct {
	Commodity string
	Fields    []FieldData
	Overlay   bool
	Prices    []domain.PricePoint
}

// Plan is the complete series and axis layout for one render.
type Plan struct {
	Title  string
	Axes   []Axis
	Series []Series
}

// Build turns the desired state into a plan. The price series exists only
// when the overlay is on and some bar has a close; the volume series only when
// some bar has a volume. With no fields selected there is no overlay at all.
func Build(d Desired) Plan {
	var plan Plan

	for i, f := range d.Fields {
		plan.Series = append(plan.Series, Series{
			Name:   domain.FieldDisplayName(f.Field),
			Field:  f.Field,
			Kind:   KindField,
			Type:   "line",
			Color:  PaletteColor(i),
			Axis:   0,
			Points: trendPoints(f.Points),
		})
	}

	var price, volume []Point
	if d.Overlay && len(d.Fields) > 0 {
		price, volume = overlayPoints(d.Prices)
	}
	hasPrice, hasVolume := len(price) > 0, len(volume) > 0

	fieldHeight := "100%"
	if hasVolume {
		fieldHeight = "50%"
	}
	plan.Axes = append(plan.Axes, Axis{Title: axisTitle(d.Fields), Height: fieldHeight, Top: "0%"})

	if hasPrice {
		plan.Axes = append(plan.Axes, Axis{Title: "Price ($)", Height: fieldHeight, Top: "0%", Opposite: true})
		plan.Series = append(plan.Series, Series{
			Name:   PriceSeriesName,
			Kind:   KindPrice,
			Type:   "line",
			Color:  PriceColor,
			Axis:   1,
			Points: price,
		})
	}
	if hasVolume {
		plan.Axes = append(plan.Axes, Axis{Title: "Volume", Height: "25%", Top: "75%"})
		plan.Series = append(plan.Series, Series{
			Name:   VolumeSeriesName,
			Kind:   KindVolume,
			Type:   "column",
			Color:  VolumeColor,
			Axis:   len(plan.Axes) - 1,
			Points: volume,
		})
	}

	plan.Title = title(d, hasPrice)
	return plan
}

func trendPoints(points []domain.TrendPoint) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		t, ok := normalize.ParseDate(p.ReportDate)
		if !ok {
			continue
		}
		out = append(out, Point{T: t.UnixMilli(), V: p.Value})
	}
	return out
}

func overlayPoints(prices []domain.PricePoint) (price, volume []Point) {
	for _, p := range prices {
		t, ok := normalize.ParseDate(p.Date)
		if !ok {
			continue
		}
		ms := t.UnixMilli()
		if p.Close != nil {
			price = append(price, Point{T: ms, V: *p.Close})
		}
		if p.Volume != nil {
			volume = append(volume, Point{T: ms, V: *p.Volume})
		}
	}
	return price, volume
}

func axisTitle(fields []FieldData) string {
	if len(fields) == 1 {
		return domain.FieldDisplayName(fields[0].Field)
	}
	return "Positions"
}

func title(d Desired, hasPrice bool) string {
	name := "COT Trends"
	if len(d.Fields) == 1 {
		name = domain.FieldDisplayName(d.Fields[0].Field)
	}
	t := name
	if d.Commodity != "" {
		t += " - " + d.Commodity
	}
	if hasPrice {
		t += " (with Price/Volume)"
	}
	return t
}
