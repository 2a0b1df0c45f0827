// Package charts draws aggregate views as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"mediapulse/pkg/contracts/domain"
)

// ContentType is the media type of rendered charts
const ContentType = "image/png"

const (
	defaultWidth  = 1024
	defaultHeight = 512
	barWidth      = 48
	barSpacing    = 24
)

// ErrNoData is returned for views without rows
var ErrNoData = errors.New("view has no data to chart")

// palette is cycled for pie slices and bars
var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorRed,
	chart.ColorCyan,
	chart.ColorYellow,
	chart.ColorAlternateGray,
}

// Render draws the view as a PNG: pie for counts, a time series line for the
// engagement trend and bars for sums. A trend with a single day is drawn as a
// bar since a line needs two points.
func Render(w io.Writer, view domain.View) error {
	if view.Empty() {
		return ErrNoData
	}

	var err error
	switch {
	case view.Chart == domain.ChartPie:
		err = renderPie(w, view)
	case view.Chart == domain.ChartLine && len(view.Rows) > 1:
		err = renderLine(w, view)
	default:
		err = renderBar(w, view)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", view.Kind, err)
	}
	return nil
}

func renderPie(w io.Writer, view domain.View) error {
	values := make([]chart.Value, 0, len(view.Rows))
	for i, r := range view.Rows {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", r.Key, formatValue(r.Value)),
			Value: r.Value,
			Style: chart.Style{FillColor: palette[i%len(palette)]},
		})
	}

	pie := chart.PieChart{
		Title:  view.Title,
		Width:  defaultHeight,
		Height: defaultHeight,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

func renderBar(w io.Writer, view domain.View) error {
	bars := make([]chart.Value, 0, len(view.Rows))
	for i, r := range view.Rows {
		bars = append(bars, chart.Value{
			Label: r.Key,
			Value: r.Value,
			Style: chart.Style{
				FillColor:   palette[i%len(palette)],
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 1,
			},
		})
	}

	width := defaultWidth
	if need := len(bars)*(barWidth+barSpacing) + 200; need > width {
		width = need
	}

	bar := chart.BarChart{
		Title:      view.Title,
		Width:      width,
		Height:     defaultHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:           view.ValueLabel,
			Range:          valueRange(view.Rows),
			ValueFormatter: func(v interface{}) string { return formatValue(v.(float64)) },
		},
		Bars: bars,
	}
	return bar.Render(chart.PNG, w)
}

func renderLine(w io.Writer, view domain.View) error {
	xs := make([]time.Time, 0, len(view.Rows))
	ys := make([]float64, 0, len(view.Rows))
	for _, r := range view.Rows {
		day, err := time.Parse(domain.DateLayout, r.Key)
		if err != nil {
			return fmt.Errorf("trend key %q: %w", r.Key, err)
		}
		xs = append(xs, day)
		ys = append(ys, r.Value)
	}

	graph := chart.Chart{
		Title:      view.Title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           view.KeyLabel,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           view.ValueLabel,
			Range:          valueRange(view.Rows),
			ValueFormatter: func(v interface{}) string { return formatValue(v.(float64)) },
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    view.ValueLabel,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotColor:    chart.ColorBlue,
					DotWidth:    3,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// valueRange starts at zero and never collapses, which go-chart rejects
func valueRange(rows []domain.ViewRow) *chart.ContinuousRange {
	top := 0.0
	for _, r := range rows {
		if r.Value > top {
			top = r.Value
		}
	}
	if top == 0 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top * 1.1}
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
