package analytics

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dmaguire/rampart/internal/models"
)

// renderMonthlyChart renders a PNG bar chart from a per-month series.
// One bar per month labelled "Jan 06". Returns raw PNG bytes.
func renderMonthlyChart(title string, series []models.MonthlyCount) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("need at least 1 month of data")
	}

	bars := make([]chart.Value, len(series))
	maxCount := 0
	for i, point := range series {
		bars[i] = chart.Value{
			Label: point.Month.Format("Jan 06"),
			Value: float64(point.Count),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2563eb"), // blue-600
				StrokeColor: drawing.ColorFromHex("2563eb"),
			},
		}
		if point.Count > maxCount {
			maxCount = point.Count
		}
	}

	// An all-zero series renders a flat axis instead of failing.
	ceiling := float64(maxCount)
	if ceiling < 1 {
		ceiling = 1
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    900,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: ceiling * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
