// Package report renders consumption charts as PNG images and assembles
// the downloadable PDF report.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/bher20/ecoenergy/internal/energy"
	"github.com/bher20/ecoenergy/internal/storage"
)

// ErrNothingToPlot is returned when a chart would have no data.
var ErrNothingToPlot = errors.New("nothing to plot")

// ChartStyle selects how per-appliance consumption is drawn.
type ChartStyle string

const (
	StyleBar ChartStyle = "bar"
	StylePie ChartStyle = "pie"
)

// ParseChartStyle accepts the English and Portuguese names, case
// insensitive. Empty means bar.
func ParseChartStyle(s string) (ChartStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bar", "bars", "barras":
		return StyleBar, nil
	case "pie", "pizza":
		return StylePie, nil
	default:
		return "", fmt.Errorf("unknown chart style %q (want bar or pie)", s)
	}
}

const (
	chartTitle    = "Consumo de Energia por Aparelho"
	barWidth      = 40
	barSpacing    = 30
	minChartWidth = 1000
	chartHeight   = 600
)

// Chart writes the per-appliance chart of the given style as PNG.
func Chart(w io.Writer, style ChartStyle, items []energy.NamedKWh) error {
	if style == StylePie {
		return PieChart(w, items)
	}
	return BarChart(w, items)
}

// BarChart writes a bar per appliance, labelled with its monthly kWh.
func BarChart(w io.Writer, items []energy.NamedKWh) error {
	if len(items) == 0 {
		return ErrNothingToPlot
	}
	maxVal := 0.0
	bars := make([]chart.Value, 0, len(items))
	for _, it := range items {
		maxVal = math.Max(maxVal, it.MonthlyKWh)
		bars = append(bars, chart.Value{
			Value: it.MonthlyKWh,
			Label: fmt.Sprintf("%s (%.2f)", it.Name, it.MonthlyKWh),
		})
	}

	width := len(items)*(barWidth+barSpacing) + 200
	if width < minChartWidth {
		width = minChartWidth
	}
	graph := chart.BarChart{
		Title:      chartTitle,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Name:  "Consumo (kWh)",
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(maxVal)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// PieChart writes one slice per appliance with a non-zero consumption.
func PieChart(w io.Writer, items []energy.NamedKWh) error {
	total := 0.0
	for _, it := range items {
		total += it.MonthlyKWh
	}
	if total <= 0 {
		return ErrNothingToPlot
	}
	values := make([]chart.Value, 0, len(items))
	for _, it := range items {
		if it.MonthlyKWh <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: it.MonthlyKWh,
			Label: fmt.Sprintf("%s %.1f%%", it.Name, it.MonthlyKWh/total*100),
		})
	}
	graph := chart.PieChart{
		Title:  chartTitle,
		Width:  800,
		Height: 800,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}

// HistoryChart writes the monthly totals as a line over the month index.
func HistoryChart(w io.Writer, entries []storage.HistoryEntry) error {
	if len(entries) == 0 {
		return ErrNothingToPlot
	}
	xs := make([]float64, 0, len(entries))
	ys := make([]float64, 0, len(entries))
	maxVal := 0.0
	for _, e := range entries {
		xs = append(xs, float64(e.MonthIndex))
		ys = append(ys, e.ConsumptionKWh)
		maxVal = math.Max(maxVal, e.ConsumptionKWh)
	}
	lastMonth := math.Max(xs[len(xs)-1], 2)

	graph := chart.Chart{
		Title:      "Consumo Mensal ao Longo do Tempo",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Width:      minChartWidth,
		Height:     chartHeight,
		XAxis: chart.XAxis{
			Name:  "Mês",
			Range: &chart.ContinuousRange{Min: 1, Max: lastMonth},
		},
		YAxis: chart.YAxis{
			Name:  "Consumo (kWh)",
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(maxVal)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Consumo",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeWidth: 2, DotWidth: 4},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// axisMax leaves headroom above the tallest value and keeps the range
// non-empty when every value is zero.
func axisMax(maxVal float64) float64 {
	return math.Max(maxVal*1.1, 1)
}
