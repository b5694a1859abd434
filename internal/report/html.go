package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes a page with one line chart per state component.
func RenderHTML(w io.Writer, in Input) error {
	if err := in.validate(); err != nil {
		return err
	}

	x := make([]string, in.Filtered.Len())
	for i, t := range in.Filtered.Times {
		x[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}

	page := components.NewPage()
	if in.Title != "" {
		page.PageTitle = in.Title
	}
	for k := 0; k < in.nState(); k++ {
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
			charts.WithTitleOpts(opts.Title{Title: in.stateName(k), Subtitle: fmt.Sprintf("mean ±%gσ", Bands)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		)
		line.SetXAxis(x)
		addLineBand(line, "filtered", in.filteredBand(k))
		if in.Smoothed != nil {
			addLineBand(line, "smoothed", in.smoothedBand(k))
		}
		page.AddCharts(line)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func addLineBand(line *charts.Line, name string, b band) {
	line.AddSeries(name, lineData(b.mean))
	dashed := charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"})
	line.AddSeries(name+" lower", lineData(b.lo), dashed)
	line.AddSeries(name+" upper", lineData(b.hi), dashed)
}

func lineData(v []float64) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, y := range v {
		out[i] = opts.LineData{Value: y}
	}
	return out
}
