package survival

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/aouyang1/go-survival/posterior"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrNoHistogramData = errors.New("no values to build histogram")

// DefaultHistogramBins is the number of bins used when plotting survival time densities
const DefaultHistogramBins = 30

// BarHistogram generates an echart bar chart of the densities of each series binned over
// a shared range starting at zero
func BarHistogram(title string, seriesName []string, y [][]float64, bins int) (*charts.Bar, error) {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	upper := 0.0
	var total int
	for _, s := range y {
		if len(s) == 0 {
			continue
		}
		upper = math.Max(upper, floats.Max(s))
		total += len(s)
	}
	if total == 0 || upper <= 0 {
		return nil, ErrNoHistogramData
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, 0, math.Nextafter(upper, math.Inf(1)))
	width := dividers[1] - dividers[0]

	xAxis := make([]string, bins)
	for i := range xAxis {
		xAxis[i] = fmt.Sprintf("%.1f", (dividers[i]+dividers[i+1])/2)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)
	bar.SetXAxis(xAxis)

	for i, name := range seriesName {
		sorted := make([]float64, 0, len(y[i]))
		for _, v := range y[i] {
			if v >= 0 {
				sorted = append(sorted, v)
			}
		}
		sort.Float64s(sorted)

		counts := make([]float64, bins)
		if len(sorted) > 0 {
			stat.Histogram(counts, dividers, sorted, nil)
		}
		barData := make([]opts.BarData, bins)
		for j, c := range counts {
			density := 0.0
			if len(sorted) > 0 {
				density = c / (float64(len(sorted)) * width)
			}
			barData[j] = opts.BarData{Value: density}
		}
		bar.AddSeries(name, barData)
	}
	return bar, nil
}

// LineTrace generates an echart line chart of the draws of parameter j with one line per
// chain
func LineTrace(ens *posterior.Ensemble, j int) (*charts.Line, error) {
	labels := ens.Labels()
	if j < 0 || j >= len(labels) {
		return nil, posterior.ErrParamOutOfBounds
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Trace " + labels[j],
			},
		),
	)

	iterations := make([]int, ens.NumIterations())
	for i := range iterations {
		iterations[i] = i
	}
	line.SetXAxis(iterations)

	for c := 0; c < ens.NumChains(); c++ {
		chain, err := ens.Chain(c)
		if err != nil {
			return nil, err
		}
		lineData := make([]opts.LineData, 0, ens.NumIterations())
		for i := 0; i < ens.NumIterations(); i++ {
			lineData = append(lineData, opts.LineData{Value: chain.At(i, j)})
		}
		line.AddSeries(fmt.Sprintf("chain %d", c), lineData)
	}
	return line, nil
}

// PlotFit uses the Apache Echarts library to generate an html page comparing the observed
// event times against truncated and naive predictive draws, followed by the trace of every
// parameter
func (a *Analysis) PlotFit(ctx context.Context, w io.Writer) error {
	res, err := a.PredictiveCheck(ctx)
	if err != nil {
		return err
	}

	hist, err := BarHistogram(
		"Observed vs Posterior Predictive Event Times",
		[]string{"Observed", "Truncated", "Naive"},
		[][]float64{
			a.ds.UncensoredTimes(),
			res.Truncated.Values(),
			res.Naive.Values(),
		},
		DefaultHistogramBins,
	)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.AddCharts(hist)
	for j := 0; j < a.ensemble.Dim(); j++ {
		trace, err := LineTrace(a.ensemble, j)
		if err != nil {
			return err
		}
		page.AddCharts(trace)
	}
	return page.Render(w)
}
