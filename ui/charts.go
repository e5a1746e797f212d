package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"healthinsights/app"
	"healthinsights/internal/analysis"
	"healthinsights/internal/errors"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart names served under /charts/{name}.png
const (
	ChartGenderByCondition = "gender-by-condition"
	ChartAgeDistribution   = "age-distribution"
	ChartAgeTrend          = "age-trend"
	ChartBillingDensity    = "billing-density"
	ChartBillingByHospital = "billing-by-hospital"
	ChartConditionCounts   = "condition-counts"
	ChartLengthOfStayTrend = "length-of-stay-trend"
	ChartAgeVsBilling      = "age-vs-billing"
)

// ChartsByTab lists the PNG charts shown on each tab.
var ChartsByTab = map[app.Tab][]string{
	app.TabDemographics: {ChartGenderByCondition, ChartAgeDistribution, ChartAgeTrend},
	app.TabFinancial:    {ChartBillingDensity, ChartBillingByHospital},
	app.TabConditions:   {ChartConditionCounts, ChartLengthOfStayTrend},
	app.TabCorrelation:  {ChartAgeVsBilling},
}

// ErrNoData means the view has nothing to plot for the chart.
var ErrNoData = stderrors.New("no data to chart")

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
}

// ChartRenderer draws dashboard widgets as PNG images
type ChartRenderer struct {
	Width  int
	Height int
	// TopN caps bar charts with one bar per hospital
	TopN int
}

// NewChartRenderer returns a renderer with the default canvas size
func NewChartRenderer(topN int) *ChartRenderer {
	if topN < 1 {
		topN = 20
	}
	return &ChartRenderer{Width: 900, Height: 420, TopN: topN}
}

// Render writes chart name for view to w. Unknown names are NOT_FOUND;
// an empty view returns ErrNoData.
func (r *ChartRenderer) Render(w io.Writer, name string, view *app.DashboardView) error {
	switch name {
	case ChartGenderByCondition:
		return r.genderByCondition(w, view.Demographics.GenderByCondition)
	case ChartAgeDistribution:
		return r.ageDistribution(w, view.Demographics.AgeDistribution)
	case ChartAgeTrend:
		return r.ageTrend(w, view.Demographics.AgeDistribution)
	case ChartBillingDensity:
		return r.billingDensity(w, view.Financial.BillingDensity)
	case ChartBillingByHospital:
		return r.billingByHospital(w, view.Financial.BillingByHospital)
	case ChartConditionCounts:
		return r.conditionCounts(w, view.Conditions.ConditionCounts)
	case ChartLengthOfStayTrend:
		return r.lengthOfStayTrend(w, view.Conditions.LengthOfStayTrend)
	case ChartAgeVsBilling:
		return r.ageVsBilling(w, view.Correlation.AgeVsBilling)
	}
	return errors.NotFound(fmt.Sprintf("chart %q", name))
}

func (r *ChartRenderer) genderByCondition(w io.Writer, ct *analysis.Crosstab) error {
	if ct == nil || len(ct.Columns) == 0 {
		return ErrNoData
	}
	bars := make([]chart.StackedBar, len(ct.Columns))
	for j, condition := range ct.Columns {
		values := make([]chart.Value, len(ct.Rows))
		for i, gender := range ct.Rows {
			values[i] = chart.Value{
				Label: gender,
				Value: float64(ct.Counts[i][j]),
				Style: chart.Style{FillColor: palette[i%len(palette)], StrokeColor: palette[i%len(palette)]},
			}
		}
		bars[j] = chart.StackedBar{Name: condition, Values: values}
	}

	sbc := chart.StackedBarChart{
		Title:      "Gender distribution by medical condition",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.Width,
		Height:     r.Height,
		BarSpacing: 20,
		Bars:       bars,
	}
	return sbc.Render(chart.PNG, w)
}

func (r *ChartRenderer) ageDistribution(w io.Writer, counts []analysis.ValueCount) error {
	if len(counts) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(counts))
	var max float64
	for i, vc := range counts {
		bars[i] = chart.Value{Label: fmt.Sprintf("%g", vc.Value), Value: float64(vc.Count)}
		max = math.Max(max, float64(vc.Count))
	}
	return r.bars(w, "Age distribution", bars, max)
}

func (r *ChartRenderer) ageTrend(w io.Writer, counts []analysis.ValueCount) error {
	if len(counts) == 0 {
		return ErrNoData
	}
	xs := make([]float64, len(counts))
	ys := make([]float64, len(counts))
	for i, vc := range counts {
		xs[i], ys[i] = vc.Value, float64(vc.Count)
	}
	xs, ys = padSingle(xs, ys)

	graph := chart.Chart{
		Title:      "Age trend",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.Width,
		Height:     r.Height,
		XAxis:      chart.XAxis{Name: "Age", Range: spanOf(xs)},
		YAxis:      chart.YAxis{Name: "Patients", Range: spanOf(append(ys, 0))},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Patients",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: palette[0], StrokeWidth: 2},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func (r *ChartRenderer) billingDensity(w io.Writer, bins []analysis.Bin) error {
	if len(bins) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(bins))
	var max float64
	for i, b := range bins {
		bars[i] = chart.Value{Label: fmt.Sprintf("%.0f", b.Lower), Value: b.Density.Float64()}
		max = math.Max(max, b.Density.Float64())
	}
	return r.bars(w, "Billing amount density", bars, max)
}

func (r *ChartRenderer) billingByHospital(w io.Writer, means []analysis.GroupMean) error {
	ranked := make([]analysis.GroupMean, 0, len(means))
	for _, m := range means {
		if !m.Mean.IsNaN() {
			ranked = append(ranked, m)
		}
	}
	if len(ranked) == 0 {
		return ErrNoData
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Mean > ranked[j].Mean })
	if len(ranked) > r.TopN {
		ranked = ranked[:r.TopN]
	}

	bars := make([]chart.Value, len(ranked))
	var max float64
	for i, m := range ranked {
		bars[i] = chart.Value{Label: m.Group, Value: m.Mean.Float64()}
		max = math.Max(max, m.Mean.Float64())
	}
	return r.bars(w, fmt.Sprintf("Average billing amount, top %d hospitals", len(ranked)), bars, max)
}

func (r *ChartRenderer) conditionCounts(w io.Writer, counts []analysis.CategoryCount) error {
	if len(counts) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, len(counts))
	var max float64
	for i, c := range counts {
		bars[i] = chart.Value{Label: c.Value, Value: float64(c.Count)}
		max = math.Max(max, float64(c.Count))
	}
	return r.bars(w, "Medical condition distribution", bars, max)
}

func (r *ChartRenderer) lengthOfStayTrend(w io.Writer, points []analysis.TimePoint) error {
	var xs []time.Time
	var ys []float64
	for _, p := range points {
		if p.Mean.IsNaN() {
			continue
		}
		xs = append(xs, p.Date)
		ys = append(ys, p.Mean.Float64())
	}
	if len(xs) == 0 {
		return ErrNoData
	}
	if len(xs) == 1 {
		xs = append(xs, xs[0].AddDate(0, 0, 1))
		ys = append(ys, ys[0])
	}

	graph := chart.Chart{
		Title:      "Average length of stay over time",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.Width,
		Height:     r.Height,
		XAxis:      chart.XAxis{Name: "Date of Admission", ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      chart.YAxis{Name: "Days", Range: spanOf(ys)},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Length of Stay",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: palette[1], StrokeWidth: 1.5},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func (r *ChartRenderer) ageVsBilling(w io.Writer, series []analysis.Series) error {
	var allX, allY []float64
	plotted := make([]chart.Series, 0, len(series))
	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j], ys[j] = p.X, p.Y
		}
		allX, allY = append(allX, xs...), append(allY, ys...)
		xs, ys = padSingle(xs, ys)
		color := palette[i%len(palette)]
		plotted = append(plotted, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3, DotColor: color},
		})
	}
	if len(plotted) == 0 {
		return ErrNoData
	}

	graph := chart.Chart{
		Title:      "Age vs billing amount",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20}},
		Width:      r.Width,
		Height:     r.Height,
		XAxis:      chart.XAxis{Name: "Age", Range: spanOf(allX)},
		YAxis:      chart.YAxis{Name: "Billing Amount", Range: spanOf(allY)},
		Series:     plotted,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// bars draws a single-series bar chart sized to fit the canvas.
func (r *ChartRenderer) bars(w io.Writer, title string, values []chart.Value, max float64) error {
	if max <= 0 {
		max = 1
	}
	spacing := 4
	width := (r.Width-120)/len(values) - spacing
	if width < 2 {
		width = 2
	}

	bc := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   width,
		BarSpacing: spacing,
		XAxis:      chart.Style{Hidden: len(values) > 30},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: max * 1.1}},
		Bars:       values,
	}
	return bc.Render(chart.PNG, w)
}

// spanOf returns a non-degenerate axis range covering values.
func spanOf(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// padSingle duplicates a lone point; a continuous series needs two.
func padSingle(xs, ys []float64) ([]float64, []float64) {
	if len(xs) != 1 {
		return xs, ys
	}
	return []float64{xs[0], xs[0]}, []float64{ys[0], ys[0]}
}
