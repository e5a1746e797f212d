package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bucket covering [Lower, Upper). Density is the
// count normalised so the histogram integrates to 1.
type Bin struct {
	Lower   float64      `json:"lower"`
	Upper   float64      `json:"upper"`
	Count   int          `json:"count"`
	Density core.Measure `json:"density"`
}

// Histogram buckets the present values of a numeric column into equal-width
// bins spanning the observed range.
func Histogram(ds *dataset.Dataset, col dataset.Column, bins int) ([]Bin, error) {
	if err := validateNumeric(col); err != nil {
		return nil, err
	}
	values := numbers(ds, col)
	if len(values) == 0 {
		return []Bin{}, nil
	}
	if bins < 1 {
		bins = 1
	}
	sort.Float64s(values)
	lo, hi := values[0], values[len(values)-1]
	total := float64(len(values))

	if lo == hi {
		return []Bin{{Lower: lo - 0.5, Upper: hi + 0.5, Count: len(values), Density: 1}}, nil
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram bins are half-open, so nudge the top edge past the max.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, values, nil)

	out := make([]Bin, bins)
	for i := range out {
		width := dividers[i+1] - dividers[i]
		out[i] = Bin{
			Lower:   dividers[i],
			Upper:   dividers[i+1],
			Count:   int(counts[i]),
			Density: core.Measure(counts[i] / (total * width)),
		}
	}
	return out, nil
}

// Point is one (x, y) observation.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named set of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Scatter collects (x, y) pairs where both are present, one series per
// value of groupBy, series sorted by name. Rows missing the group are
// skipped.
func Scatter(ds *dataset.Dataset, x, y, groupBy dataset.Column) ([]Series, error) {
	if err := validateNumeric(x); err != nil {
		return nil, err
	}
	if err := validateNumeric(y); err != nil {
		return nil, err
	}
	if err := validate(groupBy); err != nil {
		return nil, err
	}

	byGroup := make(map[string][]Point)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		g, okG := r.Category(groupBy)
		xv, okX := r.Number(x)
		yv, okY := r.Number(y)
		if okG && okX && okY {
			byGroup[g] = append(byGroup[g], Point{X: xv, Y: yv})
		}
	}

	out := make([]Series, 0, len(byGroup))
	for name, points := range byGroup {
		out = append(out, Series{Name: name, Points: points})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TimePoint is a mean at one calendar date.
type TimePoint struct {
	Date time.Time    `json:"date"`
	Mean core.Measure `json:"mean"`
	N    int          `json:"n"`
}

// MeanByDate averages valueCol per value of dateCol in chronological
// order. Rows with a missing date are excluded.
func MeanByDate(ds *dataset.Dataset, dateCol, valueCol dataset.Column) ([]TimePoint, error) {
	if err := dateCol.Validate(); err != nil {
		return nil, err
	}
	if dateCol.Kind() != dataset.KindDate {
		return nil, fmt.Errorf("%w: %q is not a date column", core.ErrUnknownColumn, dateCol)
	}
	means, err := MeansByGroup(ds, dateCol, valueCol)
	if err != nil {
		return nil, err
	}
	out := make([]TimePoint, 0, len(means))
	for _, m := range means {
		d, err := core.ParseDateKey(m.Group)
		if err != nil {
			continue
		}
		out = append(out, TimePoint{Date: d, Mean: m.Mean, N: m.N})
	}
	return out, nil
}
