// Package analysis answers aggregate queries over a dataset view. Every
// function is total over missing values: empty or all-missing input
// yields NaN measures or empty results, never an error. Errors are
// reserved for asking about a column no record carries.
package analysis

import (
	"sort"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"

	"github.com/montanaflynn/stats"
)

// Summary is the sidebar overview of a view.
type Summary struct {
	Count             int          `json:"count"`
	MeanLengthOfStay  core.Measure `json:"mean_length_of_stay"`
	MeanBillingAmount core.Measure `json:"mean_billing_amount"`
}

// Summarize counts records and averages stay and billing over present values.
func Summarize(ds *dataset.Dataset) Summary {
	return Summary{
		Count:             ds.Len(),
		MeanLengthOfStay:  mean(numbers(ds, dataset.ColLengthOfStay)),
		MeanBillingAmount: mean(numbers(ds, dataset.ColBilling)),
	}
}

// Pair is a two-level grouping key.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// GroupCount counts records per (keyA, keyB) combination. Combinations
// with no records are absent from the map; records missing either key are
// skipped.
func GroupCount(ds *dataset.Dataset, keyA, keyB dataset.Column) (map[Pair]int, error) {
	if err := validate(keyA, keyB); err != nil {
		return nil, err
	}
	counts := make(map[Pair]int)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		a, okA := r.Category(keyA)
		b, okB := r.Category(keyB)
		if okA && okB {
			counts[Pair{A: a, B: b}]++
		}
	}
	return counts, nil
}

// GroupMean is the mean of one group; N counts the present values.
type GroupMean struct {
	Group string       `json:"group"`
	Mean  core.Measure `json:"mean"`
	N     int          `json:"n"`
}

// MeansByGroup averages valueKey within each groupKey value, sorted by
// group. A group whose values are all missing has a NaN mean.
func MeansByGroup(ds *dataset.Dataset, groupKey, valueKey dataset.Column) ([]GroupMean, error) {
	if err := validate(groupKey); err != nil {
		return nil, err
	}
	if err := validateNumeric(valueKey); err != nil {
		return nil, err
	}

	values := make(map[string][]float64)
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		g, ok := r.Category(groupKey)
		if !ok {
			continue
		}
		if _, seen := values[g]; !seen {
			values[g] = nil
		}
		if v, ok := r.Number(valueKey); ok {
			values[g] = append(values[g], v)
		}
	}

	out := make([]GroupMean, 0, len(values))
	for g, vs := range values {
		out = append(out, GroupMean{Group: g, Mean: mean(vs), N: len(vs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

// AggregateMean is MeansByGroup keyed by group.
func AggregateMean(ds *dataset.Dataset, groupKey, valueKey dataset.Column) (map[string]core.Measure, error) {
	means, err := MeansByGroup(ds, groupKey, valueKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Measure, len(means))
	for _, m := range means {
		out[m.Group] = m.Mean
	}
	return out, nil
}

// CategoryCount is the number of records carrying one value.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountBy counts records per value of col, most frequent first and ties
// by value.
func CountBy(ds *dataset.Dataset, col dataset.Column) ([]CategoryCount, error) {
	if err := validate(col); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for i := 0; i < ds.Len(); i++ {
		if v, ok := ds.At(i).Category(col); ok {
			counts[v]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

// ValueCount is the frequency of one numeric value.
type ValueCount struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ValueCounts counts occurrences of each present value of a numeric
// column, in ascending value order.
func ValueCounts(ds *dataset.Dataset, col dataset.Column) ([]ValueCount, error) {
	if err := validateNumeric(col); err != nil {
		return nil, err
	}
	counts := make(map[float64]int)
	for _, v := range numbers(ds, col) {
		counts[v]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func numbers(ds *dataset.Dataset, col dataset.Column) []float64 {
	values := make([]float64, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if v, ok := ds.At(i).Number(col); ok {
			values = append(values, v)
		}
	}
	return values
}

func mean(values []float64) core.Measure {
	m, err := stats.Mean(values)
	if err != nil {
		return core.NaN()
	}
	return core.Measure(m)
}

func validate(cols ...dataset.Column) error {
	for _, col := range cols {
		if err := col.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateNumeric(col dataset.Column) error {
	if err := col.Validate(); err != nil {
		return err
	}
	if col.Kind() != dataset.KindNumeric {
		return core.NewNotNumericError(string(col))
	}
	return nil
}
