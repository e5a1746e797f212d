package analysis

import (
	"math"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds Pearson coefficients between numeric columns.
// Observations[i][j] is the number of rows where both columns are present.
type CorrelationMatrix struct {
	Columns      []dataset.Column `json:"columns"`
	Values       [][]core.Measure `json:"values"`
	Observations [][]int          `json:"observations"`
}

// Correlate computes a symmetric Pearson matrix using pairwise-complete
// observations: a row missing either value is dropped from that pair only.
// The diagonal is always 1. Pairs with fewer than two observations or no
// variance are NaN.
func Correlate(ds *dataset.Dataset, cols []dataset.Column) (*CorrelationMatrix, error) {
	for _, col := range cols {
		if err := validateNumeric(col); err != nil {
			return nil, err
		}
	}

	n := len(cols)
	m := &CorrelationMatrix{
		Columns:      append([]dataset.Column(nil), cols...),
		Values:       make([][]core.Measure, n),
		Observations: make([][]int, n),
	}
	for i := range cols {
		m.Values[i] = make([]core.Measure, n)
		m.Observations[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		m.Values[i][i] = 1
		m.Observations[i][i] = len(numbers(ds, cols[i]))
		for j := i + 1; j < n; j++ {
			xs, ys := pairwiseComplete(ds, cols[i], cols[j])
			r := pearson(xs, ys)
			m.Values[i][j], m.Values[j][i] = r, r
			m.Observations[i][j], m.Observations[j][i] = len(xs), len(xs)
		}
	}
	return m, nil
}

// At returns the coefficient for a pair of columns, NaN if either is absent.
func (m *CorrelationMatrix) At(a, b dataset.Column) core.Measure {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return core.NaN()
	}
	return m.Values[i][j]
}

func (m *CorrelationMatrix) index(col dataset.Column) int {
	for i, c := range m.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

func pairwiseComplete(ds *dataset.Dataset, a, b dataset.Column) ([]float64, []float64) {
	xs := make([]float64, 0, ds.Len())
	ys := make([]float64, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		x, okX := r.Number(a)
		y, okY := r.Number(b)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func pearson(xs, ys []float64) core.Measure {
	if len(xs) < 2 {
		return core.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return core.NaN()
	}
	// Rounding can push a perfect correlation just past ±1.
	return core.Measure(math.Max(-1, math.Min(1, r)))
}
