package core

import (
	"math"
	"strconv"
)

// Measure is a computed statistic. NaN is a legitimate "no data" result:
// it renders as "n/a" and marshals to JSON null instead of failing.
type Measure float64

// NaN is the "no data" measure.
func NaN() Measure { return Measure(math.NaN()) }

// IsNaN reports whether m carries no data.
func (m Measure) IsNaN() bool {
	return math.IsNaN(float64(m)) || math.IsInf(float64(m), 0)
}

// Float64 returns the raw value.
func (m Measure) Float64() float64 { return float64(m) }

// Format renders m with the given number of decimals, or "n/a".
func (m Measure) Format(decimals int) string {
	if m.IsNaN() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(m), 'f', decimals, 64)
}

func (m Measure) String() string { return m.Format(2) }

func (m Measure) MarshalJSON() ([]byte, error) {
	if m.IsNaN() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'g', -1, 64)), nil
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NaN()
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Measure(f)
	return nil
}
