package core

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	missing := None[float64]()
	assert.True(t, missing.IsMissing())
	assert.Equal(t, -1.0, missing.OrElse(-1))

	zero := Some(0.0)
	v, ok := zero.Get()
	assert.True(t, ok, "zero is a present value, not missing")
	assert.Equal(t, 0.0, v)

	var zeroValue Optional[time.Time]
	assert.True(t, zeroValue.IsMissing(), "zero Optional must be missing")
}

func TestOptionalJSON(t *testing.T) {
	type row struct {
		Age  Optional[float64] `json:"age"`
		Stay Optional[int]     `json:"stay"`
	}

	out, err := json.Marshal(row{Age: Some(42.0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"age":42,"stay":null}`, string(out))

	var back row
	require.NoError(t, json.Unmarshal(out, &back))
	age, ok := back.Age.Get()
	assert.True(t, ok)
	assert.Equal(t, 42.0, age)
	assert.True(t, back.Stay.IsMissing())
}

func TestMeasure(t *testing.T) {
	assert.Equal(t, "n/a", NaN().String())
	assert.Equal(t, "4.00", Measure(4).String())
	assert.True(t, Measure(math.Inf(1)).IsNaN())

	out, err := json.Marshal(map[string]Measure{"mean": NaN(), "n": 2.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":null,"n":2.5}`, string(out))

	var m Measure
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.True(t, m.IsNaN())
}

func TestDaysBetween(t *testing.T) {
	day := func(s string) time.Time {
		d, err := ParseDateKey(s)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"four days", day("2020-01-01"), day("2020-01-05"), 4},
		{"same day", day("2020-03-10"), day("2020-03-10"), 0},
		{"across leap day", day("2020-02-28"), day("2020-03-01"), 2},
		{"negative preserved", day("2020-01-05"), day("2020-01-01"), -4},
		{"partial day floors", day("2020-01-01"), day("2020-01-01").Add(-time.Hour), -1},
		{"partial day positive", day("2020-01-01"), day("2020-01-02").Add(5 * time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestComputeViewHash(t *testing.T) {
	src := NewHash([]byte("dataset"))

	a := ComputeViewHash(src, map[string]string{"gender": "Male", "condition": "Diabetes"})
	b := ComputeViewHash(src, map[string]string{"condition": "Diabetes", "gender": "Male"})
	c := ComputeViewHash(src, map[string]string{"gender": "Female", "condition": "Diabetes"})

	assert.Equal(t, a, b, "predicate order must not matter")
	assert.NotEqual(t, a, c)
	assert.Len(t, a.Short(), 12)
}

func TestComputeViewHash_SeparatorsInValues(t *testing.T) {
	src := NewHash([]byte("dataset"))

	joined := ComputeViewHash(src, map[string]string{"condition": "A|gender=B"})
	split := ComputeViewHash(src, map[string]string{"condition": "A", "gender": "B"})
	assert.NotEqual(t, joined, split)

	shifted := ComputeViewHash(src, map[string]string{"a": "b=c"})
	other := ComputeViewHash(src, map[string]string{"a=b": "c"})
	assert.NotEqual(t, shifted, other)
}
