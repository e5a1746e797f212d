package dataset

import (
	"time"

	"healthinsights/domain/core"
)

// LoadReport records what happened to each cell during a load. Coerced
// cells held text that failed to parse and were replaced by the missing
// marker; missing cells were empty in the source.
type LoadReport struct {
	Source               string         `json:"source"`
	Fingerprint          core.Hash      `json:"fingerprint"`
	Rows                 int            `json:"rows"`
	MissingCells         map[Column]int `json:"missing_cells"`
	CoercedCells         map[Column]int `json:"coerced_cells"`
	MissingLengthOfStay  int            `json:"missing_length_of_stay"`
	NegativeLengthOfStay int            `json:"negative_length_of_stay"`
	Duration             time.Duration  `json:"duration"`
}

// NewLoadReport creates an empty report for source.
func NewLoadReport(source string) *LoadReport {
	return &LoadReport{
		Source:       source,
		MissingCells: make(map[Column]int),
		CoercedCells: make(map[Column]int),
	}
}

// RecordMissing counts an empty cell.
func (r *LoadReport) RecordMissing(col Column) {
	r.MissingCells[col]++
}

// RecordCoerced counts a cell whose text failed to parse.
func (r *LoadReport) RecordCoerced(col Column) {
	r.CoercedCells[col]++
}

// Observe tallies the derived fields of a finished record.
func (r *LoadReport) Observe(rec Record) {
	r.Rows++
	los, ok := rec.LengthOfStay().Get()
	switch {
	case !ok:
		r.MissingLengthOfStay++
	case los < 0:
		r.NegativeLengthOfStay++
	}
}

// TotalCoerced sums coerced cells over all columns.
func (r *LoadReport) TotalCoerced() int {
	total := 0
	for _, n := range r.CoercedCells {
		total += n
	}
	return total
}
