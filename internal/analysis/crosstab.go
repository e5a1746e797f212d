package analysis

import (
	"sort"

	"healthinsights/domain/dataset"
)

// Crosstab is a zero-filled two-way table. Counts[i][j] is the number of
// records with Rows[i] and Columns[j].
type Crosstab struct {
	RowKey    dataset.Column `json:"row_key"`
	ColumnKey dataset.Column `json:"column_key"`
	Rows      []string       `json:"rows"`
	Columns   []string       `json:"columns"`
	Counts    [][]int        `json:"counts"`
}

// CrossTabulate builds the rowKey × columnKey table with sorted labels.
// Combinations absent from GroupCount appear as zero.
func CrossTabulate(ds *dataset.Dataset, rowKey, columnKey dataset.Column) (*Crosstab, error) {
	counts, err := GroupCount(ds, rowKey, columnKey)
	if err != nil {
		return nil, err
	}

	rowSet := make(map[string]bool)
	colSet := make(map[string]bool)
	for p := range counts {
		rowSet[p.A] = true
		colSet[p.B] = true
	}

	ct := &Crosstab{
		RowKey:    rowKey,
		ColumnKey: columnKey,
		Rows:      sortedKeys(rowSet),
		Columns:   sortedKeys(colSet),
	}
	ct.Counts = make([][]int, len(ct.Rows))
	for i, row := range ct.Rows {
		ct.Counts[i] = make([]int, len(ct.Columns))
		for j, col := range ct.Columns {
			ct.Counts[i][j] = counts[Pair{A: row, B: col}]
		}
	}
	return ct, nil
}

// Count returns the cell for (row, column), zero when either label is absent.
func (c *Crosstab) Count(row, column string) int {
	for i, r := range c.Rows {
		if r != row {
			continue
		}
		for j, col := range c.Columns {
			if col == column {
				return c.Counts[i][j]
			}
		}
	}
	return 0
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
