package excel

import "healthinsights/domain/core"

// RawRowData represents a row of raw cell text keyed by header
type RawRowData map[string]string

// ExcelData represents a complete tabular file before typing
type ExcelData struct {
	Headers     []string     // Column headers, exactly as written
	Rows        []RawRowData // Data rows
	Fingerprint core.Hash    // SHA-256 of the file bytes
}

// HasColumn reports whether name appears in the header row.
func (d *ExcelData) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names not present in the header row, in the
// order given.
func (d *ExcelData) MissingColumns(names []string) []string {
	var missing []string
	for _, name := range names {
		if !d.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
