package excel

import (
	"fmt"
	"io"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"

	"github.com/xuri/excelize/v2"
)

const (
	encountersSheet = "Encounters"
	summarySheet    = "Summary"
)

// exportColumns is the column order of the Encounters sheet.
var exportColumns = []dataset.Column{
	dataset.ColGender,
	dataset.ColCondition,
	dataset.ColHospital,
	dataset.ColAge,
	dataset.ColBilling,
	dataset.ColAdmission,
	dataset.ColDischarge,
	dataset.ColLengthOfStay,
}

// SummaryRow is one label/value line on the Summary sheet.
type SummaryRow struct {
	Label string
	Value interface{}
}

// WorkbookExporter writes a dataset view as an .xlsx workbook
type WorkbookExporter struct{}

// NewWorkbookExporter creates an exporter
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

// Write streams ds to w. Missing values are left as blank cells; dates are
// written as YYYY-MM-DD text.
func (e *WorkbookExporter) Write(w io.Writer, ds *dataset.Dataset, summary []SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", encountersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(encountersSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = string(col)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < ds.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, exportRow(ds.At(i))); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}

	if len(summary) > 0 {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("failed to add summary sheet: %w", err)
		}
		for i, row := range summary {
			if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]interface{}{row.Label, row.Value}); err != nil {
				return fmt.Errorf("failed to write summary row %q: %w", row.Label, err)
			}
		}
	}

	return f.Write(w)
}

func exportRow(r dataset.Record) []interface{} {
	row := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		switch col.Kind() {
		case dataset.KindCategorical:
			if v, ok := r.Category(col); ok {
				row[i] = v
			}
		case dataset.KindNumeric:
			if v, ok := r.Number(col); ok {
				row[i] = v
			}
		case dataset.KindDate:
			if d, ok := r.Date(col); ok {
				row[i] = core.DateKey(d)
			}
		}
	}
	return row
}
