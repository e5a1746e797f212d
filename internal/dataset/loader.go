// Package dataset turns a tabular file into an immutable encounter dataset.
//
// Cells that fail to parse are never fatal: they become the missing marker
// and are tallied in the LoadReport so the substitution stays visible.
package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"healthinsights/adapters/datareadiness/coercer"
	"healthinsights/adapters/excel"
	"healthinsights/domain/core"
	domainDataset "healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/errors"
)

// ctxCheckInterval is how many rows are built between cancellation checks.
const ctxCheckInterval = 4096

// FileSource loads encounters from a CSV or XLSX file
type FileSource struct {
	config  excel.ReaderConfig
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
	now     func() time.Time
}

// NewFileSource creates a source for config.FilePath
func NewFileSource(config excel.ReaderConfig, logger *internal.Logger) *FileSource {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FileSource{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
		logger:  logger,
		now:     time.Now,
	}
}

// Describe returns the file path
func (s *FileSource) Describe() string {
	return s.config.FilePath
}

// Load reads and types the whole file.
func (s *FileSource) Load(ctx context.Context) (*domainDataset.Dataset, *domainDataset.LoadReport, error) {
	start := s.now()

	data, err := excel.NewDataReader(s.config, s.logger).ReadData()
	if err != nil {
		return nil, nil, err
	}

	ds, report, err := Build(ctx, data, s.coercer, s.config.FilePath)
	if err != nil {
		return nil, report, err
	}
	report.Duration = s.now().Sub(start)

	log := s.logger.With("Loader")
	log.Info("Loaded %d records from %s in %s", report.Rows, report.Source, report.Duration)
	if n := report.TotalCoerced(); n > 0 {
		log.Warn("%d unparseable cells replaced by missing values: %s", n, formatCounts(report.CoercedCells))
	}
	if report.NegativeLengthOfStay > 0 {
		log.Warn("%d records have discharge before admission; negative stays kept as-is", report.NegativeLengthOfStay)
	}

	return ds, report, nil
}

// DefaultSourceConfig returns reader defaults pointed at path.
func DefaultSourceConfig(path string, extraDateLayouts ...string) excel.ReaderConfig {
	config := excel.DefaultReaderConfig()
	config.FilePath = path
	config.CoercionConfig = config.CoercionConfig.WithExtraDateLayouts(extraDateLayouts...)
	return config
}

// Load reads path with default settings.
func Load(ctx context.Context, path string) (*domainDataset.Dataset, *domainDataset.LoadReport, error) {
	return NewFileSource(DefaultSourceConfig(path), nil).Load(ctx)
}

// Build types raw rows into records. A missing required header is a
// PARSE_ERROR; individual bad cells only update the report.
func Build(ctx context.Context, data *excel.ExcelData, c *coercer.TypeCoercer, source string) (*domainDataset.Dataset, *domainDataset.LoadReport, error) {
	report := domainDataset.NewLoadReport(source)
	report.Fingerprint = data.Fingerprint

	required := make([]string, len(domainDataset.RequiredColumns))
	for i, col := range domainDataset.RequiredColumns {
		required[i] = string(col)
	}
	if missing := data.MissingColumns(required); len(missing) > 0 {
		cause := core.NewMissingColumnError(missing[0])
		return nil, report, errors.ParseError(
			fmt.Sprintf("%s is missing required columns: %s", source, strings.Join(missing, ", ")), cause)
	}

	records := make([]domainDataset.Record, 0, len(data.Rows))
	for i, row := range data.Rows {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, errors.Wrap(err, "load cancelled")
			}
		}
		rec := buildRecord(row, c, report)
		report.Observe(rec)
		records = append(records, rec)
	}

	meta := domainDataset.Meta{
		Source:      source,
		Fingerprint: data.Fingerprint,
		LoadedAt:    time.Now(),
	}
	return domainDataset.New(records, meta), report, nil
}

func buildRecord(row excel.RawRowData, c *coercer.TypeCoercer, report *domainDataset.LoadReport) domainDataset.Record {
	e := domainDataset.Encounter{
		Gender:    category(row, domainDataset.ColGender, report),
		Condition: category(row, domainDataset.ColCondition, report),
		Hospital:  category(row, domainDataset.ColHospital, report),
	}

	e.Age = number(row, domainDataset.ColAge, c, report)
	e.BillingAmount = number(row, domainDataset.ColBilling, c, report)
	e.AdmissionDate = date(row, domainDataset.ColAdmission, c, report)
	e.DischargeDate = date(row, domainDataset.ColDischarge, c, report)

	return domainDataset.NewRecord(e)
}

func category(row excel.RawRowData, col domainDataset.Column, report *domainDataset.LoadReport) string {
	v := row[string(col)]
	if strings.TrimSpace(v) == "" {
		report.RecordMissing(col)
		return ""
	}
	return v
}

func number(row excel.RawRowData, col domainDataset.Column, c *coercer.TypeCoercer, report *domainDataset.LoadReport) core.Optional[float64] {
	v, outcome := c.ParseNumber(row[string(col)])
	tally(outcome, col, report)
	return v
}

func date(row excel.RawRowData, col domainDataset.Column, c *coercer.TypeCoercer, report *domainDataset.LoadReport) core.Optional[time.Time] {
	v, outcome := c.ParseDate(row[string(col)])
	tally(outcome, col, report)
	return v
}

func tally(outcome coercer.Outcome, col domainDataset.Column, report *domainDataset.LoadReport) {
	switch outcome {
	case coercer.Empty:
		report.RecordMissing(col)
	case coercer.Coerced:
		report.RecordCoerced(col)
	}
}

func formatCounts(counts map[domainDataset.Column]int) string {
	parts := make([]string, 0, len(counts))
	for _, col := range domainDataset.RequiredColumns {
		if n := counts[col]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", col, n))
		}
	}
	return strings.Join(parts, ", ")
}
