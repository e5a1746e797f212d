package app

import (
	"context"
	"io"

	"healthinsights/adapters/excel"
	"healthinsights/domain/core"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/analysis"
	"healthinsights/internal/errors"
	"healthinsights/internal/session"
)

// DefaultHistogramBins is used when no bin count is configured
const DefaultHistogramBins = 20

// FilterOptions are the sidebar selector values, each list led by "All"
// and followed by distinct values in first-seen order.
type FilterOptions struct {
	Genders    []string `json:"genders"`
	Conditions []string `json:"conditions"`
	Hospitals  []string `json:"hospitals"`
}

// DashboardService answers dashboard queries against per-session datasets
type DashboardService struct {
	sessions *session.Manager
	exporter *excel.WorkbookExporter
	bins     int
	logger   *internal.Logger
}

// NewDashboardService creates a dashboard service
func NewDashboardService(sessions *session.Manager, bins int, logger *internal.Logger) *DashboardService {
	if bins < 1 {
		bins = DefaultHistogramBins
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DashboardService{
		sessions: sessions,
		exporter: excel.NewWorkbookExporter(),
		bins:     bins,
		logger:   logger.With("Dashboard"),
	}
}

// CreateSession starts a new session; its dataset loads on first query.
func (s *DashboardService) CreateSession() core.SessionID {
	return s.sessions.Create().ID()
}

// HasSession reports whether rawID names a live session
func (s *DashboardService) HasSession(rawID string) bool {
	id, err := core.ParseSessionID(rawID)
	if err != nil {
		return false
	}
	_, err = s.sessions.Get(id)
	return err == nil
}

// SessionCount returns the number of live sessions, the default one included
func (s *DashboardService) SessionCount() int {
	return s.sessions.Len()
}

// CloseSession drops a session and its dataset
func (s *DashboardService) CloseSession(rawID string) error {
	id, err := core.ParseSessionID(rawID)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	return s.sessions.Close(id)
}

// Dataset returns the session's memoized dataset and its load report
func (s *DashboardService) Dataset(ctx context.Context, sessionID string) (*dataset.Dataset, *dataset.LoadReport, error) {
	sess, err := s.sessions.Lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess.Dataset(ctx)
}

// Dashboard computes every widget for criteria on the session's dataset.
func (s *DashboardService) Dashboard(ctx context.Context, sessionID string, criteria dataset.Criteria) (*DashboardView, error) {
	ds, _, err := s.Dataset(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view, err := BuildDashboard(ds, criteria, s.bins)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build dashboard")
	}
	s.logger.Debug("Dashboard for %v: %d of %d records", view.Criteria.Predicates(), view.Summary.Count, ds.Len())
	return view, nil
}

// ViewHash fingerprints the view criteria would produce without computing it.
func (s *DashboardService) ViewHash(ctx context.Context, sessionID string, criteria dataset.Criteria) (core.Hash, error) {
	ds, _, err := s.Dataset(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return core.ComputeViewHash(ds.Meta().Fingerprint, criteria.Normalize().Predicates()), nil
}

// FilterOptions lists the selector values of the unfiltered dataset.
func (s *DashboardService) FilterOptions(ctx context.Context, sessionID string) (*FilterOptions, error) {
	ds, _, err := s.Dataset(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	opts := &FilterOptions{}
	for _, target := range []struct {
		col dataset.Column
		dst *[]string
	}{
		{dataset.ColGender, &opts.Genders},
		{dataset.ColCondition, &opts.Conditions},
		{dataset.ColHospital, &opts.Hospitals},
	} {
		values, err := ds.Distinct(target.col)
		if err != nil {
			return nil, err
		}
		*target.dst = append([]string{dataset.AllOption}, values...)
	}
	return opts, nil
}

// Export writes the filtered view and its summary as an xlsx workbook.
func (s *DashboardService) Export(ctx context.Context, sessionID string, criteria dataset.Criteria, w io.Writer) error {
	ds, _, err := s.Dataset(ctx, sessionID)
	if err != nil {
		return err
	}
	return ExportView(s.exporter, ds, criteria, w)
}

// ExportView filters ds and writes it with exporter.
func ExportView(exporter *excel.WorkbookExporter, ds *dataset.Dataset, criteria dataset.Criteria, w io.Writer) error {
	view := ds.Filter(criteria)
	rows := make([]excel.SummaryRow, 0, 3)
	for _, pair := range SummaryRows(analysis.Summarize(view)) {
		rows = append(rows, excel.SummaryRow{Label: pair[0], Value: pair[1]})
	}
	if err := exporter.Write(w, view, rows); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// Reload re-reads the session's source and returns the new report.
func (s *DashboardService) Reload(ctx context.Context, sessionID string) (*dataset.LoadReport, error) {
	sess, err := s.sessions.Lookup(sessionID)
	if err != nil {
		return nil, err
	}
	_, report, err := sess.Reload(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Session %s reloaded: %d records", sess.ID(), report.Rows)
	return report, nil
}
