package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/analysis"
	dataloader "healthinsights/internal/dataset"
	"healthinsights/internal/errors"
	"healthinsights/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const fixture = `Name,Age,Gender,Blood Type,Medical Condition,Date of Admission,Doctor,Hospital,Billing Amount,Discharge Date
Ann,61,Female,A+,Diabetes,2020-01-01,Dr. X,Mercy,1200.50,2020-01-05
Bob,45,Male,O-,Asthma,2020-02-01,Dr. Y,General,800,not a date
Cy,30,Male,B+,Diabetes,2020-01-01,Dr. Z,Mercy,950,2020-01-03
Di,52,Female,AB-,Cancer,2020-03-15,Dr. X,General,2100,2020-03-25
Ed,38,Male,O+,Diabetes,2020-02-01,Dr. Y,Mercy,400,2020-02-02
`

func newService(t *testing.T) *DashboardService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encounters.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	logger := internal.NewLogger(internal.LogLevelError)
	source := dataloader.NewFileSource(dataloader.DefaultSourceConfig(path), logger)
	return NewDashboardService(session.NewManager(source, nil, logger), 4, logger)
}

func TestDashboard_Unfiltered(t *testing.T) {
	svc := newService(t)

	view, err := svc.Dashboard(context.Background(), "", dataset.Criteria{})
	require.NoError(t, err)

	assert.Equal(t, 5, view.Summary.Count)
	// stays: 4, missing, 2, 10, 1
	assert.InDelta(t, 17.0/4, view.Summary.MeanLengthOfStay.Float64(), 1e-9)

	ct := view.Demographics.GenderByCondition
	assert.Equal(t, 2, ct.Count("Male", "Diabetes"))
	assert.Equal(t, 0, ct.Count("Male", "Cancer"))

	require.NotEmpty(t, view.Conditions.ConditionCounts)
	assert.Equal(t, analysis.CategoryCount{Value: "Diabetes", Count: 3}, view.Conditions.ConditionCounts[0])

	assert.Len(t, view.Financial.BillingDensity, 4)
	assert.Len(t, view.Financial.BillingByHospital, 2)
	assert.Len(t, view.Correlation.AgeVsBilling, 2)
	assert.Equal(t, core.Measure(1), view.Correlation.Matrix.At(dataset.ColAge, dataset.ColAge))

	trend := view.Conditions.LengthOfStayTrend
	require.Len(t, trend, 3)
	assert.Equal(t, "2020-01-01", core.DateKey(trend[0].Date))
	assert.InDelta(t, 3.0, trend[0].Mean.Float64(), 1e-9)
	assert.InDelta(t, 1.0, trend[1].Mean.Float64(), 1e-9)
	assert.Equal(t, 1, trend[1].N)
}

func TestDashboard_Filtered(t *testing.T) {
	svc := newService(t)

	view, err := svc.Dashboard(context.Background(), "", dataset.NewCriteria("Male", "All"))
	require.NoError(t, err)
	assert.Equal(t, 3, view.Summary.Count)
	assert.Equal(t, "Male", view.Criteria.Gender)
	assert.Empty(t, view.Criteria.Condition)

	all, err := svc.Dashboard(context.Background(), "", dataset.Criteria{})
	require.NoError(t, err)
	assert.NotEqual(t, all.ViewHash, view.ViewHash)

	hash, err := svc.ViewHash(context.Background(), "", dataset.NewCriteria("Male", ""))
	require.NoError(t, err)
	assert.Equal(t, view.ViewHash, hash)
}

func TestDashboard_NoMatches(t *testing.T) {
	svc := newService(t)

	view, err := svc.Dashboard(context.Background(), "", dataset.NewCriteria("Other", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, view.Summary.Count)
	assert.True(t, view.Summary.MeanBillingAmount.IsNaN())
	assert.Empty(t, view.Financial.BillingDensity)
	assert.True(t, view.Correlation.Matrix.At(dataset.ColAge, dataset.ColBilling).IsNaN())
	assert.Equal(t, "n/a", view.SummaryRows()[1][1])
}

func TestFilterOptions(t *testing.T) {
	svc := newService(t)

	opts, err := svc.FilterOptions(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Female", "Male"}, opts.Genders)
	assert.Equal(t, []string{"All", "Diabetes", "Asthma", "Cancer"}, opts.Conditions)
	assert.Equal(t, []string{"All", "Mercy", "General"}, opts.Hospitals)
}

func TestSessions(t *testing.T) {
	svc := newService(t)

	id := svc.CreateSession()
	_, err := svc.Dashboard(context.Background(), id.String(), dataset.Criteria{})
	require.NoError(t, err)

	report, err := svc.Reload(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, 1, report.CoercedCells[dataset.ColDischarge])

	require.NoError(t, svc.CloseSession(id.String()))
	_, err = svc.Dashboard(context.Background(), id.String(), dataset.Criteria{})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	err = svc.CloseSession("nope")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestExport(t *testing.T) {
	svc := newService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), "", dataset.NewCriteria("Female", ""), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Encounters")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, []string{"Total entries", "2"}, summary[0])
}

func TestTabTitles(t *testing.T) {
	assert.Len(t, Tabs, 5)
	assert.Equal(t, "Financial Insights", TabFinancial.Title())
	assert.Equal(t, "Correlation Analysis", TabCorrelation.Title())
}

func TestSummaryRows_TwoDecimals(t *testing.T) {
	rows := SummaryRows(analysis.Summary{Count: 2, MeanLengthOfStay: 4, MeanBillingAmount: 1500.5})
	assert.Equal(t, [][2]string{
		{"Total entries", "2"},
		{"Average length of stay (days)", "4.00"},
		{"Average billing amount", "1500.50"},
	}, rows)
}
