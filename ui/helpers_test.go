package ui

import (
	"os"
	"path/filepath"
	"testing"

	"healthinsights/app"
	"healthinsights/internal"
	dataloader "healthinsights/internal/dataset"
	"healthinsights/internal/metrics"
	"healthinsights/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const fixture = `Name,Age,Gender,Blood Type,Medical Condition,Date of Admission,Doctor,Hospital,Billing Amount,Discharge Date
Ann,61,Female,A+,Diabetes,2020-01-01,Dr. X,Mercy,1200.50,2020-01-05
Bob,45,Male,O-,Asthma,2020-02-01,Dr. Y,General,800,not a date
Cy,30,Male,B+,Diabetes,2020-01-01,Dr. Z,Mercy,950,2020-01-03
Di,52,Female,AB-,Cancer,2020-03-15,Dr. X,General,2100,2020-03-25
Ed,38,Male,O+,Diabetes,2020-02-01,Dr. Y,Mercy,400,2020-02-02
`

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func newDashboards(t *testing.T, path string) *app.DashboardService {
	t.Helper()
	logger := quietLogger()
	source := dataloader.NewFileSource(dataloader.DefaultSourceConfig(path), logger)
	return app.NewDashboardService(session.NewManager(source, nil, logger), 5, logger)
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encounters.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(newDashboards(t, writeFixture(t)), metrics.New(nil), quietLogger())
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := NewApp(newDashboards(t, writeFixture(t)), Config{ChartTopN: 5}, nil, quietLogger())
	require.NoError(t, err)
	return a
}
