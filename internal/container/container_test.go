package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"healthinsights/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(path string, metrics bool) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "8080", UIPort: "8081", GinMode: "test"},
		Data:    config.DataConfig{File: path, DateLayouts: []string{"02.01.2006"}, HistogramBins: 10, ChartTopN: 5},
		Logging: config.LoggingConfig{Level: "ERROR"},
		Metrics: config.MetricsConfig{Enabled: metrics},
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	c, err := New(testConfig("data.csv", true))
	require.NoError(t, err)
	assert.NotNil(t, c.Metrics)
	assert.Equal(t, "data.csv", c.Source.Describe())

	c, err = New(testConfig("data.csv", false))
	require.NoError(t, err)
	assert.Nil(t, c.Metrics)
}

func TestWarmupAndShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encounters.csv")
	content := "Gender,Medical Condition,Hospital,Age,Billing Amount,Date of Admission,Discharge Date\n" +
		"Male,Diabetes,Mercy,40,100,01.02.2020,05.02.2020\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := New(testConfig(path, true))
	require.NoError(t, err)

	c.Warmup(context.Background())
	require.Equal(t, 1, c.Sessions.Len())

	ds, _, err := c.Dashboards.Dataset(context.Background(), "")
	require.NoError(t, err)
	los, ok := ds.At(0).LengthOfStay().Get()
	require.True(t, ok)
	assert.Equal(t, 4, los)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, 0, c.Sessions.Len())
}

func TestWarmupToleratesMissingFile(t *testing.T) {
	c, err := New(testConfig(filepath.Join(t.TempDir(), "absent.csv"), false))
	require.NoError(t, err)
	c.Warmup(context.Background())

	_, _, err = c.Dashboards.Dataset(context.Background(), "")
	assert.Error(t, err)
}
