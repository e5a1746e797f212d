package container

import (
	"context"
	"fmt"

	"healthinsights/app"
	"healthinsights/internal"
	"healthinsights/internal/config"
	"healthinsights/internal/dataset"
	"healthinsights/internal/metrics"
	"healthinsights/internal/session"
	"healthinsights/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Data access
	Source ports.DatasetSource

	// Observability; nil when metrics are disabled
	Metrics *metrics.Collector

	Sessions   *session.Manager
	Dashboards *app.DashboardService
}

// New builds every component from cfg
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLoggerFromString(cfg.Logging.Level),
	}

	c.Source = dataset.NewFileSource(
		dataset.DefaultSourceConfig(cfg.Data.File, cfg.Data.DateLayouts...),
		c.Logger,
	)

	var observer ports.LoadObserver
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New(nil)
		observer = c.Metrics
	}

	c.Sessions = session.NewManager(c.Source, observer, c.Logger)
	c.Dashboards = app.NewDashboardService(c.Sessions, cfg.Data.HistogramBins, c.Logger)
	return c, nil
}

// Warmup loads the default session so the first request is fast. A load
// failure is logged and left for the first request to report.
func (c *Container) Warmup(ctx context.Context) {
	if _, _, err := c.Dashboards.Dataset(ctx, ""); err != nil {
		c.Logger.Warn("Initial load of %s failed: %v", c.Source.Describe(), err)
	}
}

// Shutdown closes every live session
func (c *Container) Shutdown(ctx context.Context) error {
	for _, id := range c.Sessions.IDs() {
		if err := c.Sessions.Close(id); err != nil {
			return err
		}
	}
	return ctx.Err()
}
