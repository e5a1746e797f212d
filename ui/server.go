package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"healthinsights/app"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/errors"
	"healthinsights/internal/metrics"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server is the JSON API over dashboard sessions
type Server struct {
	router     *gin.Engine
	dashboards *app.DashboardService
	metrics    *metrics.Collector
	logger     *internal.Logger
}

// NewServer wires the API routes. collector may be nil to disable /metrics.
func NewServer(dashboards *app.DashboardService, collector *metrics.Collector, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:     gin.New(),
		dashboards: dashboards,
		metrics:    collector,
		logger:     logger.With("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"))
	if s.metrics != nil {
		s.router.Use(s.metrics.GinMiddleware())
	}
}

// setupRoutes configures the API routes. Every dataset route exists twice:
// under /api for the default session and under /api/sessions/:id.
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")
	api.POST("/sessions", s.handleCreateSession)
	api.DELETE("/sessions/:id", s.handleCloseSession)

	for _, group := range []*gin.RouterGroup{api, api.Group("/sessions/:id")} {
		group.GET("/dashboard", s.handleDashboard)
		group.GET("/filters", s.handleFilters)
		group.GET("/report", s.handleReport)
		group.GET("/export.xlsx", s.handleExport)
		group.POST("/reload", s.handleReload)
	}
}

// Handler exposes the router for tests and custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	id := s.dashboards.CreateSession()
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (s *Server) handleCloseSession(c *gin.Context) {
	if err := s.dashboards.CloseSession(c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDashboard(c *gin.Context) {
	criteria, ok := s.bindCriteria(c)
	if !ok {
		return
	}

	hash, err := s.dashboards.ViewHash(c.Request.Context(), c.Param("id"), criteria)
	if err != nil {
		s.respondError(c, err)
		return
	}
	etag := fmt.Sprintf("%q", hash.Short())
	if match := c.GetHeader("If-None-Match"); match != "" && strings.Contains(match, etag) {
		c.Status(http.StatusNotModified)
		return
	}

	view, err := s.dashboards.Dashboard(c.Request.Context(), c.Param("id"), criteria)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("ETag", etag)
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleFilters(c *gin.Context) {
	opts, err := s.dashboards.FilterOptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (s *Server) handleReport(c *gin.Context) {
	_, report, err := s.dashboards.Dataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleReload(c *gin.Context) {
	report, err := s.dashboards.Reload(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExport(c *gin.Context) {
	criteria, ok := s.bindCriteria(c)
	if !ok {
		return
	}

	// Render fully before writing so a failure can still become a JSON error.
	var buf bytes.Buffer
	if err := s.dashboards.Export(c.Request.Context(), c.Param("id"), criteria, &buf); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="encounters.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) bindCriteria(c *gin.Context) (dataset.Criteria, bool) {
	var criteria dataset.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		s.respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return criteria, false
	}
	return criteria.Normalize(), true
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		s.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
