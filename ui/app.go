package ui

import (
	"bytes"
	stderrors "errors"
	"html/template"
	"net/http"

	"healthinsights/app"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/errors"
	"healthinsights/internal/metrics"
	uimw "healthinsights/ui/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// App is the HTML dashboard
type App struct {
	router     *chi.Mux
	dashboards *app.DashboardService
	charts     *ChartRenderer
	metrics    *metrics.Collector
	templates  *template.Template
	overview   template.HTML
	logger     *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	// ChartTopN caps per-hospital bar charts
	ChartTopN int
}

// tabView is one tab as the template sees it
type tabView struct {
	ID     app.Tab
	Title  string
	Active bool
	Charts []string
}

type pageData struct {
	Tabs     []tabView
	Options  *app.FilterOptions
	Criteria dataset.Criteria
	View     *app.DashboardView
	Report   *dataset.LoadReport
	Overview template.HTML
}

// NewApp creates the dashboard app. collector may be nil.
func NewApp(dashboards *app.DashboardService, config Config, collector *metrics.Collector, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	overview, err := renderMarkdown("content/overview.md")
	if err != nil {
		return nil, err
	}

	a := &App{
		router:     chi.NewRouter(),
		dashboards: dashboards,
		charts:     NewChartRenderer(config.ChartTopN),
		metrics:    collector,
		templates:  templates,
		overview:   overview,
		logger:     logger.With("UI"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	if a.metrics != nil {
		a.router.Use(a.metrics.HTTPMiddleware)
	}
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if a.metrics != nil {
		a.router.Handle("/metrics", a.metrics.Handler())
	}

	a.router.Group(func(r chi.Router) {
		r.Use(uimw.BindSession(a.dashboards))
		r.Get("/", a.handleIndex)
		r.Post("/sessions", a.handleNewSession)
		r.Get("/charts/{name:[a-z-]+}.png", a.handleChart)
		r.Get("/export.xlsx", a.handleExport)
		r.Post("/reload", a.handleReload)
		r.Get("/api/dashboard", a.handleDashboardJSON)
	})
}

// ServeHTTP lets the app be mounted or tested directly
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start starts the HTTP server
func (a *App) Start(addr string) error {
	a.logger.Info("Starting dashboard on http://%s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := uimw.SessionID(ctx)
	criteria := criteriaFromQuery(r)

	opts, err := a.dashboards.FilterOptions(ctx, session)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	view, err := a.dashboards.Dashboard(ctx, session, criteria)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	_, report, err := a.dashboards.Dataset(ctx, session)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	active := app.Tab(r.URL.Query().Get("tab"))
	tabs := make([]tabView, len(app.Tabs))
	for i, t := range app.Tabs {
		tabs[i] = tabView{ID: t, Title: t.Title(), Charts: ChartsByTab[t]}
	}
	found := false
	for i := range tabs {
		if tabs[i].ID == active {
			tabs[i].Active, found = true, true
		}
	}
	if !found {
		tabs[0].Active = true
	}

	a.renderTemplate(w, "dashboard.html", pageData{
		Tabs:     tabs,
		Options:  opts,
		Criteria: view.Criteria,
		View:     view,
		Report:   report,
		Overview: a.overview,
	})
}

func (a *App) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := a.dashboards.Dashboard(ctx, uimw.SessionID(ctx), criteriaFromQuery(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := a.charts.Render(&buf, chi.URLParam(r, "name"), view); err != nil {
		if stderrors.Is(err, ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if !errors.IsAppError(err) {
			err = errors.Wrap(err, "failed to render chart")
		}
		a.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("Error writing chart: %v", err)
	}
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var buf bytes.Buffer
	if err := a.dashboards.Export(ctx, uimw.SessionID(ctx), criteriaFromQuery(r), &buf); err != nil {
		a.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="encounters.xlsx"`)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("Error writing export: %v", err)
	}
}

// handleNewSession gives the browser a private session with its own
// dataset copy. Only this explicit POST creates sessions.
func (a *App) handleNewSession(w http.ResponseWriter, r *http.Request) {
	uimw.SetSessionCookie(w, a.dashboards.CreateSession())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := a.dashboards.Reload(ctx, uimw.SessionID(ctx)); err != nil {
		a.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := a.dashboards.Dashboard(ctx, uimw.SessionID(ctx), criteriaFromQuery(r))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func (a *App) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func criteriaFromQuery(r *http.Request) dataset.Criteria {
	q := r.URL.Query()
	return dataset.Criteria{
		Gender:    q.Get("gender"),
		Condition: q.Get("condition"),
		Hospital:  q.Get("hospital"),
	}.Normalize()
}
