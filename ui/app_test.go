package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uimw "healthinsights/ui/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == uimw.SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", uimw.SessionCookie)
	return nil
}

func TestApp_Index(t *testing.T) {
	a := newTestApp(t)

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?gender=Female&tab=correlation", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Healthcare Insights Dashboard")
	assert.Contains(t, body, "Patient Demographics")
	assert.Contains(t, body, `<option value="Female" selected>`)
	assert.Contains(t, body, `class="heatmap"`)
	assert.Contains(t, body, "/charts/age-vs-billing.png?gender=Female")
	assert.Contains(t, body, "<h2 id=\"about-this-dashboard\">About this dashboard</h2>")
	assert.True(t, strings.Contains(body, `<section class="tab active" id="tab-correlation">`))
	assert.Empty(t, w.Result().Cookies())
}

func TestApp_CookielessRequestsShareDefaultSession(t *testing.T) {
	dashboards := newDashboards(t, writeFixture(t))
	a, err := NewApp(dashboards, Config{ChartTopN: 5}, nil, quietLogger())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies())
	}
	assert.Equal(t, 1, dashboards.SessionCount())
}

func TestApp_NewSessionCookieIsReused(t *testing.T) {
	dashboards := newDashboards(t, writeFixture(t))
	a, err := NewApp(dashboards, Config{ChartTopN: 5}, nil, quietLogger())
	require.NoError(t, err)

	created := httptest.NewRecorder()
	a.ServeHTTP(created, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, http.StatusSeeOther, created.Code)
	cookie := sessionCookie(t, created)
	assert.True(t, dashboards.HasSession(cookie.Value))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	second := httptest.NewRecorder()
	a.ServeHTTP(second, req)

	require.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Result().Cookies())
	assert.Equal(t, 2, dashboards.SessionCount())
}

func TestApp_StaleCookieFallsBackToDefault(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: uimw.SessionCookie, Value: "0190a5d2-0000-7000-8000-000000000000"})
	w := httptest.NewRecorder()
	a.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestApp_Charts(t *testing.T) {
	a := newTestApp(t)

	for _, name := range []string{
		ChartGenderByCondition,
		ChartAgeDistribution,
		ChartAgeTrend,
		ChartBillingDensity,
		ChartBillingByHospital,
		ChartConditionCounts,
		ChartLengthOfStayTrend,
		ChartAgeVsBilling,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			a.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/charts/"+name+".png", nil))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))
		})
	}
}

func TestApp_ChartWithNoData(t *testing.T) {
	w := httptest.NewRecorder()
	newTestApp(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/charts/billing-density.png?gender=Nobody", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestApp_UnknownChart(t *testing.T) {
	w := httptest.NewRecorder()
	newTestApp(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/charts/pie.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_DashboardJSON(t *testing.T) {
	w := httptest.NewRecorder()
	newTestApp(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard?condition=Diabetes", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":3`)
}

func TestApp_Reload(t *testing.T) {
	w := httptest.NewRecorder()
	newTestApp(t).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
