package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strokestats/strokestats/pkg/types"
	"github.com/strokestats/strokestats/server/internal/alerts"
	"github.com/strokestats/strokestats/server/internal/api"
	"github.com/strokestats/strokestats/server/internal/auth"
	"github.com/strokestats/strokestats/server/internal/config"
	"github.com/strokestats/strokestats/server/internal/receiver"
	"github.com/strokestats/strokestats/server/internal/store"
)

const colCT = "% suspected stroke patients undergoing CT/MRI"

// --- test helpers -----------------------------------------------------------

func ptr(v float64) *float64 { return &v }

func czReport() *types.Report {
	return &types.Report{
		RunID:        "run-cz",
		Scope:        "cz",
		GeneratedAt:  time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC),
		CountryCode:  "CZ",
		CountryName:  "Czechia",
		PatientLimit: 30,
		Columns:      []string{"Total Patients", colCT},
		Sites: []types.SiteRow{
			{SiteID: "CZ", SiteName: "Czechia", Values: []float64{90, 88}, Award: "PLATINUM", AwardOld: "PLATINUM",
				Limits: []types.Limit{{Metric: "ct_mri", Column: colCT, Value: ptr(88), Tier: "PLATINUM"}}},
			{SiteID: "CZ_1", SiteName: "Brno", Values: []float64{70, 95}, Award: "DIAMOND", AwardOld: "DIAMOND"},
			{SiteID: "CZ_2", SiteName: "Praha", Values: []float64{20, 60}, Award: "STROKEREADY", AwardOld: "STROKEREADY",
				Limits: []types.Limit{{Metric: "patients", Column: "Total Patients", Value: ptr(20), Tier: "STROKEREADY"}}},
		},
	}
}

func newStore(reports ...*types.Report) *store.Store {
	st := store.New(0, 0)
	for _, r := range reports {
		st.Put(r)
	}
	return st
}

// router mounts h under /api/v1 like the server does.
func router(h http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api/v1", h)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v), "body: %s", rr.Body.String())
}

// --- health -------------------------------------------------------------------

func TestHealth_EmptyStore(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore()}))
	rr := get(t, h, "/api/v1/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.HealthResponse
	decode(t, rr, &resp)
	assert.Equal(t, "empty", resp.Status)
	assert.Zero(t, resp.Scopes)
	assert.Empty(t, resp.LastReportAt)
}

func TestHealth_WithReports(t *testing.T) {
	sk := czReport()
	sk.Scope = "sk"
	h := router(api.New(api.Options{Store: newStore(czReport(), sk)}))

	var resp api.HealthResponse
	decode(t, get(t, h, "/api/v1/health"), &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Scopes)
	assert.Equal(t, 6, resp.Sites)
	assert.NotEmpty(t, resp.LastReportAt)
}

func TestMethodNotAllowed(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore()}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// --- reports ------------------------------------------------------------------

func TestListReports(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore(czReport())}))
	rr := get(t, h, "/api/v1/reports")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.SummaryResponse
	decode(t, rr, &resp)
	require.Len(t, resp.Reports, 1)
	s := resp.Reports[0]
	assert.Equal(t, "cz", s.Scope)
	assert.Equal(t, "Czechia", s.CountryName)
	assert.Equal(t, 3, s.Sites)
	assert.Equal(t, 2, s.Columns)
	assert.Equal(t, map[string]int{"STROKEREADY": 1, "GOLD": 0, "PLATINUM": 1, "DIAMOND": 1}, s.Awards)
}

func TestListReports_EmptyIsArray(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore()}))
	rr := get(t, h, "/api/v1/reports")
	assert.Contains(t, rr.Body.String(), `"reports":[]`)
}

func TestGetReport(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore(czReport())}))

	rr := get(t, h, "/api/v1/reports/cz")
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		ReceivedAt string `json:"received_at"`
		types.Report
	}
	decode(t, rr, &got)
	assert.Equal(t, "run-cz", got.RunID)
	assert.NotEmpty(t, got.ReceivedAt)
	v, ok := got.Value("CZ_1", colCT)
	assert.True(t, ok)
	assert.Equal(t, 95.0, v)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/reports/sk").Code)
}

func TestGetSite(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore(czReport())}))

	rr := get(t, h, "/api/v1/reports/cz/sites/CZ_2")
	require.Equal(t, http.StatusOK, rr.Code)
	var site api.SiteResponse
	decode(t, rr, &site)
	assert.Equal(t, "Praha", site.SiteName)
	assert.Equal(t, 60.0, site.Values[colCT])
	require.Len(t, site.Hints, 1)
	assert.Equal(t, "critical", site.Hints[0].Level)
	assert.Contains(t, site.Hints[0].Detail, "fewer than 30 patients")

	var diamond api.SiteResponse
	decode(t, get(t, h, "/api/v1/reports/cz/sites/CZ_1"), &diamond)
	assert.Empty(t, diamond.Limits)
	require.Len(t, diamond.Hints, 1)
	assert.Equal(t, "ok", diamond.Hints[0].Level)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/reports/cz/sites/CZ_9").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v1/reports/sk/sites/CZ_1").Code)
}

// --- awards -------------------------------------------------------------------

func TestAwards(t *testing.T) {
	sk := czReport()
	sk.Scope = "sk"
	h := router(api.New(api.Options{Store: newStore(czReport(), sk)}))

	var all []api.ScopeAwards
	decode(t, get(t, h, "/api/v1/awards"), &all)
	require.Len(t, all, 2)
	assert.Equal(t, "cz", all[0].Scope)
	assert.Equal(t, 1, all[0].Award["DIAMOND"])
	assert.Len(t, all[0].Sites, 3)

	var filtered []api.ScopeAwards
	decode(t, get(t, h, "/api/v1/awards?scope=cz&tier=diamond"), &filtered)
	require.Len(t, filtered, 1)
	require.Len(t, filtered[0].Sites, 1)
	assert.Equal(t, "CZ_1", filtered[0].Sites[0].SiteID)
	// Counts still cover every site of the scope.
	assert.Equal(t, 1, filtered[0].Award["STROKEREADY"])

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/v1/awards?tier=bronze").Code)
}

// --- alerts -------------------------------------------------------------------

func TestAlerts_EmptyArray(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore()}))
	rr := get(t, h, "/api/v1/alerts")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestAlerts_FromEngine(t *testing.T) {
	eng, err := alerts.New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "low-ct", Column: colCT, Condition: "< 80"},
	}})
	require.NoError(t, err)
	eng.Evaluate(czReport())

	h := router(api.New(api.Options{Store: newStore(), Alerts: eng}))
	var got []alerts.Alert
	decode(t, get(t, h, "/api/v1/alerts"), &got)
	require.Len(t, got, 1)
	assert.Equal(t, "CZ_2", got[0].SiteID)

	var health api.HealthResponse
	decode(t, get(t, h, "/api/v1/health"), &health)
	assert.Equal(t, 1, health.FiringAlerts)
}

// --- publish and auth ---------------------------------------------------------

func TestPublishThenRead_WithAuth(t *testing.T) {
	st := newStore()
	h := router(api.New(api.Options{
		Store:    st,
		Receiver: receiver.New(st, nil, nil),
		Auth:     auth.APIKey("apikey", "X-API-Key", "secret"),
	}))

	body, err := json.Marshal(czReport())
	require.NoError(t, err)

	post := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(string(body)))
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusUnauthorized, post(""))
	assert.Equal(t, http.StatusUnauthorized, post("wrong"))
	assert.Equal(t, http.StatusAccepted, post("secret"))

	// Reads need the key too; health does not.
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/v1/reports/cz").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/health").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/cz", nil)
	req.Header.Set("X-API-Key", "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContentTypeJSON(t *testing.T) {
	h := router(api.New(api.Options{Store: newStore(czReport())}))
	for _, path := range []string{"/api/v1/health", "/api/v1/reports", "/api/v1/reports/cz", "/api/v1/awards", "/api/v1/alerts", "/api/v1/nope"} {
		rr := get(t, h, path)
		assert.Contains(t, rr.Header().Get("Content-Type"), "application/json", path)
	}
}
