package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/strokestats/strokestats/pkg/types"
	"github.com/strokestats/strokestats/server/internal/alerts"
	"github.com/strokestats/strokestats/server/internal/store"
)

// AlertLister is the read side of the alert engine.
type AlertLister interface {
	Active() []*alerts.Alert
	Firing() int
}

// Options wires a Handler.
type Options struct {
	Store  *store.Store
	Alerts AlertLister // nil serves an empty alert list

	// Receiver handles POST /reports; nil leaves the route unregistered.
	Receiver http.Handler

	// Auth guards every route except /health; nil leaves them open.
	Auth func(http.Handler) http.Handler
}

// Handler is the HTTP handler for all /api/v1/* endpoints. Routes are
// relative; the server mounts the handler under /api/v1.
type Handler struct {
	store   *store.Store
	alerts  AlertLister
	started time.Time
	mux     *chi.Mux
}

// New creates a Handler and registers all routes.
func New(opts Options) *Handler {
	h := &Handler{store: opts.Store, alerts: opts.Alerts, started: time.Now(), mux: chi.NewRouter()}

	h.mux.Get("/health", h.health)
	h.mux.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Get("/reports", h.listReports)
		r.Get("/reports/{scope}", h.getReport)
		r.Get("/reports/{scope}/sites/{site}", h.getSite)
		r.Get("/awards", h.awards)
		r.Get("/alerts", h.listAlerts)
		if opts.Receiver != nil {
			r.Method(http.MethodPost, "/reports", opts.Receiver)
		}
	})
	h.mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, r, http.StatusNotFound, "not found")
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /health: store and alert counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	entries := h.store.List()
	resp := HealthResponse{
		Status:        "empty",
		Scopes:        len(entries),
		UptimeSeconds: time.Since(h.started).Seconds(),
	}
	var last time.Time
	for _, e := range entries {
		resp.Sites += len(e.Report.Sites)
		if e.UpdatedAt.After(last) {
			last = e.UpdatedAt
		}
	}
	if len(entries) > 0 {
		resp.Status = "ok"
		resp.LastReportAt = last.UTC().Format(time.RFC3339)
	}
	if h.alerts != nil {
		resp.FiringAlerts = h.alerts.Firing()
	}
	jsonResp(w, r, http.StatusOK, resp)
}

// listReports returns GET /reports: one summary per live scope.
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, r, http.StatusOK, BuildSummary(h.store))
}

// getReport returns GET /reports/{scope}: the full latest report.
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(chi.URLParam(r, "scope"))
	if !ok {
		jsonErr(w, r, http.StatusNotFound, "report not found")
		return
	}
	jsonResp(w, r, http.StatusOK, ReportResponse{
		ReceivedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
		Report:     e.Report,
	})
}

// getSite returns GET /reports/{scope}/sites/{site}: one site with its
// values keyed by column and the hints explaining its award.
func (h *Handler) getSite(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(chi.URLParam(r, "scope"))
	if !ok {
		jsonErr(w, r, http.StatusNotFound, "report not found")
		return
	}
	rep := e.Report
	site, ok := rep.Site(chi.URLParam(r, "site"))
	if !ok {
		jsonErr(w, r, http.StatusNotFound, "site not found")
		return
	}
	values := make(map[string]float64, len(rep.Columns))
	for i, c := range rep.Columns {
		values[c] = site.Values[i]
	}
	limits := site.Limits
	if limits == nil {
		limits = []types.Limit{}
	}
	jsonResp(w, r, http.StatusOK, SiteResponse{
		Scope:    rep.Scope,
		SiteID:   site.SiteID,
		SiteName: site.SiteName,
		Award:    site.Award,
		AwardOld: site.AwardOld,
		Values:   values,
		Limits:   limits,
		Hints:    siteHints(site, rep.PatientLimit),
	})
}

// awards returns GET /awards: tier counts and site awards per scope.
// ?scope= restricts to one scope, ?tier= keeps sites with that award.
func (h *Handler) awards(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	tier := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("tier")))
	if tier != "" {
		if _, ok := types.TierRank(tier); !ok {
			jsonErr(w, r, http.StatusBadRequest, "unknown tier "+tier)
			return
		}
	}

	out := make([]ScopeAwards, 0)
	for _, e := range h.store.List() {
		rep := e.Report
		if scope != "" && rep.Scope != scope {
			continue
		}
		sa := ScopeAwards{
			Scope:    rep.Scope,
			Award:    tierCounts(),
			AwardOld: tierCounts(),
			Sites:    make([]SiteAward, 0, len(rep.Sites)),
		}
		for _, s := range rep.Sites {
			sa.Award[strings.ToUpper(s.Award)]++
			sa.AwardOld[strings.ToUpper(s.AwardOld)]++
			if tier != "" && !strings.EqualFold(s.Award, tier) {
				continue
			}
			sa.Sites = append(sa.Sites, SiteAward{SiteID: s.SiteID, SiteName: s.SiteName, Award: s.Award, AwardOld: s.AwardOld})
		}
		out = append(out, sa)
	}
	jsonResp(w, r, http.StatusOK, out)
}

// listAlerts returns GET /alerts: firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	out := []*alerts.Alert{}
	if h.alerts != nil {
		out = append(out, h.alerts.Active()...)
	}
	jsonResp(w, r, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

// BuildSummary summarizes every live scope of st, sorted by scope.
func BuildSummary(st *store.Store) SummaryResponse {
	entries := st.List()
	out := SummaryResponse{
		Reports:     make([]ReportSummary, 0, len(entries)),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, e := range entries {
		out.Reports = append(out.Reports, summarize(e))
	}
	sort.Slice(out.Reports, func(i, j int) bool { return out.Reports[i].Scope < out.Reports[j].Scope })
	return out
}

func summarize(e *store.Entry) ReportSummary {
	rep := e.Report
	s := ReportSummary{
		Scope:        rep.Scope,
		RunID:        rep.RunID,
		CountryCode:  rep.CountryCode,
		CountryName:  rep.CountryName,
		GeneratedAt:  rep.GeneratedAt.UTC().Format(time.RFC3339),
		ReceivedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
		PatientLimit: rep.PatientLimit,
		Sites:        len(rep.Sites),
		Columns:      len(rep.Columns),
		Awards:       tierCounts(),
	}
	for _, site := range rep.Sites {
		s.Awards[strings.ToUpper(site.Award)]++
	}
	return s
}

// tierCounts returns a zeroed count per tier.
func tierCounts() map[string]int {
	m := make(map[string]int, len(types.Tiers))
	for _, t := range types.Tiers {
		m[t] = 0
	}
	return m
}

func jsonResp(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	render.Status(r, code)
	render.JSON(w, r, v)
}

func jsonErr(w http.ResponseWriter, r *http.Request, code int, msg string) {
	jsonResp(w, r, code, errorResponse{Error: msg})
}
