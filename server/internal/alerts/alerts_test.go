package alerts

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/strokestats/strokestats/pkg/types"
	"github.com/strokestats/strokestats/server/internal/config"
)

const colCT = "% suspected stroke patients undergoing CT/MRI"

func report(scope string, sites ...types.SiteRow) *types.Report {
	return &types.Report{Scope: scope, Columns: []string{"Total Patients", colCT}, Sites: sites}
}

func site(id string, ct float64, award string) types.SiteRow {
	return types.SiteRow{SiteID: id, Values: []float64{40, ct}, Award: award, AwardOld: award}
}

func newEngine(t *testing.T, rules ...config.AlertRule) *Engine {
	t.Helper()
	e, err := New(config.AlertsConfig{Rules: rules})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// --- conditions ------------------------------------------------------------

func TestParseCondition(t *testing.T) {
	tests := []struct {
		column, cond string
		wantErr      bool
	}{
		{colCT, "< 80", false},
		{colCT, ">= 12.5", false},
		{colCT, "!= 0", false},
		{ColumnAward, "< GOLD", false},
		{ColumnAwardOld, "== diamond", false},
		{colCT, "< GOLD", true},
		{ColumnAward, "< 2", true},
		{colCT, "~ 80", true},
		{colCT, "80", true},
		{colCT, "ct < 80", true},
	}
	for _, tc := range tests {
		_, err := parseCondition(tc.column, tc.cond)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseCondition(%q, %q): err = %v, wantErr %v", tc.column, tc.cond, err, tc.wantErr)
		}
	}
}

func TestConditionEval(t *testing.T) {
	rep := report("cz", site("CZ_1", 75, "GOLD"))
	s := &rep.Sites[0]
	tests := []struct {
		column, cond string
		fires, ok    bool
		value        float64
	}{
		{colCT, "< 80", true, true, 75},
		{colCT, "< 75", false, true, 75},
		{colCT, "<= 75", true, true, 75},
		{ColumnAward, "< PLATINUM", true, true, 1},
		{ColumnAward, "< GOLD", false, true, 1},
		{ColumnAwardOld, "== GOLD", true, true, 1},
		{"absent column", "< 80", false, false, 0},
	}
	for _, tc := range tests {
		c, err := parseCondition(tc.column, tc.cond)
		if err != nil {
			t.Fatal(err)
		}
		fires, v, ok := c.eval(rep, s)
		if fires != tc.fires || ok != tc.ok || v != tc.value {
			t.Errorf("%s %s: got (%v, %v, %v), want (%v, %v, %v)", tc.column, tc.cond, fires, v, ok, tc.fires, tc.value, tc.ok)
		}
	}
}

func TestCompareFloat_NaN(t *testing.T) {
	for _, op := range []string{"<", "<=", ">", ">=", "==", "!="} {
		if compareFloat(math.NaN(), op, 1) {
			t.Errorf("NaN %s 1 fired", op)
		}
	}
}

// --- engine ------------------------------------------------------------------

func TestEngine_FireAndResolve(t *testing.T) {
	e := newEngine(t, config.AlertRule{Name: "low-ct", Column: colCT, Condition: "< 80"})

	if n := e.Evaluate(report("cz", site("CZ_1", 70, "GOLD"), site("CZ_2", 95, "DIAMOND"))); n != 1 {
		t.Fatalf("fired %d, want 1", n)
	}
	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d, want 1", len(active))
	}
	a := active[0]
	if a.SiteID != "CZ_1" || a.Scope != "cz" || a.State != StateFiring || a.Value != 70 || a.Severity != "warning" {
		t.Errorf("alert: %+v", a)
	}
	if !strings.Contains(a.Message, "cz/CZ_1") || a.ID == "" {
		t.Errorf("message/id: %q %q", a.Message, a.ID)
	}

	// Still below: no second fire.
	if n := e.Evaluate(report("cz", site("CZ_1", 60, "GOLD"))); n != 0 {
		t.Errorf("re-fired while active: %d", n)
	}

	// Recovered: resolved and kept in history.
	e.Evaluate(report("cz", site("CZ_1", 85, "GOLD")))
	if e.Firing() != 0 {
		t.Errorf("Firing after recovery: %d", e.Firing())
	}
	active = e.Active()
	if len(active) != 1 || active[0].State != StateResolved || active[0].ResolvedAt == nil {
		t.Errorf("after recovery: %+v", active)
	}
}

func TestEngine_Cooldown(t *testing.T) {
	base := time.Now()
	e := newEngine(t, config.AlertRule{Name: "low-ct", Column: colCT, Condition: "< 80", Cooldown: time.Hour})
	e.now = func() time.Time { return base }

	e.Evaluate(report("cz", site("CZ_1", 70, "GOLD")))
	e.Evaluate(report("cz", site("CZ_1", 90, "GOLD"))) // resolve

	e.now = func() time.Time { return base.Add(30 * time.Minute) }
	if n := e.Evaluate(report("cz", site("CZ_1", 70, "GOLD"))); n != 0 {
		t.Errorf("fired inside cooldown: %d", n)
	}
	e.now = func() time.Time { return base.Add(2 * time.Hour) }
	if n := e.Evaluate(report("cz", site("CZ_1", 70, "GOLD"))); n != 1 {
		t.Errorf("fired after cooldown: %d, want 1", n)
	}
}

func TestEngine_SiteLeavesScope(t *testing.T) {
	e := newEngine(t, config.AlertRule{Name: "lost-award", Column: ColumnAward, Condition: "< GOLD", Severity: "critical"})

	e.Evaluate(report("cz", site("CZ_1", 90, "STROKEREADY")))
	// Another scope does not touch cz alerts.
	e.Evaluate(report("sk", site("SK_1", 90, "DIAMOND")))
	if e.Firing() != 1 {
		t.Fatalf("Firing: %d, want 1", e.Firing())
	}
	a := e.Active()[0]
	if a.Tier != "STROKEREADY" || a.Severity != "critical" {
		t.Errorf("award alert: %+v", a)
	}

	e.Evaluate(report("cz", site("CZ_2", 90, "DIAMOND")))
	if e.Firing() != 0 {
		t.Errorf("alert of a departed site still firing")
	}
}

func TestEngine_ScopeNamesWithColons(t *testing.T) {
	e := newEngine(t, config.AlertRule{Name: "low", Column: colCT, Condition: "< 80"})

	e.Evaluate(report("cz:north", site("S", 70, "GOLD")))
	// Scope "cz" shares the text prefix "low:cz:" with the cz:north alert.
	e.Evaluate(report("cz", site("T", 90, "GOLD")))
	if e.Firing() != 1 {
		t.Fatalf("Firing: %d, want 1", e.Firing())
	}
	if a := e.Active()[0]; a.Scope != "cz:north" || a.State != StateFiring {
		t.Errorf("alert: %+v", a)
	}
}

func TestEngine_NoRules(t *testing.T) {
	e := newEngine(t)
	if n := e.Evaluate(report("cz", site("CZ_1", 0, "STROKEREADY"))); n != 0 {
		t.Errorf("fired %d without rules", n)
	}
}

func TestNew_InvalidCondition(t *testing.T) {
	_, err := New(config.AlertsConfig{Rules: []config.AlertRule{{Name: "x", Column: colCT, Condition: "< GOLD"}}})
	if err == nil {
		t.Fatal("expected error for tier threshold on an indicator column")
	}
}

// --- webhooks ------------------------------------------------------------------

func TestWebhook_Delivery(t *testing.T) {
	bodies := make(chan map[string]any, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		bodies <- m
	}))
	defer srv.Close()

	t.Setenv("TEST_SLACK_URL", srv.URL)
	t.Setenv("TEST_HTTP_URL", srv.URL)
	e, err := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "low-ct", Column: colCT, Condition: "< 80"}},
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "TEST_SLACK_URL"},
			{Type: "http", URLEnv: "TEST_HTTP_URL"},
			{Type: "teams", URLEnv: "TEST_UNSET_URL"}, // skipped: no URL
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	e.Evaluate(report("cz", site("CZ_1", 70, "GOLD")))
	e.Wait()

	if len(bodies) != 2 {
		t.Fatalf("deliveries: got %d, want 2", len(bodies))
	}
	slack := <-bodies
	if text, _ := slack["text"].(string); !strings.Contains(text, "[WARNING]") {
		t.Errorf("slack payload: %v", slack)
	}
	if text, _ := slack["text"].(string); !strings.Contains(text, "CZ_1") || !strings.Contains(text, "70.00") {
		t.Errorf("slack text: %v", slack)
	}
	generic := <-bodies
	if generic["event"] != "alert.firing" || generic["site_id"] != "CZ_1" || generic["column"] != colCT || generic["value"] != 70.0 {
		t.Errorf("http payload: %v", generic)
	}
	if _, ok := generic["tier"]; ok {
		t.Errorf("http payload carries a tier for an indicator rule: %v", generic)
	}
}

func TestWebhook_Payloads(t *testing.T) {
	fired := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	resolved := fired.Add(time.Hour)
	award := &Alert{
		RuleName: "lost-award", Scope: "cz", SiteID: "CZ_7", Column: ColumnAward,
		Severity: "critical", Value: 0, Tier: "STROKEREADY", FiredAt: fired, State: StateFiring,
	}

	ev := newEvent(award)
	if ev.Value != nil || ev.Tier != "STROKEREADY" || ev.reading() != "STROKEREADY" {
		t.Errorf("award event: %+v", ev)
	}

	card := teamsPayload(ev).(map[string]any)
	if card["themeColor"] != "C62828" || !strings.Contains(card["title"].(string), "(firing)") {
		t.Errorf("teams card: %v", card)
	}
	facts := card["sections"].([]map[string]any)[0]["facts"].([]map[string]string)
	got := map[string]string{}
	for _, f := range facts {
		got[f["name"]] = f["value"]
	}
	if got["Site"] != "CZ_7" || got["Indicator"] != ColumnAward || got["Value"] != "STROKEREADY" {
		t.Errorf("teams facts: %v", got)
	}

	award.State, award.ResolvedAt = StateResolved, &resolved
	ev = newEvent(award)
	if !ev.resolved() || ev.Kind != "alert.resolved" || ev.ResolvedAt == nil {
		t.Errorf("resolved event: %+v", ev)
	}
	if text := slackPayload(ev).(map[string]string)["text"]; !strings.HasPrefix(text, "*[RESOLVED]*") || !strings.Contains(text, "CZ_7") {
		t.Errorf("slack resolved text: %q", text)
	}
	if card := teamsPayload(ev).(map[string]any); card["themeColor"] != "2E7D32" {
		t.Errorf("teams resolved color: %v", card["themeColor"])
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := newEngine(t)
	if err := e.post(srv.URL, []byte(`{}`)); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}
