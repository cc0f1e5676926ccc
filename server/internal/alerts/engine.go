package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strokestats/strokestats/pkg/types"
	"github.com/strokestats/strokestats/server/internal/config"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = 24 * time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Scope      string     `json:"scope"`
	SiteID     string     `json:"site_id"`
	Column     string     `json:"column"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	Tier       string     `json:"tier,omitempty"` // award rules only
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// alertKey identifies the alert of one rule on one site of a scope.
type alertKey struct {
	rule, scope, site string
}

type rule struct {
	config.AlertRule
	cond condition
}

// Engine evaluates alert rules against incoming reports and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []rule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[alertKey]*Alert
	lastFire map[alertKey]time.Time // for cooldown
	history  []*Alert               // recently resolved alerts
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup // in-flight deliveries
}

// New creates an Engine from the server alert configuration.
// An Engine with no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) (*Engine, error) {
	e := &Engine{
		webhooks: cfg.Webhooks,
		active:   make(map[alertKey]*Alert),
		lastFire: make(map[alertKey]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	for _, r := range cfg.Rules {
		c, err := parseCondition(r.Column, r.Condition)
		if err != nil {
			return nil, fmt.Errorf("alerts: rule %q: %w", r.Name, err)
		}
		if r.Cooldown <= 0 {
			r.Cooldown = defaultCooldown
		}
		if r.Severity == "" {
			r.Severity = "warning"
		}
		e.rules = append(e.rules, rule{AlertRule: r, cond: c})
	}
	return e, nil
}

// Evaluate tests all configured rules against every site of rep. Alerts
// that fire are stored and webhook delivery is triggered asynchronously.
// Alerts of the scope whose condition no longer holds, or whose site is
// gone from the report, are resolved. It returns the number of alerts fired.
func (e *Engine) Evaluate(rep *types.Report) int {
	if len(e.rules) == 0 {
		return 0
	}

	now := e.now()
	var out []*Alert
	fired := 0

	e.mu.Lock()
	for _, r := range e.rules {
		seen := make(map[alertKey]bool, len(rep.Sites))

		for i := range rep.Sites {
			site := &rep.Sites[i]
			key := alertKey{rule: r.Name, scope: rep.Scope, site: site.SiteID}
			fires, value, ok := r.cond.eval(rep, site)
			seen[key] = ok && fires

			if !seen[key] {
				continue
			}
			if _, firing := e.active[key]; firing || now.Sub(e.lastFire[key]) <= r.Cooldown {
				continue
			}
			a := e.fire(r, rep.Scope, site.SiteID, value, now)
			e.active[key] = a
			e.lastFire[key] = now
			fired++
			cp := *a
			out = append(out, &cp)
		}

		for key, a := range e.active {
			if key.rule == r.Name && key.scope == rep.Scope && !seen[key] {
				e.resolve(key, a, now)
				cp := *a
				out = append(out, &cp)
			}
		}
	}
	e.mu.Unlock()

	for _, a := range out {
		if a.State == StateFiring {
			slog.Warn("alerts: alert fired",
				"rule", a.RuleName,
				"scope", a.Scope,
				"site", a.SiteID,
				"value", a.Value,
				"severity", a.Severity,
			)
		} else {
			slog.Info("alerts: alert resolved", "rule", a.RuleName, "scope", a.Scope, "site", a.SiteID)
		}
		e.wg.Add(1)
		go func(a *Alert) {
			defer e.wg.Done()
			e.deliver(a)
		}(a)
	}
	return fired
}

// fire builds a firing alert. e.mu must be held.
func (e *Engine) fire(r rule, scope, site string, value float64, now time.Time) *Alert {
	a := &Alert{
		ID:       uuid.NewString(),
		RuleName: r.Name,
		Scope:    scope,
		SiteID:   site,
		Column:   r.Column,
		Severity: r.Severity,
		Value:    value,
		FiredAt:  now,
		State:    StateFiring,
	}
	shown := fmt.Sprintf("%.2f", value)
	if r.cond.tier != "" {
		a.Tier = types.Tiers[int(value)]
		shown = a.Tier
	}
	a.Message = fmt.Sprintf("[%s] %s fired on %s/%s: %s (value %s)",
		r.Severity, r.Name, scope, site, r.cond, shown)
	return a
}

// resolve moves the alert under key to the history. e.mu must be held.
func (e *Engine) resolve(key alertKey, a *Alert, now time.Time) {
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past day, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FiredAt.Equal(out[j].FiredAt) {
			return out[i].FiredAt.After(out[j].FiredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Firing returns the number of alerts currently firing.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Wait blocks until in-flight webhook deliveries finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}
