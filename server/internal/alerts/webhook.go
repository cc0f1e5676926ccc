package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// event is the site-level view of an alert every webhook payload is built
// from.
type event struct {
	Kind       string     `json:"event"` // alert.firing | alert.resolved
	Rule       string     `json:"rule"`
	Severity   string     `json:"severity"`
	Scope      string     `json:"scope"`
	SiteID     string     `json:"site_id"`
	Column     string     `json:"column"`
	Value      *float64   `json:"value,omitempty"`
	Tier       string     `json:"tier,omitempty"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func newEvent(a *Alert) event {
	ev := event{
		Kind:       "alert." + a.State,
		Rule:       a.RuleName,
		Severity:   a.Severity,
		Scope:      a.Scope,
		SiteID:     a.SiteID,
		Column:     a.Column,
		Tier:       a.Tier,
		FiredAt:    a.FiredAt,
		ResolvedAt: a.ResolvedAt,
	}
	if a.Tier == "" {
		v := a.Value
		ev.Value = &v
	}
	return ev
}

// reading is the triggering value as shown to people: the tier for award
// rules, the indicator value otherwise.
func (ev event) reading() string {
	if ev.Tier != "" {
		return ev.Tier
	}
	if ev.Value == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *ev.Value)
}

func (ev event) resolved() bool { return ev.Kind == "alert."+StateResolved }

// payloads renders an event for each webhook type.
var payloads = map[string]func(event) any{
	"slack": slackPayload,
	"teams": teamsPayload,
	"http":  func(ev event) any { return ev },
}

func slackPayload(ev event) any {
	text := fmt.Sprintf("*%s* %s: site %s in %s, %s = %s",
		severityLabel(ev.Severity), ev.Rule, ev.SiteID, ev.Scope, ev.Column, ev.reading())
	if ev.resolved() {
		text = fmt.Sprintf("*[RESOLVED]* %s: site %s in %s, %s", ev.Rule, ev.SiteID, ev.Scope, ev.Column)
	}
	return map[string]string{"text": text}
}

func teamsPayload(ev event) any {
	state := "firing"
	color := severityColor(ev.Severity)
	if ev.resolved() {
		state, color = "resolved", "2E7D32"
	}
	facts := []map[string]string{
		{"name": "Scope", "value": ev.Scope},
		{"name": "Site", "value": ev.SiteID},
		{"name": "Indicator", "value": ev.Column},
		{"name": "Value", "value": ev.reading()},
		{"name": "Severity", "value": ev.Severity},
	}
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": color,
		"summary":    ev.Rule,
		"title":      fmt.Sprintf("Stroke registry alert: %s (%s)", ev.Rule, state),
		"sections":   []map[string]any{{"facts": facts}},
	}
}

// deliver sends a to all configured webhooks. Failures are logged.
func (e *Engine) deliver(a *Alert) {
	ev := newEvent(a)
	for _, wh := range e.webhooks {
		url := wh.URL()
		render, ok := payloads[wh.Type]
		if url == "" || !ok {
			continue
		}
		body, err := json.Marshal(render(ev))
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed", "type", wh.Type, "rule", a.RuleName, "site", a.SiteID, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "event", ev.Kind)
	}
}

func (e *Engine) post(url string, body []byte) error {
	resp, err := e.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	}
	return "[INFO]"
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "C62828"
	case "warning":
		return "F9A825"
	}
	return "1565C0"
}
