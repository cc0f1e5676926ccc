package receiver

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"sync"

	"github.com/go-chi/render"

	"github.com/strokestats/strokestats/pkg/types"
	"github.com/strokestats/strokestats/server/internal/metrics"
	"github.com/strokestats/strokestats/server/internal/store"
)

// MaxBodyBytes bounds one published report.
const MaxBodyBytes = 32 << 20

// Evaluator runs alert rules over an accepted report and returns the
// number of alerts fired.
type Evaluator interface {
	Evaluate(r *types.Report) int
}

// Ack is the response to an accepted report.
type Ack struct {
	Scope       string `json:"scope"`
	RunID       string `json:"run_id"`
	Sites       int    `json:"sites"`
	AlertsFired int    `json:"alerts_fired"`
	Evicted     string `json:"evicted,omitempty"`
}

// Receiver is the POST /api/v1/reports handler. It validates each incoming
// report, stores it, evaluates alerts and notifies listeners.
type Receiver struct {
	store   *store.Store
	alerts  Evaluator
	metrics *metrics.Metrics

	mu        sync.RWMutex
	listeners []func(*types.Report)
}

// New creates a Receiver that writes accepted reports to st. ev and m may
// be nil; a nil pointer held in ev counts as no evaluator.
func New(st *store.Store, ev Evaluator, m *metrics.Metrics) *Receiver {
	if isNil(ev) {
		ev = nil
	}
	return &Receiver{store: st, alerts: ev, metrics: m}
}

func isNil(ev Evaluator) bool {
	if ev == nil {
		return true
	}
	v := reflect.ValueOf(ev)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// OnAccept registers fn to run after every accepted report.
func (rc *Receiver) OnAccept(fn func(*types.Report)) {
	rc.mu.Lock()
	rc.listeners = append(rc.listeners, fn)
	rc.mu.Unlock()
}

// ServeHTTP decodes and accepts one report. Authentication is enforced by
// the router middleware before this is called.
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var rep types.Report
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, MaxBodyBytes), &rep); err != nil {
		rc.metrics.Received(metrics.OutcomeInvalid)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		reject(w, r, status, "decode report: "+err.Error())
		return
	}
	if err := rep.Validate(); err != nil {
		rc.metrics.Received(metrics.OutcomeInvalid)
		reject(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ack := Ack{Scope: rep.Scope, RunID: rep.RunID, Sites: len(rep.Sites)}
	ack.Evicted = rc.store.Put(&rep)
	if ack.Evicted != "" {
		slog.Warn("receiver: scope cap reached, evicted oldest scope", "evicted", ack.Evicted, "scope", rep.Scope)
	}
	if rc.alerts != nil {
		ack.AlertsFired = rc.alerts.Evaluate(&rep)
		rc.metrics.AlertsFired(ack.AlertsFired)
	}
	rc.metrics.Received(metrics.OutcomeAccepted)

	rc.mu.RLock()
	for _, fn := range rc.listeners {
		fn(&rep)
	}
	rc.mu.RUnlock()

	slog.Info("receiver: report stored",
		"scope", rep.Scope,
		"run_id", rep.RunID,
		"sites", len(rep.Sites),
		"columns", len(rep.Columns),
		"alerts_fired", ack.AlertsFired,
	)

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, ack)
}

func reject(w http.ResponseWriter, r *http.Request, status int, msg string) {
	slog.Warn("receiver: report rejected", "status", status, "err", msg)
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
