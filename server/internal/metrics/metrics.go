package metrics

import (
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strokestats/strokestats/pkg/types"
	"github.com/strokestats/strokestats/server/internal/store"
)

const namespace = "strokestats"

// Outcomes of a received report.
const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
)

var (
	indicatorDesc = prometheus.NewDesc(namespace+"_indicator",
		"Indicator value of a site in the latest report of a scope.",
		[]string{"scope", "site", "column"}, nil)
	awardDesc = prometheus.NewDesc(namespace+"_award_tier",
		"Award tier rank of a site (0 STROKEREADY, 1 GOLD, 2 PLATINUM, 3 DIAMOND).",
		[]string{"scope", "site", "strategy"}, nil)
	ageDesc = prometheus.NewDesc(namespace+"_report_age_seconds",
		"Seconds since the latest report of a scope was received.",
		[]string{"scope"}, nil)
	sitesDesc = prometheus.NewDesc(namespace+"_report_sites",
		"Number of sites in the latest report of a scope.",
		[]string{"scope"}, nil)
)

// Metrics owns the registry served on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	received     *prometheus.CounterVec
	alertsFired  prometheus.Counter
	wsBroadcasts prometheus.Counter
}

// New registers the store collector, the server counters and the Go runtime
// collectors on a fresh registry.
func New(st *store.Store) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_received_total",
			Help:      "Reports received, by outcome.",
		}, []string{"outcome"}),
		alertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fired_total",
			Help:      "Alerts fired by the rule engine.",
		}),
		wsBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_broadcasts_total",
			Help:      "Summary messages broadcast to WebSocket clients.",
		}),
	}
	m.registry.MustRegister(
		&storeCollector{store: st, now: time.Now},
		m.received,
		m.alertsFired,
		m.wsBroadcasts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Received counts a report by outcome.
func (m *Metrics) Received(outcome string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(outcome).Inc()
}

// AlertsFired adds n fired alerts.
func (m *Metrics) AlertsFired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.alertsFired.Add(float64(n))
}

// Broadcast counts one stream broadcast.
func (m *Metrics) Broadcast() {
	if m == nil {
		return
	}
	m.wsBroadcasts.Inc()
}

// storeCollector reads the store at scrape time.
type storeCollector struct {
	store *store.Store
	now   func() time.Time
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- indicatorDesc
	ch <- awardDesc
	ch <- ageDesc
	ch <- sitesDesc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	now := c.now()
	for _, e := range c.store.List() {
		r := e.Report
		ch <- prometheus.MustNewConstMetric(ageDesc, prometheus.GaugeValue, now.Sub(e.UpdatedAt).Seconds(), r.Scope)
		ch <- prometheus.MustNewConstMetric(sitesDesc, prometheus.GaugeValue, float64(len(r.Sites)), r.Scope)
		for _, s := range r.Sites {
			for i, col := range r.Columns {
				if i >= len(s.Values) || math.IsNaN(s.Values[i]) {
					continue
				}
				ch <- prometheus.MustNewConstMetric(indicatorDesc, prometheus.GaugeValue, s.Values[i], r.Scope, s.SiteID, col)
			}
			for strategy, name := range map[string]string{"new": s.Award, "old": s.AwardOld} {
				if rank, ok := types.TierRank(name); ok {
					ch <- prometheus.MustNewConstMetric(awardDesc, prometheus.GaugeValue, float64(rank), r.Scope, s.SiteID, strategy)
				}
			}
		}
	}
}
