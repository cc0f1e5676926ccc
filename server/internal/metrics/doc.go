// Package metrics exposes the report store and server counters in the
// Prometheus exposition format on a dedicated registry.
//
// Gauges are produced at scrape time from the store:
//   - strokestats_indicator{scope,site,column}
//   - strokestats_award_tier{scope,site,strategy}  (0 STROKEREADY .. 3 DIAMOND)
//   - strokestats_report_age_seconds{scope}
//   - strokestats_report_sites{scope}
//
// Counters are incremented by the receiver and the alert engine.
package metrics
