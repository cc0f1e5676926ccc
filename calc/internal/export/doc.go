// Package export encodes a published report for files and stdout.
//
// Formats:
//   - csv: one row per site; "Site ID", "Site Name", the indicator columns in
//     plan order, then "Proposed Award" and "Proposed Award (old calculation)"
//   - json: the pkg/types.Report wire form, indented
//   - prom: Prometheus text exposition with one strokestats_indicator gauge
//     per site and column and one strokestats_award_tier gauge per site and
//     strategy (0 STROKEREADY up to 3 DIAMOND)
//
// Encoding is deterministic: the same report always yields the same bytes.
package export
