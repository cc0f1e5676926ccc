// Package indicator turns a per-patient table into the per-site indicator
// table.
//
// result.go holds the Result accumulator: one row per distinct site id in
// first-seen order and an ordered list of named float columns. Columns are
// written once and read by name; some are hidden helpers (legacy counts,
// eligibility corrections) that later percentages depend on but that never
// reach the output.
//
// engine.go provides the generic operation, ComputeIndicator, along with the
// tally, median and normalisation primitives the plan steps are built from.
// Every percentage is round(100*count/denominator, 2) and is 0 whenever the
// denominator is not positive.
//
// step.go defines the plan steps. Each step declares the result columns and
// cohorts it reads and writes, so plan.go can check a whole plan statically
// before the first step runs: a step that reads a column nobody produced yet
// is a configuration error, not a zero.
//
// vocabulary_*.go spell out the indicator vocabulary group by group. Column
// names are the public contract of the output and are kept verbatim.
//
// variant.go is the per-country table. The Czech registry computes
// recanalisation from treatment flags, counts dysphagia and atrial
// fibrillation over its own referral definition and narrows some discharge
// denominators; every other country uses the default variant. The variant is
// selected once per run and read by the vocabulary builders.
package indicator
