// Package registry loads the per-patient registry extract into a
// dataset.Table.
//
// Sources:
//   - csv: a comma separated file with a header row (CSV)
//   - sqlite, postgres: one table read through gorm (SQL)
//
// Open(SourceConfig) picks the source by type; unknown types fail with
// ErrUnknownSource. Every cell is carried as text: the calculator applies its
// own zero-fill and numeric canonicalisation, so the source never coerces.
//
// Filter narrows a loaded table to one country (site ids prefixed with
// "<code>_") and an inclusive date range on the discharge date, the hospital
// date, or either of the two. Rows whose date does not parse never match a
// range.
//
// CTTimeCategory derives the door to CT category (1 within an hour, 2 later)
// from two clock times, for extracts that carry the times instead of the
// CT_TIME code.
package registry
