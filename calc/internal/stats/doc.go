// Package stats runs one full calculation: it prepares the registry table,
// runs the country variant's indicator plan, classifies both awards and
// assembles the per-site Report.
//
// Compute is the only entry point. It is synchronous and recomputes
// everything from the input table on every call.
package stats
