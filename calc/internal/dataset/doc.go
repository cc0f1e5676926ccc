// Package dataset holds the per-patient registry extract the calculator runs
// over.
//
// A Table is a column-indexed, row-major grid of string cells. It is built
// once per run by a registry.Source and never mutated afterwards; callers that
// need a different shape (country duplication, comparison mode) copy the rows
// with Rows and build a new Table with New.
//
// Cell reads follow the zero-fill convention of the registry extract: an empty
// cell or a NaN reads as "0". Numeric cells are canonicalised so that "1",
// "1.0" and " 1 " compare equal as codes, while multi-select cells such as
// "1,3" keep their text form for substring matching.
//
// Required columns:
//
//	Protocol ID   site id, prefixed with the country code ("CZ_001")
//	Site Name     display name of the site
//	Country       country code, used for country rows and comparison mode
package dataset
