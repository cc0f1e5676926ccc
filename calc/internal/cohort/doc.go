// Package cohort derives named patient sub-populations from a dataset.Table.
//
// A Cohort is an immutable row mask: the ascending list of table rows that
// satisfy a Predicate. Cohorts overlap freely and are frequently derived from
// one another (the thrombolysed patients are a filter over the ischemic
// cohort), so Filter narrows an existing cohort rather than rescanning the
// table.
//
// Predicates are compiled against the table before any row is evaluated, so
// a predicate that names a column the extract does not carry fails with a
// *MissingColumnError before the run produces anything.
//
// Set keeps the cohorts of one run by name. The indicator plan defines them
// in order and later steps look them up with Get.
package cohort
