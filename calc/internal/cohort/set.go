package cohort

import (
	"fmt"

	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// Set holds the cohorts of one run by name.
type Set struct {
	table  *dataset.Table
	byName map[string]*Cohort
	order  []string
}

// NewSet returns an empty Set over t.
func NewSet(t *dataset.Table) *Set {
	return &Set{table: t, byName: make(map[string]*Cohort)}
}

// Table returns the table the set's cohorts select from.
func (s *Set) Table() *dataset.Table { return s.table }

// Define builds a cohort over the whole table and registers it.
func (s *Set) Define(name string, p Predicate) (*Cohort, error) {
	if err := s.free(name); err != nil {
		return nil, err
	}
	c, err := Build(s.table, name, p)
	if err != nil {
		return nil, err
	}
	s.put(c)
	return c, nil
}

// Derive filters the registered cohort parent and registers the result.
func (s *Set) Derive(name, parent string, p Predicate) (*Cohort, error) {
	if err := s.free(name); err != nil {
		return nil, err
	}
	base, err := s.Get(parent)
	if err != nil {
		return nil, err
	}
	c, err := base.Filter(name, p)
	if err != nil {
		return nil, err
	}
	s.put(c)
	return c, nil
}

// Alias registers the rows of an existing cohort under another name.
func (s *Set) Alias(name, existing string) (*Cohort, error) {
	if err := s.free(name); err != nil {
		return nil, err
	}
	base, err := s.Get(existing)
	if err != nil {
		return nil, err
	}
	c := base.renamed(name)
	s.put(c)
	return c, nil
}

// Add registers a cohort built elsewhere, typically with Build or Filter.
func (s *Set) Add(c *Cohort) error {
	if err := s.free(c.name); err != nil {
		return err
	}
	s.put(c)
	return nil
}

// Get returns the cohort registered under name.
func (s *Set) Get(name string) (*Cohort, error) {
	c, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("cohort: %q: %w", name, ErrUnknownCohort)
	}
	return c, nil
}

// Names returns the registered names in definition order.
func (s *Set) Names() []string { return append([]string(nil), s.order...) }

func (s *Set) free(name string) error {
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("cohort: %q: %w", name, ErrDuplicateCohort)
	}
	return nil
}

func (s *Set) put(c *Cohort) {
	s.byName[c.name] = c
	s.order = append(s.order, c.name)
}
