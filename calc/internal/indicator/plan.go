package indicator

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnsatisfiedInput is wrapped by every *UnsatisfiedInputError.
var ErrUnsatisfiedInput = errors.New("unsatisfied input")

// UnsatisfiedInputError reports a step that reads a column or cohort no
// earlier step produced.
type UnsatisfiedInputError struct {
	Plan  string
	Step  int
	Kind  string // "column" or "cohort"
	Input string
}

func (e *UnsatisfiedInputError) Error() string {
	return fmt.Sprintf("indicator: plan %s: step %d reads %s %q before it is produced", e.Plan, e.Step, e.Kind, e.Input)
}

func (e *UnsatisfiedInputError) Unwrap() error { return ErrUnsatisfiedInput }

// Plan is an ordered list of steps producing one indicator table.
type Plan struct {
	Name  string
	Steps []Step
}

// Validate checks that every step reads only base columns or columns and
// cohorts written by an earlier step.
func (p Plan) Validate() error {
	cols := map[string]bool{ColTotalPatients: true, ColMedianAge: true}
	cohorts := map[string]bool{AllPatients: true}
	for i, s := range p.Steps {
		for _, in := range s.Reads() {
			if !cols[in] {
				return &UnsatisfiedInputError{Plan: p.Name, Step: i, Kind: "column", Input: in}
			}
		}
		for _, in := range s.Uses() {
			if !cohorts[in] {
				return &UnsatisfiedInputError{Plan: p.Name, Step: i, Kind: "cohort", Input: in}
			}
		}
		for _, out := range s.Writes() {
			cols[out] = true
		}
		for _, out := range s.Defines() {
			cohorts[out] = true
		}
	}
	return nil
}

// Run validates p and applies its steps in order.
func (e *Engine) Run(p Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for i, s := range p.Steps {
		if err := s.Apply(e); err != nil {
			return fmt.Errorf("indicator: plan %s: step %d: %w", p.Name, i, err)
		}
	}
	slog.Debug("indicator: plan applied",
		"plan", p.Name,
		"steps", len(p.Steps),
		"sites", e.result.Len(),
		"columns", len(e.result.Visible()),
	)
	return nil
}
