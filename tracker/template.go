/*
template.go - Phase templates (the fixed day schedules)

PURPOSE:
  A phase starts life either from persisted data or, when nothing is
  stored yet, from its template. Templates are named, versioned data; the
  tracker has exactly one template per phase key, so there is a single
  source of truth for each schedule.

LABELS:
  Labels are weekday names. A day without an explicit label gets the
  weekday reached by counting from StartWeekday, so a 12-day template
  starting on Monday ends on Friday of the second week.

SEE ALSO:
  - factory/template.go: JSON form and built-in presets
*/
package tracker

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TemplateDay is one scheduled day of a template.
type TemplateDay struct {
	Target decimal.Decimal
	Label  string // optional; derived from StartWeekday when empty
}

// PhaseTemplate is the configuration a phase is generated from.
type PhaseTemplate struct {
	ID           PhaseKey
	Name         string
	Version      int
	StartWeekday time.Weekday
	Days         []TemplateDay
}

// Validate checks that the template can produce a valid phase.
func (t *PhaseTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	}
	if t.Version < 1 {
		return fmt.Errorf("%w: %s: version must be >= 1", ErrInvalidTemplate, t.ID)
	}
	if len(t.Days) == 0 {
		return fmt.Errorf("%w: %s: no days", ErrInvalidTemplate, t.ID)
	}
	for i, d := range t.Days {
		if !d.Target.IsPositive() {
			return fmt.Errorf("%w: %s: day %d target must be positive", ErrInvalidTemplate, t.ID, i+1)
		}
	}
	return nil
}

// Generate returns the template's day records with achieved set to zero.
// It is deterministic: every call returns an equal, freshly allocated slice.
func (t *PhaseTemplate) Generate() []DayRecord {
	records := make([]DayRecord, len(t.Days))
	for i, d := range t.Days {
		label := d.Label
		if label == "" {
			label = time.Weekday((int(t.StartWeekday) + i) % 7).String()
		}
		records[i] = DayRecord{
			Day:      i + 1,
			Target:   d.Target,
			Achieved: decimal.Zero,
			Label:    label,
		}
	}
	return records
}

// TotalTarget is the sum of every day's target.
func (t *PhaseTemplate) TotalTarget() decimal.Decimal {
	var sum decimal.Decimal
	for _, d := range t.Days {
		sum = sum.Add(d.Target)
	}
	return sum
}

// =============================================================================
// TEMPLATE SET
// =============================================================================

// TemplateSet is an ordered collection of templates keyed by phase.
type TemplateSet struct {
	order []PhaseKey
	byKey map[PhaseKey]*PhaseTemplate
}

// NewTemplateSet validates templates and indexes them, keeping their order.
func NewTemplateSet(templates ...*PhaseTemplate) (*TemplateSet, error) {
	s := &TemplateSet{byKey: make(map[PhaseKey]*PhaseTemplate, len(templates))}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byKey[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidTemplate, t.ID)
		}
		s.byKey[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s, nil
}

// Get returns the template for a phase.
func (s *TemplateSet) Get(key PhaseKey) (*PhaseTemplate, bool) {
	t, ok := s.byKey[key]
	return t, ok
}

// Keys returns phase keys in template order.
func (s *TemplateSet) Keys() []PhaseKey {
	return append([]PhaseKey(nil), s.order...)
}

// All returns templates in order.
func (s *TemplateSet) All() []*PhaseTemplate {
	out := make([]*PhaseTemplate, len(s.order))
	for i, k := range s.order {
		out[i] = s.byKey[k]
	}
	return out
}

// Generate produces the initial records for a phase.
func (s *TemplateSet) Generate(key PhaseKey) ([]DayRecord, error) {
	t, ok := s.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPhaseNotFound, key)
	}
	return t.Generate(), nil
}
