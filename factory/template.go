/*
Package factory provides JSON to Go phase template conversion.

PURPOSE:
  Phase schedules are configuration, not code. The factory turns JSON
  template definitions into tracker.PhaseTemplate values so a new challenge
  program (different day counts or targets) needs only a new JSON file.

JSON SCHEMA:
  {
    "id": "phase1",
    "name": "Phase 1",
    "version": 1,
    "start_weekday": "monday",
    "days": [
      {"target": 1000},
      {"target": 150, "label": "Saturday"}
    ]
  }

  "days" may be replaced by "schedule" for runs of equal targets:

    "schedule": [{"count": 5, "target": 1000}, {"count": 2, "target": 150}]

DEFAULTS:
  - version:       1
  - start_weekday: monday
  - label:         weekday name counted from start_weekday

USAGE:
  f := NewTemplateFactory()
  tmpl, err := f.ParseTemplate(jsonString)

  // Every *.json file in a directory, or the presets when dir is ""
  set, err := f.LoadTemplateSet(dir)

SEE ALSO:
  - tracker/template.go: PhaseTemplate
  - presets.go:          Built-in phase definitions
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/phase-tracker/tracker"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TemplateJSON is the JSON representation of a phase template.
type TemplateJSON struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Version      int            `json:"version,omitempty"`
	StartWeekday string         `json:"start_weekday,omitempty"`
	Days         []DayJSON      `json:"days,omitempty"`
	Schedule     []ScheduleJSON `json:"schedule,omitempty"`
}

// DayJSON is one explicit day.
type DayJSON struct {
	Target decimal.Decimal `json:"target"`
	Label  string          `json:"label,omitempty"`
}

// ScheduleJSON is a run of Count days sharing a target.
type ScheduleJSON struct {
	Count  int             `json:"count"`
	Target decimal.Decimal `json:"target"`
}

// =============================================================================
// TEMPLATE FACTORY
// =============================================================================

// TemplateFactory converts JSON templates to tracker templates.
type TemplateFactory struct{}

// NewTemplateFactory creates a new template factory.
func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{}
}

// ParseTemplate parses a JSON string into a validated PhaseTemplate.
func (f *TemplateFactory) ParseTemplate(jsonStr string) (*tracker.PhaseTemplate, error) {
	var tj TemplateJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return nil, fmt.Errorf("failed to parse template JSON: %w", err)
	}
	return f.FromJSON(tj)
}

// FromJSON converts a TemplateJSON to a PhaseTemplate.
func (f *TemplateFactory) FromJSON(tj TemplateJSON) (*tracker.PhaseTemplate, error) {
	start, err := parseWeekday(tj.StartWeekday)
	if err != nil {
		return nil, err
	}

	version := tj.Version
	if version == 0 {
		version = 1
	}
	name := tj.Name
	if name == "" {
		name = tj.ID
	}

	if len(tj.Days) > 0 && len(tj.Schedule) > 0 {
		return nil, fmt.Errorf("%w: %s: use either days or schedule", tracker.ErrInvalidTemplate, tj.ID)
	}

	var days []tracker.TemplateDay
	for _, d := range tj.Days {
		days = append(days, tracker.TemplateDay{Target: d.Target, Label: d.Label})
	}
	for _, run := range tj.Schedule {
		if run.Count < 1 {
			return nil, fmt.Errorf("%w: %s: schedule count must be >= 1", tracker.ErrInvalidTemplate, tj.ID)
		}
		for i := 0; i < run.Count; i++ {
			days = append(days, tracker.TemplateDay{Target: run.Target})
		}
	}

	tmpl := &tracker.PhaseTemplate{
		ID:           tracker.PhaseKey(tj.ID),
		Name:         name,
		Version:      version,
		StartWeekday: start,
		Days:         days,
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// ToJSON converts a PhaseTemplate back to its explicit-days JSON form.
func (f *TemplateFactory) ToJSON(t *tracker.PhaseTemplate) TemplateJSON {
	tj := TemplateJSON{
		ID:           string(t.ID),
		Name:         t.Name,
		Version:      t.Version,
		StartWeekday: strings.ToLower(t.StartWeekday.String()),
	}
	for _, r := range t.Generate() {
		tj.Days = append(tj.Days, DayJSON{Target: r.Target, Label: r.Label})
	}
	return tj
}

// LoadTemplateSet reads every *.json template in dir, ordered by file
// name. An empty dir yields the built-in presets.
func (f *TemplateFactory) LoadTemplateSet(dir string) (*tracker.TemplateSet, error) {
	if dir == "" {
		return f.Presets()
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no *.json templates in %s", tracker.ErrInvalidTemplate, dir)
	}
	sort.Strings(paths)

	templates := make([]*tracker.PhaseTemplate, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", path, err)
		}
		tmpl, err := f.ParseTemplate(string(data))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", filepath.Base(path), err)
		}
		templates = append(templates, tmpl)
	}
	return tracker.NewTemplateSet(templates...)
}

// Presets returns the built-in phase1/phase2 template set.
func (f *TemplateFactory) Presets() (*tracker.TemplateSet, error) {
	return f.PresetSet("phase1", "phase2")
}

// PresetSet builds a template set from built-in presets, in the given order.
func (f *TemplateFactory) PresetSet(ids ...string) (*tracker.TemplateSet, error) {
	templates := make([]*tracker.PhaseTemplate, 0, len(ids))
	for _, id := range ids {
		js, ok := presets[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown preset %q", tracker.ErrInvalidTemplate, id)
		}
		tmpl, err := f.ParseTemplate(js)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return tracker.NewTemplateSet(templates...)
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Monday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown start_weekday %q", tracker.ErrInvalidTemplate, s)
}
