/*
Package tracker provides the progress-tracking core for challenge phases.

PURPOSE:
  A trader works through challenge phases. Each phase is a fixed schedule of
  days, each day carrying a profit target. The trader records what was
  actually achieved per day, and this package computes how far along each
  phase (and the whole challenge) is.

KEY CONCEPTS IN THIS FILE (types.go):
  - DayRecord: One day's target/achieved pair within a phase
  - PhaseKey:  Identifier of a phase ("phase1", "phase2")
  - Phase:     Immutable snapshot of a phase's records plus its edit sequence

DESIGN PRINCIPLES:
  1. Immutability: a Phase snapshot never changes; edits produce a new one
  2. Precision: amounts use decimal.Decimal, never float64 accumulation
  3. Day addressing: records are addressed by day number, not slice position

WIRE FORMAT:
  DayRecords marshal as plain JSON numbers so stored rows look like

    [{"day":1,"target":1000,"achieved":0,"label":"Monday"}, ...]

SEE ALSO:
  - template.go: Where fresh records come from
  - progress.go: Percentages over records
  - book.go:     The mutable holder of Phase snapshots
*/
package tracker

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PhaseKey string

func (k PhaseKey) String() string { return string(k) }

// =============================================================================
// DAY RECORD
// =============================================================================

// DayRecord is one day of a phase. Target is fixed when the phase is created;
// Achieved is the only field that ever changes.
type DayRecord struct {
	Day      int             `json:"day"`
	Target   decimal.Decimal `json:"target"`
	Achieved decimal.Decimal `json:"achieved"`
	Label    string          `json:"label"`
}

// MarshalJSON writes amounts as JSON numbers instead of quoted strings.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Day      int             `json:"day"`
		Target   json.RawMessage `json:"target"`
		Achieved json.RawMessage `json:"achieved"`
		Label    string          `json:"label"`
	}{
		Day:      r.Day,
		Target:   json.RawMessage(r.Target.String()),
		Achieved: json.RawMessage(r.Achieved.String()),
		Label:    r.Label,
	})
}

// Percent returns achieved/target*100 for this record. ok is false when the
// target is zero and the percentage is undefined.
func (r DayRecord) Percent() (pct decimal.Decimal, ok bool) {
	if r.Target.IsZero() {
		return decimal.Zero, false
	}
	return r.Achieved.Mul(hundred).Div(r.Target), true
}

// Equal reports whether two records carry the same values.
func (r DayRecord) Equal(o DayRecord) bool {
	return r.Day == o.Day &&
		r.Label == o.Label &&
		r.Target.Equal(o.Target) &&
		r.Achieved.Equal(o.Achieved)
}

// =============================================================================
// PHASE - Immutable snapshot
// =============================================================================

// Phase is a point-in-time view of one phase. Snapshots are never mutated;
// Book replaces them wholesale on every edit.
type Phase struct {
	Key      PhaseKey
	Name     string
	Template string // template id the phase was created from
	Version  int    // template version

	// Seq is the logical edit sequence. It starts at the persisted value
	// (0 for a fresh template) and grows by one per accepted edit.
	Seq uint64

	records []DayRecord
}

// NewPhase builds a snapshot over a private copy of records.
func NewPhase(key PhaseKey, name string, seq uint64, records []DayRecord) *Phase {
	return &Phase{
		Key:     key,
		Name:    name,
		Seq:     seq,
		records: cloneRecords(records),
	}
}

// Records returns a copy of the phase's records in day order.
func (p *Phase) Records() []DayRecord {
	return cloneRecords(p.records)
}

func (p *Phase) Len() int { return len(p.records) }

// Day returns the record for a 1-based day number.
func (p *Phase) Day(day int) (DayRecord, bool) {
	if day < 1 || day > len(p.records) {
		return DayRecord{}, false
	}
	return p.records[day-1], true
}

// Summary aggregates the phase's records.
func (p *Phase) Summary() Summary {
	return Summarize(p.records)
}

// withAchieved returns a new snapshot with one day's achieved value replaced
// and the sequence advanced. The receiver is left untouched.
func (p *Phase) withAchieved(day int, value decimal.Decimal) (*Phase, error) {
	if day < 1 || day > len(p.records) {
		return nil, &DayOutOfRangeError{Phase: p.Key, Day: day, Days: len(p.records)}
	}
	next := *p
	next.records = cloneRecords(p.records)
	next.records[day-1].Achieved = value
	next.Seq = p.Seq + 1
	return &next, nil
}

// withAchievedCleared returns a new snapshot with every achieved value
// zeroed and the sequence advanced.
func (p *Phase) withAchievedCleared() *Phase {
	next := *p
	next.records = cloneRecords(p.records)
	for i := range next.records {
		next.records[i].Achieved = decimal.Zero
	}
	next.Seq = p.Seq + 1
	return &next
}

func cloneRecords(records []DayRecord) []DayRecord {
	out := make([]DayRecord, len(records))
	copy(out, records)
	return out
}

// Concat joins the records of several phases in order. Day numbers may
// repeat across phases; aggregation is by summation so that is harmless.
func Concat(phases ...*Phase) []DayRecord {
	n := 0
	for _, p := range phases {
		n += len(p.records)
	}
	out := make([]DayRecord, 0, n)
	for _, p := range phases {
		out = append(out, p.records...)
	}
	return out
}

// ValidateRecords checks the persisted-data invariants: days numbered 1..N
// in order and every target strictly positive.
func ValidateRecords(records []DayRecord) error {
	if len(records) == 0 {
		return &InvalidRecordsError{Reason: "no days"}
	}
	for i, r := range records {
		if r.Day != i+1 {
			return &InvalidRecordsError{Day: r.Day, Reason: "days must be contiguous from 1"}
		}
		if !r.Target.IsPositive() {
			return &InvalidRecordsError{Day: r.Day, Reason: "target must be positive"}
		}
	}
	return nil
}
