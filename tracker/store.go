/*
store.go - Persistence gateway for phases

PURPOSE:
  Defines the boundary between the tracker and the table that stores one
  row per phase. The tracker only needs two operations: read a row by
  phase key and upsert a row by phase key.

ROW SHAPE:
  { phase: string (unique key), data: DayRecord[], seq: uint64 }

LAST WRITER WINS:
  Seq is the logical edit sequence of the snapshot being written. A gateway
  must refuse (ErrStaleWrite) a row whose Seq is not higher than the stored
  one, so an older write finishing late can never overwrite newer state.
  Equal Seqs are refused as well: two processes editing the same phase from
  the same starting row produce different snapshots with the same Seq, and
  only the first one to land is kept.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite table "tracker"
  - tracker/store/memory.go: In-memory, with failure injection for tests
*/
package tracker

import (
	"context"
	"time"
)

// PhaseRow is one persisted phase.
type PhaseRow struct {
	Phase     PhaseKey
	Data      []DayRecord
	Seq       uint64
	UpdatedAt time.Time
}

// Gateway reads and upserts phase rows.
type Gateway interface {
	// Load returns the row for a phase, or ErrPhaseNotFound when none exists.
	// Any other error is a genuine failure.
	Load(ctx context.Context, phase PhaseKey) (PhaseRow, error)

	// Save upserts the row keyed on Phase. Returns ErrStaleWrite when the
	// stored row has the same or a higher Seq.
	Save(ctx context.Context, row PhaseRow) error
}

// PhaseLister is implemented by gateways that can enumerate stored rows.
type PhaseLister interface {
	ListPhases(ctx context.Context) ([]PhaseKey, error)
}
