// Package store provides Gateway implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/phase-tracker/tracker"
)

// =============================================================================
// MEMORY GATEWAY - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps phase rows in a map. Failures can be injected to exercise
// the tracker's load and retry paths.
type Memory struct {
	mu   sync.RWMutex
	rows map[tracker.PhaseKey]tracker.PhaseRow

	loadErr   error
	saveErr   error
	saveFails int // remaining saves to fail with saveErr; -1 fails forever
	saves     []tracker.PhaseRow
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[tracker.PhaseKey]tracker.PhaseRow)}
}

// Put seeds a row directly, bypassing the stale-write check.
func (m *Memory) Put(row tracker.PhaseRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.Phase] = copyRow(row)
}

// FailLoads makes every Load return err until cleared with nil.
func (m *Memory) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSaves makes the next n saves return err. n < 0 fails until reset.
func (m *Memory) FailSaves(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveFails = n
	m.saveErr = err
}

func (m *Memory) Load(_ context.Context, phase tracker.PhaseKey) (tracker.PhaseRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return tracker.PhaseRow{}, m.loadErr
	}
	row, ok := m.rows[phase]
	if !ok {
		return tracker.PhaseRow{}, tracker.ErrPhaseNotFound
	}
	return copyRow(row), nil
}

func (m *Memory) Save(_ context.Context, row tracker.PhaseRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveFails != 0 {
		if m.saveFails > 0 {
			m.saveFails--
		}
		return m.saveErr
	}
	if existing, ok := m.rows[row.Phase]; ok && row.Seq <= existing.Seq {
		return tracker.ErrStaleWrite
	}
	row = copyRow(row)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	m.rows[row.Phase] = row
	m.saves = append(m.saves, row)
	return nil
}

// ListPhases returns the keys of every stored row, sorted.
func (m *Memory) ListPhases(_ context.Context) ([]tracker.PhaseKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	keys := make([]tracker.PhaseKey, 0, len(m.rows))
	for k := range m.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Row returns the stored row for a phase.
func (m *Memory) Row(phase tracker.PhaseKey) (tracker.PhaseRow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[phase]
	return copyRow(row), ok
}

// Saves returns every successful save in order.
func (m *Memory) Saves() []tracker.PhaseRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]tracker.PhaseRow, len(m.saves))
	copy(out, m.saves)
	return out
}

func copyRow(row tracker.PhaseRow) tracker.PhaseRow {
	data := make([]tracker.DayRecord, len(row.Data))
	copy(data, row.Data)
	row.Data = data
	return row
}
