/*
book.go - The Day Record Store

PURPOSE:
  Book holds the current snapshot of every phase and is the only place
  edits happen. It owns the phase lifecycle and hands every new snapshot to
  the SaveQueue.

LIFECYCLE (per phase):
  Uninitialized -> Loading -> Ready

  - Open moves each Uninitialized phase to Loading and asks the Gateway
    for its row.
  - A stored row, or a missing row (the template is generated instead),
    moves the phase to Ready. Ready is terminal.
  - A genuine load failure leaves the phase in Loading and is returned to
    the caller. Calling Open again retries only the phases not yet Ready.
    There is no silent fallback to the template on failure: that would
    risk overwriting real data with zeros on the next edit.

EDITS:
  SetAchieved replaces one day's achieved value by building a new
  snapshot (copy-on-write), bumps the phase's Seq and enqueues the whole
  snapshot for saving. Readers holding an older snapshot are unaffected.

SEE ALSO:
  - writer.go:   SaveQueue
  - template.go: Template fallback
*/
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"
)

// PhaseState is the lifecycle state of one phase.
type PhaseState int

const (
	StateUninitialized PhaseState = iota
	StateLoading
	StateReady
)

func (s PhaseState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("PhaseState(%d)", int(s))
}

type phaseEntry struct {
	state    PhaseState
	snapshot *Phase
}

// Book is the in-memory holder of all phases.
type Book struct {
	gateway   Gateway
	templates *TemplateSet
	queue     *SaveQueue

	mu      sync.RWMutex
	entries map[PhaseKey]*phaseEntry
}

// NewBook creates a Book for every phase in templates. Phases stay
// Uninitialized until Open.
func NewBook(gateway Gateway, templates *TemplateSet, queue *SaveQueue) *Book {
	b := &Book{
		gateway:   gateway,
		templates: templates,
		queue:     queue,
		entries:   make(map[PhaseKey]*phaseEntry),
	}
	for _, key := range templates.Keys() {
		b.entries[key] = &phaseEntry{state: StateUninitialized}
	}
	return b
}

// Templates returns the template set the book was built from.
func (b *Book) Templates() *TemplateSet { return b.templates }

// Queue returns the save queue snapshots are handed to.
func (b *Book) Queue() *SaveQueue { return b.queue }

// Open loads every phase that is not Ready yet. Load failures are joined
// into the returned error; phases that loaded are usable regardless.
func (b *Book) Open(ctx context.Context) error {
	var errs []error
	for _, key := range b.templates.Keys() {
		if err := b.openPhase(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Book) openPhase(ctx context.Context, key PhaseKey) error {
	b.mu.Lock()
	entry := b.entries[key]
	if entry.state == StateReady {
		b.mu.Unlock()
		return nil
	}
	entry.state = StateLoading
	b.mu.Unlock()

	tmpl, _ := b.templates.Get(key)
	snapshot, persisted, err := b.load(ctx, tmpl)
	if err != nil {
		log.Printf("[Book] load %s failed: %v", key, err)
		return &LoadError{Phase: key, Err: err}
	}

	b.mu.Lock()
	if entry.state == StateReady {
		// A concurrent Open finished first and may already hold edits.
		b.mu.Unlock()
		return nil
	}
	entry.snapshot = snapshot
	entry.state = StateReady
	b.mu.Unlock()

	if b.queue != nil {
		b.queue.Track(snapshot, persisted)
		if !persisted {
			// Store the fresh template so the row exists from the start.
			if err := b.queue.Enqueue(snapshot); err != nil {
				log.Printf("[Book] enqueue template for %s: %v", key, err)
			}
		}
	}
	return nil
}

func (b *Book) load(ctx context.Context, tmpl *PhaseTemplate) (*Phase, bool, error) {
	row, err := b.gateway.Load(ctx, tmpl.ID)
	if errors.Is(err, ErrPhaseNotFound) {
		p := NewPhase(tmpl.ID, tmpl.Name, 0, tmpl.Generate())
		p.Template = string(tmpl.ID)
		p.Version = tmpl.Version
		return p, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := ValidateRecords(row.Data); err != nil {
		return nil, false, err
	}
	p := NewPhase(tmpl.ID, tmpl.Name, row.Seq, row.Data)
	p.Template = string(tmpl.ID)
	p.Version = tmpl.Version
	return p, true, nil
}

// State returns the lifecycle state of a phase.
func (b *Book) State(key PhaseKey) (PhaseState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[key]
	if !ok {
		return StateUninitialized, fmt.Errorf("%w: %s", ErrPhaseNotFound, key)
	}
	return entry.state, nil
}

// Phase returns the current snapshot of a Ready phase.
func (b *Book) Phase(key PhaseKey) (*Phase, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.readyLocked(key)
}

func (b *Book) readyLocked(key PhaseKey) (*Phase, error) {
	entry, ok := b.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPhaseNotFound, key)
	}
	if entry.state != StateReady {
		return nil, fmt.Errorf("%w: %s is %s", ErrPhaseNotReady, key, entry.state)
	}
	return entry.snapshot, nil
}

// Phases returns snapshots of all Ready phases in template order.
func (b *Book) Phases() []*Phase {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*Phase
	for _, key := range b.templates.Keys() {
		if entry := b.entries[key]; entry.state == StateReady {
			out = append(out, entry.snapshot)
		}
	}
	return out
}

// SetAchieved records the achieved amount for one day of a phase and
// returns the new snapshot. The edit is visible immediately; the write to
// storage happens in the background.
func (b *Book) SetAchieved(key PhaseKey, day int, value decimal.Decimal) (*Phase, error) {
	b.mu.Lock()
	current, err := b.readyLocked(key)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	next, err := current.withAchieved(day, value)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.entries[key].snapshot = next

	// Enqueue under the lock so snapshots reach the queue in Seq order.
	if b.queue != nil {
		if err := b.queue.Enqueue(next); err != nil {
			log.Printf("[Book] enqueue %s seq=%d: %v", key, next.Seq, err)
		}
	}
	b.mu.Unlock()
	return next, nil
}

// ResetPhase zeroes every achieved value of a phase as a single edit.
// Targets and labels are kept.
func (b *Book) ResetPhase(key PhaseKey) (*Phase, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.readyLocked(key)
	if err != nil {
		return nil, err
	}
	next := current.withAchievedCleared()
	b.entries[key].snapshot = next
	if b.queue != nil {
		if err := b.queue.Enqueue(next); err != nil {
			log.Printf("[Book] enqueue %s seq=%d: %v", key, next.Seq, err)
		}
	}
	return next, nil
}

// Pending lists the phases that are not Ready yet.
func (b *Book) Pending() []PhaseKey {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []PhaseKey
	for _, key := range b.templates.Keys() {
		if b.entries[key].state != StateReady {
			out = append(out, key)
		}
	}
	return out
}

// Orphans returns stored phases that no template describes, such as rows
// left behind after a phase was renamed. Gateways that cannot list rows
// report none.
func (b *Book) Orphans(ctx context.Context) ([]PhaseKey, error) {
	lister, ok := b.gateway.(PhaseLister)
	if !ok {
		return nil, nil
	}
	stored, err := lister.ListPhases(ctx)
	if err != nil {
		return nil, err
	}
	var out []PhaseKey
	for _, key := range stored {
		if _, known := b.templates.Get(key); !known {
			out = append(out, key)
		}
	}
	return out, nil
}

// Global summarizes the concatenation of all Ready phases.
func (b *Book) Global() Summary {
	return Summarize(Concat(b.Phases()...))
}

// Close flushes outstanding writes and stops the save queue.
func (b *Book) Close(ctx context.Context) error {
	if b.queue == nil {
		return nil
	}
	return b.queue.Close(ctx)
}
