/*
writer.go - Per-phase save queue

PURPOSE:
  Every accepted edit hands a full phase snapshot to the queue. The queue
  writes snapshots to the Gateway in the background so edits never wait on
  storage, while guaranteeing:

  - At most one in-flight write per phase key
  - Latest snapshot wins: a queued snapshot is replaced by a newer one and
    a lower Seq is never written after a higher one
  - Failed writes are retried with exponential backoff; in-memory state is
    never rolled back

DESIGN:
  - One worker goroutine per phase key, started on first use
  - A one-slot "next" buffer per key; Enqueue overwrites it
  - Workers exit on Close; a write still failing at that point is logged
    and reported through SyncStatus

USAGE:
  q := NewSaveQueue(gateway, DefaultRetryPolicy())
  q.Enqueue(snapshot)
  ...
  err := q.Close(ctx) // flushes first

SEE ALSO:
  - book.go:  Producer of snapshots
  - store.go: Gateway contract (ErrStaleWrite)
*/
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// RetryPolicy controls how failed writes are retried.
type RetryPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxAttempts caps attempts for one snapshot. Zero retries until the
	// snapshot is superseded or the queue closes.
	MaxAttempts int
	// SaveTimeout bounds a single Gateway.Save call.
	SaveTimeout time.Duration
}

// DefaultRetryPolicy retries forever, backing off from 200ms up to 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		SaveTimeout:    10 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// SyncStatus reports how far persistence lags behind a phase's edits.
type SyncStatus struct {
	Phase       PhaseKey
	Queued      bool   // something has been handed to the queue
	Saved       bool   // at least one snapshot is known to be stored
	SavedSeq    uint64 // highest Seq known to be stored
	PendingSeq  uint64 // highest Seq handed to the queue
	InFlight    bool
	// Stale is set when storage refused the latest snapshot because another
	// writer already stored an edit at that Seq or later. Nothing is retried;
	// reloading the phase picks up the stored state.
	Stale       bool
	Attempts    int // attempts for the snapshot currently being written
	LastError   string
	LastSavedAt time.Time
}

// Dirty reports whether the latest queued snapshot still waits to be
// stored. A stale snapshot is settled, not dirty.
func (s SyncStatus) Dirty() bool {
	return s.Queued && !s.Stale && (!s.Saved || s.PendingSeq > s.SavedSeq)
}

// SaveQueue serializes snapshot writes per phase key.
type SaveQueue struct {
	gateway Gateway
	policy  RetryPolicy

	mu     sync.Mutex
	slots  map[PhaseKey]*saveSlot
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

type saveSlot struct {
	next   *Phase
	wake   chan struct{}
	status SyncStatus
}

// NewSaveQueue creates a queue writing through gateway.
func NewSaveQueue(gateway Gateway, policy RetryPolicy) *SaveQueue {
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = DefaultRetryPolicy().InitialBackoff
	}
	if policy.SaveTimeout <= 0 {
		policy.SaveTimeout = DefaultRetryPolicy().SaveTimeout
	}
	return &SaveQueue{
		gateway: gateway,
		policy:  policy,
		slots:   make(map[PhaseKey]*saveSlot),
		stop:    make(chan struct{}),
	}
}

// Track registers a phase loaded from storage so its status starts clean.
func (q *SaveQueue) Track(p *Phase, persisted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.slotLocked(p.Key)
	if persisted && (!slot.status.Saved || p.Seq > slot.status.SavedSeq) {
		slot.status.Saved = true
		slot.status.SavedSeq = p.Seq
		if p.Seq > slot.status.PendingSeq {
			slot.status.PendingSeq = p.Seq
		}
	}
}

// Enqueue schedules a snapshot for writing. Snapshots older than one
// already queued or stored are dropped.
func (q *SaveQueue) Enqueue(p *Phase) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	slot := q.slotLocked(p.Key)
	// PendingSeq covers the queued and the in-flight snapshot alike.
	if slot.status.Queued && p.Seq <= slot.status.PendingSeq {
		return nil
	}
	if slot.status.Saved && p.Seq <= slot.status.SavedSeq {
		return nil
	}
	slot.next = p
	slot.status.Queued = true
	slot.status.Stale = false
	slot.status.PendingSeq = p.Seq
	select {
	case slot.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *SaveQueue) slotLocked(key PhaseKey) *saveSlot {
	slot, ok := q.slots[key]
	if ok {
		return slot
	}
	slot = &saveSlot{
		wake:   make(chan struct{}, 1),
		status: SyncStatus{Phase: key},
	}
	q.slots[key] = slot
	if !q.closed {
		q.wg.Add(1)
		go q.run(slot)
	}
	return slot
}

// Status returns the sync status of one phase.
func (q *SaveQueue) Status(key PhaseKey) (SyncStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	slot, ok := q.slots[key]
	if !ok {
		return SyncStatus{Phase: key}, false
	}
	return slot.status, true
}

// Statuses returns every tracked phase's status sorted by key.
func (q *SaveQueue) Statuses() []SyncStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]SyncStatus, 0, len(q.slots))
	for _, slot := range q.slots {
		out = append(out, slot.status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phase < out[j].Phase })
	return out
}

// Flush blocks until no write is queued or in flight. It returns an error
// naming phases whose latest snapshot could not be stored.
func (q *SaveQueue) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		idle, dirty := q.idle()
		if idle {
			if len(dirty) > 0 {
				return fmt.Errorf("unsaved phases: %v", dirty)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *SaveQueue) idle() (bool, []PhaseKey) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var dirty []PhaseKey
	for key, slot := range q.slots {
		if slot.next != nil || slot.status.InFlight {
			return false, nil
		}
		if slot.status.Dirty() {
			dirty = append(dirty, key)
		}
	}
	sort.Slice(dirty, func(i, j int) bool { return dirty[i] < dirty[j] })
	return true, dirty
}

// Close flushes pending writes (bounded by ctx) and stops the workers.
func (q *SaveQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	err := q.Flush(ctx)

	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.stop)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return err
}

func (q *SaveQueue) run(slot *saveSlot) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stop:
			return
		case <-slot.wake:
			if !q.drain(slot) {
				return
			}
		}
	}
}

// drain writes queued snapshots until the slot is empty. It returns false
// when the queue was stopped mid-retry.
func (q *SaveQueue) drain(slot *saveSlot) bool {
	attempt := 0
	for {
		q.mu.Lock()
		p := slot.next
		if p == nil {
			slot.status.InFlight = false
			q.mu.Unlock()
			return true
		}
		slot.next = nil
		slot.status.InFlight = true
		attempt++
		slot.status.Attempts = attempt
		q.mu.Unlock()

		err := q.save(p)

		q.mu.Lock()
		switch {
		case err == nil:
			if !slot.status.Saved || p.Seq > slot.status.SavedSeq {
				slot.status.SavedSeq = p.Seq
			}
			slot.status.Saved = true
			slot.status.Stale = false
			slot.status.LastSavedAt = time.Now()
			slot.status.LastError = ""
			attempt = 0
			q.mu.Unlock()
			continue
		case errors.Is(err, ErrStaleWrite):
			// Storage already holds something newer; nothing left to do for p.
			log.Printf("[SaveQueue] %s seq=%d superseded in storage", p.Key, p.Seq)
			if slot.next == nil && p.Seq == slot.status.PendingSeq {
				slot.status.Stale = true
			}
			slot.status.LastError = ""
			attempt = 0
			q.mu.Unlock()
			continue
		}

		slot.status.LastError = err.Error()
		log.Printf("[SaveQueue] save %s seq=%d failed (attempt %d): %v", p.Key, p.Seq, attempt, err)

		if slot.next == nil {
			if q.policy.MaxAttempts > 0 && attempt >= q.policy.MaxAttempts {
				slot.status.InFlight = false
				q.mu.Unlock()
				log.Printf("[SaveQueue] giving up on %s seq=%d after %d attempts", p.Key, p.Seq, attempt)
				return true
			}
			slot.next = p
		} else {
			// A newer snapshot arrived while this one was failing; retry with it.
			attempt = 0
		}
		wait := q.policy.Backoff(attempt)
		q.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-q.stop:
			timer.Stop()
			q.mu.Lock()
			slot.status.InFlight = false
			q.mu.Unlock()
			log.Printf("[SaveQueue] stopped with %s seq=%d unsaved", p.Key, p.Seq)
			return false
		case <-timer.C:
		}
	}
}

func (q *SaveQueue) save(p *Phase) error {
	ctx, cancel := context.WithTimeout(context.Background(), q.policy.SaveTimeout)
	defer cancel()

	return q.gateway.Save(ctx, PhaseRow{
		Phase:     p.Key,
		Data:      p.Records(),
		Seq:       p.Seq,
		UpdatedAt: time.Now().UTC(),
	})
}
