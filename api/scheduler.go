/*
scheduler.go - Background phase loader

PURPOSE:
  Phases whose load failed stay in Loading; nothing is served for them and
  no edit is accepted. The scheduler periodically retries Book.Open for
  those phases so a storage outage at startup heals without a restart. It
  also logs phases whose edits are still waiting to be stored.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs one check immediately on Start
  - Does nothing once every phase is Ready, apart from the dirty report

CONFIGURATION:
  - CheckInterval: How often to check (default: 30 seconds)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewLoadScheduler(book)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - tracker/book.go:   Open and the phase lifecycle
  - tracker/writer.go: SyncStatus
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/phase-tracker/tracker"
)

// LoadScheduler retries failed phase loads in the background.
type LoadScheduler struct {
	Book          *tracker.Book
	CheckInterval time.Duration
	LoadTimeout   time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLoadScheduler creates a new scheduler.
func NewLoadScheduler(book *tracker.Book) *LoadScheduler {
	return &LoadScheduler{
		Book:          book,
		CheckInterval: 30 * time.Second,
		LoadTimeout:   10 * time.Second,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (ls *LoadScheduler) Start() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if ls.ticker != nil {
		return
	}

	ls.ticker = time.NewTicker(ls.CheckInterval)
	ls.stop = make(chan struct{})
	ls.wg.Add(1)

	go ls.run(ls.ticker, ls.stop)

	log.Printf("[Scheduler] Started with check interval: %v", ls.CheckInterval)
}

// Stop stops the scheduler.
func (ls *LoadScheduler) Stop() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ticker != nil {
		ls.ticker.Stop()
		close(ls.stop)
		ls.wg.Wait()
		ls.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (ls *LoadScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ls.wg.Done()

	ls.check()

	for {
		select {
		case <-ticker.C:
			ls.check()
		case <-stop:
			return
		}
	}
}

// RunNow triggers an immediate check and returns the phases still not Ready.
func (ls *LoadScheduler) RunNow() []tracker.PhaseKey {
	ls.check()
	return ls.Book.Pending()
}

func (ls *LoadScheduler) check() {
	if pending := ls.Book.Pending(); len(pending) > 0 {
		log.Printf("[Scheduler] Retrying load of %v", pending)

		ctx, cancel := context.WithTimeout(context.Background(), ls.LoadTimeout)
		err := ls.Book.Open(ctx)
		cancel()

		if err != nil {
			log.Printf("[Scheduler] Load still failing: %v", err)
		} else {
			log.Printf("[Scheduler] Loaded %v", pending)
		}
	}

	if q := ls.Book.Queue(); q != nil {
		for _, st := range q.Statuses() {
			if st.Dirty() && !st.InFlight && st.LastError != "" {
				log.Printf("[Scheduler] %s has unsaved edits (pending seq %d, saved seq %d): %s",
					st.Phase, st.PendingSeq, st.SavedSeq, st.LastError)
			}
		}
	}
}
