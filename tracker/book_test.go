package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tracker/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func fastPolicy() tracker.RetryPolicy {
	return tracker.RetryPolicy{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		SaveTimeout:    time.Second,
	}
}

func testTemplates(t *testing.T) *tracker.TemplateSet {
	t.Helper()
	set, err := tracker.NewTemplateSet(
		testTemplate("phase1", "1000", "1000", "150"),
		testTemplate("phase2", "400", "400"),
	)
	require.NoError(t, err)
	return set
}

func newTestBook(t *testing.T, mem *store.Memory) *tracker.Book {
	t.Helper()
	book := tracker.NewBook(mem, testTemplates(t), tracker.NewSaveQueue(mem, fastPolicy()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		book.Close(ctx)
	})
	return book
}

func flush(t *testing.T, book *tracker.Book) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return book.Queue().Flush(ctx)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestBookOpen_FallsBackToTemplateWhenNothingStored(t *testing.T) {
	// GIVEN: An empty store
	mem := store.NewMemory()
	book := newTestBook(t, mem)

	state, err := book.State("phase1")
	require.NoError(t, err)
	assert.Equal(t, tracker.StateUninitialized, state)

	// WHEN: Opening
	require.NoError(t, book.Open(context.Background()))

	// THEN: Every phase is Ready with the template's zeroed records
	p, err := book.Phase("phase1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, uint64(0), p.Seq)
	assert.Equal(t, "phase1", p.Template)
	for _, r := range p.Records() {
		assert.True(t, r.Achieved.IsZero())
	}

	// AND: The fresh template is written so the row exists
	require.NoError(t, flush(t, book))
	row, ok := mem.Row("phase1")
	require.True(t, ok)
	assert.Len(t, row.Data, 3)
	_, ok = mem.Row("phase2")
	assert.True(t, ok)
}

func TestBookOpen_UsesStoredRow(t *testing.T) {
	// GIVEN: A stored row with progress
	mem := store.NewMemory()
	records := testTemplate("phase1", "1000", "1000", "150").Generate()
	records[0].Achieved = dec("800")
	mem.Put(tracker.PhaseRow{Phase: "phase1", Data: records, Seq: 7})
	book := newTestBook(t, mem)

	// WHEN: Opening
	require.NoError(t, book.Open(context.Background()))

	// THEN: The stored data wins over the template
	p, err := book.Phase("phase1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.Seq)
	day, ok := p.Day(1)
	require.True(t, ok)
	assert.True(t, dec("800").Equal(day.Achieved))

	// AND: The stored phase is not rewritten
	require.NoError(t, flush(t, book))
	for _, s := range mem.Saves() {
		assert.NotEqual(t, tracker.PhaseKey("phase1"), s.Phase)
	}
}

func TestBookOpen_LoadFailureIsSurfacedAndRetryable(t *testing.T) {
	// GIVEN: A store that cannot be read
	mem := store.NewMemory()
	mem.FailLoads(errors.New("connection refused"))
	book := newTestBook(t, mem)

	// WHEN: Opening
	err := book.Open(context.Background())

	// THEN: The failure is reported per phase and nothing is served
	require.Error(t, err)
	var le *tracker.LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, tracker.IsRetryable(err))

	state, _ := book.State("phase1")
	assert.Equal(t, tracker.StateLoading, state)
	_, err = book.Phase("phase1")
	assert.ErrorIs(t, err, tracker.ErrPhaseNotReady)
	_, err = book.SetAchieved("phase1", 1, dec("100"))
	assert.ErrorIs(t, err, tracker.ErrPhaseNotReady)
	assert.Equal(t, []tracker.PhaseKey{"phase1", "phase2"}, book.Pending())

	// AND: Nothing was written over the unreadable data
	assert.Empty(t, mem.Saves())

	// WHEN: Storage recovers and Open is retried
	mem.FailLoads(nil)
	require.NoError(t, book.Open(context.Background()))

	// THEN: The phases become Ready
	state, _ = book.State("phase1")
	assert.Equal(t, tracker.StateReady, state)
	assert.Empty(t, book.Pending())
}

func TestBookOpen_InvalidStoredDataIsALoadFailure(t *testing.T) {
	// GIVEN: A stored row with a gap in its day numbers
	mem := store.NewMemory()
	mem.Put(tracker.PhaseRow{Phase: "phase1", Data: []tracker.DayRecord{
		rec(1, "1000", "0"),
		rec(3, "1000", "0"),
	}, Seq: 2})
	book := newTestBook(t, mem)

	// WHEN: Opening
	err := book.Open(context.Background())

	// THEN: phase1 stays unavailable, phase2 loads fine
	assert.ErrorIs(t, err, tracker.ErrInvalidRecords)
	assert.False(t, tracker.IsRetryable(err))
	_, err = book.Phase("phase1")
	assert.ErrorIs(t, err, tracker.ErrPhaseNotReady)
	_, err = book.Phase("phase2")
	assert.NoError(t, err)
}

func TestBook_UnknownPhase(t *testing.T) {
	book := newTestBook(t, store.NewMemory())
	require.NoError(t, book.Open(context.Background()))

	_, err := book.Phase("phase9")
	assert.True(t, tracker.IsNotFound(err))
	_, err = book.SetAchieved("phase9", 1, dec("1"))
	assert.True(t, tracker.IsNotFound(err))
	_, err = book.State("phase9")
	assert.True(t, tracker.IsNotFound(err))
}

// =============================================================================
// EDITS
// =============================================================================

func TestBookSetAchieved_CopyOnWrite(t *testing.T) {
	// GIVEN: An opened book and a snapshot held by a reader
	mem := store.NewMemory()
	book := newTestBook(t, mem)
	require.NoError(t, book.Open(context.Background()))
	before, err := book.Phase("phase1")
	require.NoError(t, err)

	// WHEN: Recording day 2
	after, err := book.SetAchieved("phase1", 2, dec("1250.50"))
	require.NoError(t, err)

	// THEN: Only the new snapshot sees the edit
	old, _ := before.Day(2)
	assert.True(t, old.Achieved.IsZero())
	day, _ := after.Day(2)
	assert.True(t, dec("1250.50").Equal(day.Achieved))
	assert.Equal(t, before.Seq+1, after.Seq)

	current, err := book.Phase("phase1")
	require.NoError(t, err)
	assert.Same(t, after, current)

	// AND: The edit reaches storage
	require.NoError(t, flush(t, book))
	row, ok := mem.Row("phase1")
	require.True(t, ok)
	assert.Equal(t, after.Seq, row.Seq)
	assert.True(t, dec("1250.50").Equal(row.Data[1].Achieved))
}

func TestBookSetAchieved_AcceptsNegativeAndRejectsBadDays(t *testing.T) {
	book := newTestBook(t, store.NewMemory())
	require.NoError(t, book.Open(context.Background()))

	p, err := book.SetAchieved("phase2", 1, dec("-300"))
	require.NoError(t, err)
	assert.Equal(t, "-37.5", p.Summary().Percent.StringFixed(1))

	for _, day := range []int{0, -1, 3} {
		_, err := book.SetAchieved("phase2", day, dec("1"))
		assert.ErrorIs(t, err, tracker.ErrDayOutOfRange, "day %d", day)
		assert.True(t, tracker.IsClientError(err))
	}

	// Rejected edits leave the snapshot alone.
	current, _ := book.Phase("phase2")
	assert.Same(t, p, current)
}

func TestBookGlobal_ConcatenatesReadyPhases(t *testing.T) {
	book := newTestBook(t, store.NewMemory())
	require.NoError(t, book.Open(context.Background()))

	_, err := book.SetAchieved("phase1", 1, dec("1000"))
	require.NoError(t, err)
	_, err = book.SetAchieved("phase2", 2, dec("400"))
	require.NoError(t, err)

	g := book.Global()
	assert.Equal(t, 5, g.Days)
	assert.True(t, dec("2950").Equal(g.Target))
	assert.True(t, dec("1400").Equal(g.Achieved))
	assert.Equal(t, "47.5", g.Percent.StringFixed(1))
}

func TestBookResetPhase(t *testing.T) {
	book := newTestBook(t, store.NewMemory())
	require.NoError(t, book.Open(context.Background()))
	_, err := book.SetAchieved("phase1", 1, dec("900"))
	require.NoError(t, err)

	p, err := book.ResetPhase("phase1")
	require.NoError(t, err)

	assert.Equal(t, uint64(2), p.Seq)
	assert.True(t, p.Summary().Achieved.IsZero())
	assert.True(t, dec("2150").Equal(p.Summary().Target))
}

func TestBookSetAchieved_SameValueTwiceIsIdempotent(t *testing.T) {
	mem := store.NewMemory()
	book := newTestBook(t, mem)
	require.NoError(t, book.Open(context.Background()))

	first, err := book.SetAchieved("phase1", 1, dec("500"))
	require.NoError(t, err)
	second, err := book.SetAchieved("phase1", 1, dec("500"))
	require.NoError(t, err)

	// Records are unchanged; the second edit still gets its own write.
	a, b := first.Records(), second.Records()
	for i := range a {
		assert.True(t, a[i].Equal(b[i]))
	}
	require.NoError(t, flush(t, book))
	row, _ := mem.Row("phase1")
	assert.Equal(t, second.Seq, row.Seq)
	for i := range b {
		assert.True(t, b[i].Equal(row.Data[i]))
	}
}

func TestBookOrphans_ListsStoredPhasesWithoutTemplate(t *testing.T) {
	// GIVEN: A row left behind by a phase that was since renamed
	mem := store.NewMemory()
	mem.Put(tracker.PhaseRow{Phase: "phase1", Data: testTemplate("phase1", "1000").Generate(), Seq: 1})
	mem.Put(tracker.PhaseRow{Phase: "legacy", Data: testTemplate("legacy", "1000").Generate(), Seq: 3})
	book := newTestBook(t, mem)

	// WHEN: Listing orphans
	orphans, err := book.Orphans(context.Background())

	// THEN: Only the unknown row is reported
	require.NoError(t, err)
	assert.Equal(t, []tracker.PhaseKey{"legacy"}, orphans)

	mem.FailLoads(errors.New("database is locked"))
	_, err = book.Orphans(context.Background())
	assert.Error(t, err)
}
