package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func records(achieved ...string) []tracker.DayRecord {
	out := make([]tracker.DayRecord, len(achieved))
	for i, a := range achieved {
		out[i] = tracker.DayRecord{
			Day:      i + 1,
			Target:   decimal.NewFromInt(1000),
			Achieved: decimal.RequireFromString(a),
			Label:    time.Weekday((i + 1) % 7).String(),
		}
	}
	return out
}

func TestLoad_MissingRowIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "phase1")

	assert.ErrorIs(t, err, tracker.ErrPhaseNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	// GIVEN: A saved row with fractional and negative amounts
	store := newTestStore(t)
	ctx := context.Background()
	row := tracker.PhaseRow{Phase: "phase1", Data: records("1250.75", "-300", "0"), Seq: 3}

	require.NoError(t, store.Save(ctx, row))

	// WHEN: Loading it back
	got, err := store.Load(ctx, "phase1")
	require.NoError(t, err)

	// THEN: Every value survives without precision loss
	assert.Equal(t, uint64(3), got.Seq)
	require.Len(t, got.Data, 3)
	for i := range row.Data {
		assert.True(t, row.Data[i].Equal(got.Data[i]), "day %d", i+1)
	}
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSave_UpsertsByPhase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, tracker.PhaseRow{Phase: "phase1", Data: records("0"), Seq: 1}))
	require.NoError(t, store.Save(ctx, tracker.PhaseRow{Phase: "phase1", Data: records("500"), Seq: 2}))
	require.NoError(t, store.Save(ctx, tracker.PhaseRow{Phase: "phase2", Data: records("0"), Seq: 0}))

	keys, err := store.ListPhases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []tracker.PhaseKey{"phase1", "phase2"}, keys)

	// A book that only knows phase1 reports phase2 as an orphan.
	templates, err := tracker.NewTemplateSet(&tracker.PhaseTemplate{
		ID: "phase1", Name: "Phase 1", Version: 1, StartWeekday: time.Monday,
		Days: []tracker.TemplateDay{{Target: decimal.NewFromInt(1000)}},
	})
	require.NoError(t, err)
	orphans, err := tracker.NewBook(store, templates, nil).Orphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []tracker.PhaseKey{"phase2"}, orphans)

	got, err := store.Load(ctx, "phase1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Seq)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Data[0].Achieved))
}

func TestSave_RejectsOlderSeq(t *testing.T) {
	// GIVEN: A stored row at seq 5
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, tracker.PhaseRow{Phase: "phase1", Data: records("900"), Seq: 5}))

	// WHEN: A late write from seq 4 arrives
	err := store.Save(ctx, tracker.PhaseRow{Phase: "phase1", Data: records("100"), Seq: 4})

	// THEN: It is refused and the newer data stays
	assert.ErrorIs(t, err, tracker.ErrStaleWrite)
	got, _ := store.Load(ctx, "phase1")
	assert.Equal(t, uint64(5), got.Seq)
	assert.True(t, decimal.NewFromInt(900).Equal(got.Data[0].Achieved))

	// AND: A different row with the same seq is refused too
	err = store.Save(ctx, tracker.PhaseRow{Phase: "phase1", Data: records("200"), Seq: 5})
	assert.ErrorIs(t, err, tracker.ErrStaleWrite)
	got, _ = store.Load(ctx, "phase1")
	assert.True(t, decimal.NewFromInt(900).Equal(got.Data[0].Achieved))
}

func TestTrades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := func(s string) time.Time { d, _ := time.Parse(tradelog.DateLayout, s); return d }
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendTrade(ctx, tradelog.Trade{
		ID: "b", Date: day("2026-03-04"), Profit: decimal.RequireFromString("-80.25"), CreatedAt: now,
	}))
	require.NoError(t, store.AppendTrade(ctx, tradelog.Trade{
		ID: "a", Date: day("2026-03-03"), Profit: decimal.NewFromInt(500), Note: "EURUSD", CreatedAt: now.Add(time.Minute),
	}))

	trades, err := store.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].ID, "ordered by trade date")
	assert.Equal(t, "EURUSD", trades[0].Note)
	assert.True(t, decimal.RequireFromString("-80.25").Equal(trades[1].Profit))
	assert.Empty(t, trades[1].Note)

	require.NoError(t, store.ResetTrades(ctx))
	trades, err = store.ListTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestBookOverSQLite_SurvivesRestart(t *testing.T) {
	// GIVEN: A file database and a book that records an edit
	path := filepath.Join(t.TempDir(), "tracker.db")
	tmpl := &tracker.PhaseTemplate{
		ID: "phase1", Name: "Phase 1", Version: 1, StartWeekday: time.Monday,
		Days: []tracker.TemplateDay{{Target: decimal.NewFromInt(1000)}, {Target: decimal.NewFromInt(150)}},
	}
	templates, err := tracker.NewTemplateSet(tmpl)
	require.NoError(t, err)

	store, err := New(path)
	require.NoError(t, err)
	book := tracker.NewBook(store, templates, tracker.NewSaveQueue(store, tracker.DefaultRetryPolicy()))
	require.NoError(t, book.Open(context.Background()))
	_, err = book.SetAchieved("phase1", 2, decimal.NewFromInt(75))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, book.Close(ctx))
	require.NoError(t, store.Close())

	// WHEN: Reopening the database with a new book
	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()
	book = tracker.NewBook(store, templates, nil)
	require.NoError(t, book.Open(context.Background()))

	// THEN: The edit is there
	p, err := book.Phase("phase1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.Seq)
	assert.Equal(t, "6.5", p.Summary().Percent.StringFixed(1))
}

func TestTwoBooksOnOneDatabase_FirstWriteWins(t *testing.T) {
	// GIVEN: Two books opened on the same empty database
	db := newTestStore(t)
	tmpl := &tracker.PhaseTemplate{
		ID: "phase1", Name: "Phase 1", Version: 1, StartWeekday: time.Monday,
		Days: []tracker.TemplateDay{{Target: decimal.NewFromInt(1000)}, {Target: decimal.NewFromInt(1000)}},
	}
	templates, err := tracker.NewTemplateSet(tmpl)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	open := func() *tracker.Book {
		book := tracker.NewBook(db, templates, tracker.NewSaveQueue(db, tracker.DefaultRetryPolicy()))
		require.NoError(t, book.Open(ctx))
		t.Cleanup(func() { book.Close(context.Background()) })
		return book
	}
	a, b := open(), open()

	// WHEN: Each makes a different edit from the same starting row
	_, err = a.SetAchieved("phase1", 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, a.Queue().Flush(ctx))
	_, err = b.SetAchieved("phase1", 2, decimal.NewFromInt(200))
	require.NoError(t, err)
	require.NoError(t, b.Queue().Flush(ctx))

	// THEN: The first write is kept and the second book is told it lost
	row, err := db.Load(ctx, "phase1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), row.Seq)
	assert.True(t, decimal.NewFromInt(100).Equal(row.Data[0].Achieved))
	assert.True(t, row.Data[1].Achieved.IsZero())

	status, _ := b.Queue().Status("phase1")
	assert.True(t, status.Stale)
	status, _ = a.Queue().Status("phase1")
	assert.False(t, status.Stale)
}
