/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements tracker.Gateway (one row per phase) and tradelog.Store (the
  trade list) on SQLite.

INTERFACES IMPLEMENTED:
  tracker.Gateway: Load / Save of phase rows
  tradelog.Store:  AppendTrade / ListTrades

KEY TABLES:
  tracker: phase TEXT PRIMARY KEY, data (JSON DayRecord[]), seq, updated_at
  trades:  one row per recorded trade

UPSERT:
  Save is INSERT ... ON CONFLICT(phase) DO UPDATE, guarded by
  "excluded.seq > tracker.seq". A write carrying an older or equal edit
  sequence changes nothing and is reported as tracker.ErrStaleWrite.

AMOUNTS:
  Stored as decimal strings inside JSON numbers (data column) or TEXT
  (trades.profit) so no precision is lost on the way through SQLite.

WAL MODE:
  Opened with WAL journaling. ":memory:" databases are pinned to one
  connection so every query sees the same database.

USAGE:
  store, err := sqlite.New("./data/tracker.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - tracker/store.go:        Gateway contract
  - tracker/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- One row per phase; data is the JSON array of day records
	CREATE TABLE IF NOT EXISTS tracker (
		phase TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		seq INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	-- Trade log
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		trade_date TEXT NOT NULL,
		profit TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_date
		ON trades(trade_date, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PHASE GATEWAY (tracker.Gateway interface)
// =============================================================================

// Load returns the row for a phase or tracker.ErrPhaseNotFound.
func (s *Store) Load(ctx context.Context, phase tracker.PhaseKey) (tracker.PhaseRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		dataJSON  string
		seq       int64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, seq, updated_at FROM tracker WHERE phase = ?`,
		string(phase),
	).Scan(&dataJSON, &seq, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.PhaseRow{}, tracker.ErrPhaseNotFound
	}
	if err != nil {
		return tracker.PhaseRow{}, fmt.Errorf("failed to load phase %s: %w", phase, err)
	}

	var data []tracker.DayRecord
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return tracker.PhaseRow{}, fmt.Errorf("failed to decode phase %s: %w", phase, err)
	}

	row := tracker.PhaseRow{Phase: phase, Data: data, Seq: uint64(seq)}
	row.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return row, nil
}

// Save upserts a phase row keyed on phase.
func (s *Store) Save(ctx context.Context, row tracker.PhaseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataJSON, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("failed to encode phase %s: %w", row.Phase, err)
	}
	updatedAt := row.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tracker (phase, data, seq, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(phase) DO UPDATE SET
			data = excluded.data,
			seq = excluded.seq,
			updated_at = excluded.updated_at
		WHERE excluded.seq > tracker.seq
	`
	res, err := s.db.ExecContext(ctx, query,
		string(row.Phase),
		string(dataJSON),
		int64(row.Seq),
		updatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save phase %s: %w", row.Phase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tracker.ErrStaleWrite
	}
	return nil
}

// ListPhases returns the keys of every stored phase.
func (s *Store) ListPhases(ctx context.Context) ([]tracker.PhaseKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT phase FROM tracker ORDER BY phase`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []tracker.PhaseKey
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, tracker.PhaseKey(k))
	}
	return keys, rows.Err()
}

// =============================================================================
// TRADE STORE (tradelog.Store interface)
// =============================================================================

// AppendTrade inserts a trade.
func (s *Store) AppendTrade(ctx context.Context, t tradelog.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, trade_date, profit, note, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Date.Format(tradelog.DateLayout),
		t.Profit.String(),
		nullString(t.Note),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append trade: %w", err)
	}
	return nil
}

// ListTrades returns every trade ordered by date and creation time.
func (s *Store) ListTrades(ctx context.Context) ([]tradelog.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trade_date, profit, note, created_at
		FROM trades
		ORDER BY trade_date ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []tradelog.Trade
	for rows.Next() {
		var (
			t                       tradelog.Trade
			date, profit, createdAt string
			note                    sql.NullString
		)
		if err := rows.Scan(&t.ID, &date, &profit, &note, &createdAt); err != nil {
			return nil, err
		}
		if t.Date, err = time.Parse(tradelog.DateLayout, date); err != nil {
			return nil, fmt.Errorf("trade %s: bad date %q: %w", t.ID, date, err)
		}
		if t.Profit, err = decimal.NewFromString(profit); err != nil {
			return nil, fmt.Errorf("trade %s: bad profit %q: %w", t.ID, profit, err)
		}
		t.Note = note.String
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// ResetTrades deletes every trade. Used by demo scenarios.
func (s *Store) ResetTrades(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM trades`)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
