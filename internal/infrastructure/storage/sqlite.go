package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/perp_screener/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time; ledger replaces run inside a transaction.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ledger TEXT NOT NULL,
			symbol TEXT NOT NULL,
			signal TEXT NOT NULL,
			entry_price REAL NOT NULL,
			pnl_percent REAL NOT NULL DEFAULT 0,
			last_checked DATETIME,
			opened_at DATETIME NOT NULL,
			cycle_id TEXT NOT NULL DEFAULT '',
			levels TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_ledger ON positions(ledger);`,
		`CREATE TABLE IF NOT EXISTS position_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ledger TEXT NOT NULL,
			symbol TEXT NOT NULL,
			signal TEXT NOT NULL,
			entry_price REAL NOT NULL,
			pnl_percent REAL NOT NULL,
			cycle_id TEXT NOT NULL,
			opened_at DATETIME NOT NULL,
			closed_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// LedgerStore Implementation

func (s *SQLiteStore) LoadPositions(ctx context.Context, kind domain.LedgerKind) ([]domain.Position, error) {
	query := `SELECT symbol, signal, entry_price, pnl_percent, last_checked, opened_at, cycle_id, levels FROM positions WHERE ledger = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var (
			p           domain.Position
			lastChecked sql.NullTime
			levels      sql.NullString
		)
		if err := rows.Scan(&p.Symbol, &p.Signal, &p.EntryPrice, &p.PnLPercent, &lastChecked, &p.OpenedAt, &p.CycleID, &levels); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLedgerCorrupt, err)
		}
		if lastChecked.Valid {
			t := lastChecked.Time
			p.LastChecked = &t
		}
		if levels.Valid && levels.String != "" {
			var l domain.SwingLevels
			if err := json.Unmarshal([]byte(levels.String), &l); err != nil {
				return nil, fmt.Errorf("%s levels: %w: %w", p.Symbol, domain.ErrLedgerCorrupt, err)
			}
			p.Levels = &l
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *SQLiteStore) SavePositions(ctx context.Context, kind domain.LedgerKind, positions []domain.Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE ledger = ?`, string(kind)); err != nil {
		return err
	}

	query := `INSERT INTO positions (ledger, symbol, signal, entry_price, pnl_percent, last_checked, opened_at, cycle_id, levels)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range positions {
		var lastChecked sql.NullTime
		if p.LastChecked != nil {
			lastChecked = sql.NullTime{Time: *p.LastChecked, Valid: true}
		}
		var levels sql.NullString
		if p.Levels != nil {
			raw, err := json.Marshal(p.Levels)
			if err != nil {
				return err
			}
			levels = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query,
			string(kind), p.Symbol, string(p.Signal), p.EntryPrice, p.PnLPercent, lastChecked, p.OpenedAt, p.CycleID, levels); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PositionArchiver Implementation

func (s *SQLiteStore) ArchivePositions(ctx context.Context, history []domain.PositionHistory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO position_history (ledger, symbol, signal, entry_price, pnl_percent, cycle_id, opened_at, closed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, h := range history {
		if _, err := tx.ExecContext(ctx, query,
			string(h.Ledger), h.Symbol, string(h.Signal), h.EntryPrice, h.PnLPercent, h.CycleID, h.OpenedAt, h.ClosedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListPositionHistory(ctx context.Context, limit int) ([]domain.PositionHistory, error) {
	query := `SELECT id, ledger, symbol, signal, entry_price, pnl_percent, cycle_id, opened_at, closed_at FROM position_history ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.PositionHistory
	for rows.Next() {
		var h domain.PositionHistory
		if err := rows.Scan(&h.ID, &h.Ledger, &h.Symbol, &h.Signal, &h.EntryPrice, &h.PnLPercent, &h.CycleID, &h.OpenedAt, &h.ClosedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
