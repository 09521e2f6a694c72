// Package journal persists an append-only audit trail of executed
// trades to a local sqlite database. The journal is write-only from
// the bot's point of view: nothing in the running system reads it
// back, it exists for offline inspection.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/algofleet/algofleet/internal/portfolio"
)

// Journal is an append-only trade log backed by sqlite.
type Journal struct {
	db *sql.DB
}

// Record is one journaled trade as stored on disk.
type Record struct {
	ID           string
	Symbol       string
	Side         string
	Qty          uint64
	Price        string
	RealizedPnL  string
	TsUnixMillis int64
}

// Open creates or opens the journal at path, creating parent
// directories as needed.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			qty INTEGER NOT NULL,
			price TEXT NOT NULL,
			realized_pnl TEXT NOT NULL,
			ts_unix_millis INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol_ts
			ON trades(symbol, ts_unix_millis)`,
	}
	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// Append writes one trade. The primary key makes re-appending a record
// with the same ID a no-op, so a caller retrying a write it is unsure
// about cannot duplicate rows.
func (j *Journal) Append(ctx context.Context, trade portfolio.Trade) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO trades (id, symbol, side, qty, price, realized_pnl, ts_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trade.ID,
		trade.Symbol,
		trade.Side.Code(),
		trade.Qty,
		trade.Price.String(),
		trade.RealizedPnL.String(),
		trade.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to append trade: %w", err)
	}
	return nil
}

// List returns the most recent trades, newest first. It exists for the
// journal's own tests and for offline tooling.
func (j *Journal) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, symbol, side, qty, price, realized_pnl, ts_unix_millis
		 FROM trades
		 ORDER BY ts_unix_millis DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Side, &rec.Qty, &rec.Price, &rec.RealizedPnL, &rec.TsUnixMillis); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of journaled trades.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
