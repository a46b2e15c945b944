package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
)

// ClickHouseHistoryStore records qualifying scan results per cycle for offline
// analysis.
type ClickHouseHistoryStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseHistoryStore creates ClickHouse-backed scan history storage.
func NewClickHouseHistoryStore(db *sql.DB, table string) repository.HistoryStore {
	return &ClickHouseHistoryStore{db: db, table: table}
}

// StoreCycle inserts one row per qualifying result in a single multi-row
// statement.
func (s *ClickHouseHistoryStore) StoreCycle(ctx context.Context, report *models.CycleReport) error {
	if report == nil || len(report.Results) == 0 {
		return nil
	}

	values := make([]string, 0, len(report.Results))
	args := make([]interface{}, 0, len(report.Results)*9)
	for _, r := range report.Results {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			report.StartedAt,
			r.Symbol,
			string(r.Direction),
			r.Score,
			r.Confidence,
			r.ChangePct,
			r.ATR,
			r.BookImbalance,
			r.LastPrice,
		)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (cycle_ts, symbol, direction, score, confidence, change_pct, atr, book_imbalance, last_price) VALUES %s",
		s.table, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store cycle: %w", err)
	}
	return nil
}

// QueryRange returns persisted results for one symbol in [from, to), newest
// first. An empty symbol matches all instruments.
func (s *ClickHouseHistoryStore) QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.HistoryEntry, error) {
	q := fmt.Sprintf(
		"SELECT cycle_ts, symbol, direction, score, confidence, change_pct, atr, book_imbalance, last_price FROM %s WHERE cycle_ts >= ? AND cycle_ts < ?",
		s.table,
	)
	args := []interface{}{from, to}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY cycle_ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var direction string
		if err := rows.Scan(
			&e.CycleTS,
			&e.Symbol,
			&direction,
			&e.Score,
			&e.Confidence,
			&e.ChangePct,
			&e.ATR,
			&e.BookImbalance,
			&e.LastPrice,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Direction = models.Direction(direction)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Health pings the underlying connection pool.
func (s *ClickHouseHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
