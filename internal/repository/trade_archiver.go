package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"DashPull/internal/domain/models"
	"DashPull/internal/domain/repository"
)

// ArchiveSchema creates the closed-trades table.
var ArchiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS dash_trades_closed (
		trade_id      String,
		instrument    LowCardinality(String),
		direction     LowCardinality(String),
		units         Float64,
		entry_price   Float64,
		exit_price    Float64,
		profit_loss   Float64,
		profit_pips   Float64,
		open_time     DateTime64(3),
		close_time    DateTime64(3),
		close_reason  LowCardinality(String)
	) ENGINE = ReplacingMergeTree
	ORDER BY (instrument, close_time, trade_id)`,
}

// ClickHouseArchiver persists closed trades into ClickHouse. Re-archiving
// the same trade is harmless; the ReplacingMergeTree collapses duplicates
// on the trade key.
type ClickHouseArchiver struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchiver creates the archiver.
func NewClickHouseArchiver(db *sql.DB, table string) repository.Archiver {
	if table == "" {
		table = "dash_trades_closed"
	}
	return &ClickHouseArchiver{db: db, table: table}
}

func (a *ClickHouseArchiver) ArchiveTrades(ctx context.Context, trades []models.Trade) error {
	const chunkSize = 1000
	for start := 0; start < len(trades); start += chunkSize {
		end := start + chunkSize
		if end > len(trades) {
			end = len(trades)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*11)
		for _, t := range trades[start:end] {
			if !t.Closed() || t.ID == 0 {
				continue
			}
			var exit float64
			if t.ExitPrice != nil {
				exit = *t.ExitPrice
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				t.ID,
				t.Instrument,
				string(t.Direction),
				t.Units,
				t.EntryPrice,
				exit,
				t.ProfitLoss,
				t.ProfitPips,
				t.OpenTime,
				*t.CloseTime,
				t.CloseReason,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (trade_id, instrument, direction, units, entry_price, exit_price, profit_loss, profit_pips, open_time, close_time, close_reason) VALUES %s",
			a.table, strings.Join(values, ","),
		)
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive trades: %w", err)
		}
	}
	return nil
}

func (a *ClickHouseArchiver) RecentTrades(ctx context.Context, instrument string, from, to time.Time, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	where := "close_time >= ? AND close_time <= ?"
	args := []interface{}{from, to}
	if instrument != "" {
		where = "instrument = ? AND " + where
		args = append([]interface{}{instrument}, args...)
	}
	args = append(args, limit)
	q := fmt.Sprintf(
		"SELECT trade_id, instrument, direction, units, entry_price, exit_price, profit_loss, profit_pips, open_time, close_time, close_reason FROM %s WHERE %s ORDER BY close_time DESC LIMIT ?",
		a.table, where,
	)

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var direction string
		var exit float64
		var closeTime time.Time
		if err := rows.Scan(&t.ID, &t.Instrument, &direction, &t.Units, &t.EntryPrice,
			&exit, &t.ProfitLoss, &t.ProfitPips, &t.OpenTime, &closeTime, &t.CloseReason); err != nil {
			return nil, err
		}
		t.Direction = models.Direction(direction)
		t.ExitPrice = &exit
		t.CloseTime = &closeTime
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (a *ClickHouseArchiver) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchiver) Close() error {
	return nil // connection owned by pkg/clickhouse
}
