package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgch "FinSignal/pkg/clickhouse"
	applogger "FinSignal/pkg/logger"
)

// CHBarStore implements MarketData and BarWriter backed by ClickHouse.
type CHBarStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{db: ch.DB(), database: ch.Database(), l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// BarSchema returns the idempotent DDL for every bar table.
func BarSchema(database string) []string {
	stmts := []string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database)}
	for _, tf := range []domrepo.Timeframe{domrepo.TF1s, domrepo.TF1m, domrepo.TF5m} {
		stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol String,
            t DateTime,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, t)
    `, barTable(database, tf)))
	}
	return stmts
}

// LatestSeries returns up to n most recent bars, oldest first.
func (s *CHBarStore) LatestSeries(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (models.Series, error) {
	start := time.Now()
	if !domrepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("unsupported timeframe: %s", tf)
	}
	table := barTable(s.database, tf)
	const qtpl = `
        SELECT t, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY t DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, n)
	if err != nil {
		s.l.Error("clickhouse latest_bars query error",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make(models.Series, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.l.Error("clickhouse latest_bars scan error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	s.l.Debug("clickhouse latest_bars ok",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Int("limit", n),
		applogger.Int("rows", len(tmp)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return tmp, nil
}

// WriteBars inserts bars in one batch transaction.
func (s *CHBarStore) WriteBars(ctx context.Context, symbol string, tf domrepo.Timeframe, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if !domrepo.IsValidTimeframe(tf) {
		return fmt.Errorf("unsupported timeframe: %s", tf)
	}
	table := barTable(s.database, tf)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (symbol, t, open, high, low, close, volume)", table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append bar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.l.Error("clickhouse write_bars commit error",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("bars", len(bars)),
			applogger.Error(err),
		)
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func barTable(database string, tf domrepo.Timeframe) string {
	return fmt.Sprintf("%s.bars_%s", database, tf)
}

var (
	_ domrepo.MarketData = (*CHBarStore)(nil)
	_ domrepo.BarWriter  = (*CHBarStore)(nil)
)
