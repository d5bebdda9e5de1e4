package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DecisionSchema creates the decision table. Safe to run on every start.
const DecisionSchema = `
	CREATE TABLE IF NOT EXISTS trading_signals (
		id           BIGSERIAL PRIMARY KEY,
		asset        TEXT NOT NULL,
		signal_type  TEXT NOT NULL CHECK (signal_type IN ('BUY', 'SELL')),
		entry_price  DOUBLE PRECISION NOT NULL,
		expiry_time  INTEGER NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		result       TEXT NULL CHECK (result IN ('WIN', 'LOSS')),
		profit_loss  DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS trading_signals_created_at_idx ON trading_signals (created_at DESC);
	CREATE INDEX IF NOT EXISTS trading_signals_active_idx ON trading_signals (is_active) WHERE is_active;`

const decisionColumns = `id, asset, signal_type, entry_price, expiry_time, confidence, created_at, is_active, result, profit_loss`

type decisionRow struct {
	ID         int64          `db:"id"`
	Asset      string         `db:"asset"`
	SignalType string         `db:"signal_type"`
	EntryPrice float64        `db:"entry_price"`
	ExpiryTime int            `db:"expiry_time"`
	Confidence float64        `db:"confidence"`
	CreatedAt  time.Time      `db:"created_at"`
	IsActive   bool           `db:"is_active"`
	Result     sql.NullString `db:"result"`
	ProfitLoss float64        `db:"profit_loss"`
}

func (r decisionRow) toModel() models.SignalDecision {
	return models.SignalDecision{
		ID:            r.ID,
		Asset:         r.Asset,
		Direction:     models.Direction(r.SignalType),
		EntryPrice:    r.EntryPrice,
		ExpiryMinutes: r.ExpiryTime,
		Confidence:    r.Confidence,
		CreatedAt:     r.CreatedAt.UTC(),
		IsActive:      r.IsActive,
		Result:        models.Result(r.Result.String),
		ProfitLoss:    r.ProfitLoss,
	}
}

// PostgresDecisionStore implements DecisionStore on PostgreSQL.
type PostgresDecisionStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgresDecisionStore(db *sqlx.DB, timeout time.Duration) *PostgresDecisionStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresDecisionStore{db: db, timeout: timeout}
}

// InitSchema applies DecisionSchema.
func (s *PostgresDecisionStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, DecisionSchema); err != nil {
		return fmt.Errorf("init decision schema: %w", err)
	}
	return nil
}

// Append writes the full record in one statement and assigns d.ID.
func (s *PostgresDecisionStore) Append(ctx context.Context, d *models.SignalDecision) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result sql.NullString
	if d.Result != models.ResultUnset {
		result = sql.NullString{String: string(d.Result), Valid: true}
	}

	query := `
		INSERT INTO trading_signals (asset, signal_type, entry_price, expiry_time, confidence, created_at, is_active, result, profit_loss)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := s.db.QueryRowxContext(ctx, query,
		d.Asset, string(d.Direction), d.EntryPrice, d.ExpiryMinutes, d.Confidence,
		d.CreatedAt, d.IsActive, result, d.ProfitLoss).
		Scan(&d.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" {
			return fmt.Errorf("decision violates constraint %s: %w", pqErr.Constraint, err)
		}
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *PostgresDecisionStore) Get(ctx context.Context, id int64) (*models.SignalDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row decisionRow
	err := s.db.GetContext(ctx, &row, `SELECT `+decisionColumns+` FROM trading_signals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get decision %d: %w", id, err)
	}
	d := row.toModel()
	return &d, nil
}

// Settle performs the one-time settlement. The result IS NULL guard makes a
// concurrent second settlement lose the race.
func (s *PostgresDecisionStore) Settle(ctx context.Context, id int64, result models.Result, profitLoss float64) (*models.SignalDecision, error) {
	if result != models.ResultWin && result != models.ResultLoss {
		return nil, models.ErrInvalidResult
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row decisionRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE trading_signals
		SET is_active = FALSE, result = $2, profit_loss = $3
		WHERE id = $1 AND result IS NULL
		RETURNING `+decisionColumns, id, string(result), profitLoss)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, models.ErrAlreadySettled
	}
	if err != nil {
		return nil, fmt.Errorf("settle decision %d: %w", id, err)
	}
	d := row.toModel()
	return &d, nil
}

func (s *PostgresDecisionStore) ListActive(ctx context.Context, limit int) ([]models.SignalDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []decisionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+decisionColumns+`
		FROM trading_signals
		WHERE is_active
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list active decisions: %w", err)
	}
	return toModels(rows), nil
}

func (s *PostgresDecisionStore) History(ctx context.Context, q domrepo.HistoryQuery) ([]models.SignalDecision, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var total int64
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM trading_signals WHERE ($1 = '' OR asset = $1)`, q.Asset); err != nil {
		return nil, 0, fmt.Errorf("count decisions: %w", err)
	}

	var rows []decisionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+decisionColumns+`
		FROM trading_signals
		WHERE ($1 = '' OR asset = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, q.Asset, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list decision history: %w", err)
	}
	return toModels(rows), total, nil
}

func (s *PostgresDecisionStore) ListSettled(ctx context.Context) ([]models.SignalDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []decisionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+decisionColumns+`
		FROM trading_signals
		WHERE result IS NOT NULL
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list settled decisions: %w", err)
	}
	return toModels(rows), nil
}

func toModels(rows []decisionRow) []models.SignalDecision {
	out := make([]models.SignalDecision, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out
}

var _ domrepo.DecisionStore = (*PostgresDecisionStore)(nil)
