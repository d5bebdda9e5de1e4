package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decisionCols = []string{"id", "asset", "signal_type", "entry_price", "expiry_time", "confidence", "created_at", "is_active", "result", "profit_loss"}

func newMockStore(t *testing.T) (*PostgresDecisionStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDecisionStore(sqlx.NewDb(db, "postgres"), time.Second), mock
}

func decisionRowValues(id int64, result driver.Value, active bool, pl float64) []driver.Value {
	created := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	return []driver.Value{id, "EUR/USD", "BUY", 1.105, 15, 70.0, created, active, result, pl}
}

func TestPostgresAppendAssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	d := &models.SignalDecision{
		Asset: "EUR/USD", Direction: models.DirectionBuy, EntryPrice: 1.105,
		ExpiryMinutes: 15, Confidence: 70, CreatedAt: time.Now().UTC(), IsActive: true,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trading_signals")).
		WithArgs("EUR/USD", "BUY", 1.105, 15, 70.0, d.CreatedAt, true, nil, 0.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, store.Append(context.Background(), d))
	assert.Equal(t, int64(42), d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM trading_signals WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(decisionCols))

	_, err := store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostgresSettleOnce(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE trading_signals")).
		WithArgs(int64(1), "WIN", 8.5).
		WillReturnRows(sqlmock.NewRows(decisionCols).AddRow(decisionRowValues(1, "WIN", false, 8.5)...))

	d, err := store.Settle(context.Background(), 1, models.ResultWin, 8.5)
	require.NoError(t, err)
	assert.Equal(t, models.ResultWin, d.Result)
	assert.False(t, d.IsActive)
	assert.Equal(t, 8.5, d.ProfitLoss)

	// second settlement: guard matches nothing, row exists
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE trading_signals")).
		WithArgs(int64(1), "LOSS", -10.0).
		WillReturnRows(sqlmock.NewRows(decisionCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM trading_signals WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(decisionCols).AddRow(decisionRowValues(1, "WIN", false, 8.5)...))

	_, err = store.Settle(context.Background(), 1, models.ResultLoss, -10)
	assert.True(t, errors.Is(err, models.ErrAlreadySettled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSettleRejectsUnknownResult(t *testing.T) {
	store, _ := newMockStore(t)
	_, err := store.Settle(context.Background(), 1, models.Result("DRAW"), 0)
	assert.ErrorIs(t, err, models.ErrInvalidResult)
}

func TestPostgresHistory(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM trading_signals")).
		WithArgs("EUR/USD").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
		WithArgs("EUR/USD", 2, 0).
		WillReturnRows(sqlmock.NewRows(decisionCols).
			AddRow(decisionRowValues(3, nil, true, 0)...).
			AddRow(decisionRowValues(2, "LOSS", false, -10)...))

	rows, total, err := store.History(context.Background(), domrepo.HistoryQuery{Asset: "EUR/USD", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ResultUnset, rows[0].Result)
	assert.Equal(t, models.ResultLoss, rows[1].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSettled(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE result IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows(decisionCols).AddRow(decisionRowValues(1, "WIN", false, 8.5)...))

	rows, err := store.ListSettled(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Settled())
}
