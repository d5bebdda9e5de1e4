package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgch "FinSignal/pkg/clickhouse"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCHBarStoreLatestSeriesReturnsAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t0 := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"t", "open", "high", "low", "close", "volume"}).
		AddRow(t0.Add(2*time.Minute), 1.3, 1.4, 1.2, 1.3, 5.0).
		AddRow(t0.Add(time.Minute), 1.2, 1.3, 1.1, 1.2, 5.0).
		AddRow(t0, 1.1, 1.2, 1.0, 1.1, 5.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM finsignal.bars_1m FINAL")).
		WithArgs("EURUSD=X", 3).
		WillReturnRows(rows)

	store := NewCHBarStore(pkgch.NewFromDB(db, "finsignal"))
	s, err := store.LatestSeries(context.Background(), "EURUSD=X", 3, domrepo.TF1m)
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, t0, s[0].Timestamp)
	assert.Equal(t, 1.3, s[2].Close)
	assert.NoError(t, s.Validate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHBarStoreWriteBars(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t0 := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		{Timestamp: t0, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 3},
		{Timestamp: t0.Add(time.Minute), Open: 1.15, High: 1.2, Low: 1.1, Close: 1.18, Volume: 4},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO finsignal.bars_1m"))
	prep.ExpectExec().WithArgs("EURUSD=X", t0, 1.1, 1.2, 1.0, 1.15, 3.0).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("EURUSD=X", t0.Add(time.Minute), 1.15, 1.2, 1.1, 1.18, 4.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewCHBarStore(pkgch.NewFromDB(db, "finsignal"))
	require.NoError(t, store.WriteBars(context.Background(), "EURUSD=X", domrepo.TF1m, bars))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHBarStoreRejectsUnknownTimeframe(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewCHBarStore(pkgch.NewFromDB(db, "finsignal"))
	_, err = store.LatestSeries(context.Background(), "X", 10, domrepo.Timeframe("1h"))
	assert.Error(t, err)
}

func TestBarSchema(t *testing.T) {
	stmts := BarSchema("finsignal")
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[2], "finsignal.bars_1m")
	assert.Contains(t, stmts[2], "ReplacingMergeTree")
}
