package repository

import (
	"context"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minuteBars(start time.Time, closes ...float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestMemoryBarStoreOrdersAndReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBarStore(0)
	t0 := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.WriteBars(ctx, "EURUSD=X", domrepo.TF1m, minuteBars(t0.Add(2*time.Minute), 3, 4)))
	require.NoError(t, s.WriteBars(ctx, "EURUSD=X", domrepo.TF1m, minuteBars(t0, 1, 2, 30)))

	got, err := s.LatestSeries(ctx, "EURUSD=X", 10, domrepo.TF1m)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 30, 4}, got.Closes())
	assert.NoError(t, got.Validate())

	last2, err := s.LatestSeries(ctx, "EURUSD=X", 2, domrepo.TF1m)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 4}, last2.Closes())
}

func TestMemoryBarStoreCapacityAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBarStore(3)
	t0 := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.WriteBars(ctx, "GC=F", domrepo.TF1m, minuteBars(t0, 1, 2, 3, 4, 5)))
	got, err := s.LatestSeries(ctx, "GC=F", 0, domrepo.TF1m)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5}, got.Closes())

	other, err := s.LatestSeries(ctx, "GC=F", 10, domrepo.TF5m)
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = s.LatestSeries(ctx, "GC=F", 10, domrepo.Timeframe("1h"))
	assert.Error(t, err)
}
