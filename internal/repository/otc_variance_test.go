package repository

import (
	"context"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/services/instruments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedMarket struct {
	symbols []string
	series  models.Series
}

func (f *fixedMarket) LatestSeries(_ context.Context, symbol string, _ int, _ domrepo.Timeframe) (models.Series, error) {
	f.symbols = append(f.symbols, symbol)
	return f.series, nil
}

func sampleSeries() models.Series {
	t0 := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := make(models.Series, 50)
	for i := range s {
		c := 1.1 + 0.0001*float64(i)
		s[i] = models.Bar{Timestamp: t0.Add(time.Duration(i) * time.Minute), Open: c, High: c + 0.0002, Low: c - 0.0002, Close: c + 0.0001, Volume: 1}
	}
	return s
}

func TestInstrumentSourceOTCVariance(t *testing.T) {
	base := sampleSeries()
	next := &fixedMarket{series: base}
	src := NewInstrumentSource(next, instruments.DataSymbol, instruments.IsOTC, true)

	got, err := src.LatestSeries(context.Background(), "EUR/USD (OTC)", 50, domrepo.TF1m)
	require.NoError(t, err)
	require.Len(t, got, len(base))
	assert.Equal(t, []string{"EURUSD=X"}, next.symbols)
	require.NoError(t, got.Validate())

	for i := range got {
		f := got[i].Close / base[i].Close
		assert.InDelta(t, 1.0, f, 0.0005+1e-12)
		assert.InDelta(t, f, got[i].Open/base[i].Open, 1e-9)
		assert.Equal(t, base[i].Timestamp, got[i].Timestamp)
	}
	// source bars are untouched
	assert.Equal(t, 1.1, base[0].Open)
}

func TestInstrumentSourcePassesThroughStandardAssets(t *testing.T) {
	base := sampleSeries()
	next := &fixedMarket{series: base}
	src := NewInstrumentSource(next, instruments.DataSymbol, instruments.IsOTC, true)

	got, err := src.LatestSeries(context.Background(), "EUR/USD", 50, domrepo.TF1m)
	require.NoError(t, err)
	assert.Equal(t, base, got)

	off := NewInstrumentSource(next, instruments.DataSymbol, instruments.IsOTC, false)
	got, err = off.LatestSeries(context.Background(), "Gold (OTC)", 50, domrepo.TF1m)
	require.NoError(t, err)
	assert.Equal(t, base, got)
	assert.Equal(t, "GC=F", next.symbols[len(next.symbols)-1])
}
