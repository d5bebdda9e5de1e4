package analytics

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/indicators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enriched(t *testing.T, n int) *models.EnrichedSeries {
	t.Helper()
	start := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)
	s := make(models.Series, n)
	for i := range s {
		c := 1.1 + 0.0001*float64(i%7)
		s[i] = models.Bar{Timestamp: start.Add(time.Duration(i) * time.Minute), Open: c, High: c + 0.0003, Low: c - 0.0003, Close: c, Volume: 1}
	}
	es, err := indicators.Enrich(s)
	require.NoError(t, err)
	return es
}

func TestStructureAnalyzerSendsNullWarmup(t *testing.T) {
	var got structureRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/structure/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"signal":"buy","confidence":82.5}`))
	}))
	defer srv.Close()

	a := NewHTTPStructureAnalyzer(srv.URL, StructureConfig{Timeout: time.Second, Window: 30})
	op, err := a.Analyze(context.Background(), "EUR/USD", enriched(t, 40))
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, models.DirectionBuy, op.Direction)
	assert.Equal(t, 82.5, op.Confidence)

	assert.Equal(t, "EUR/USD", got.Asset)
	assert.Len(t, got.Bars, 30)
	// SMA_50 is still warming up at 40 bars
	require.Len(t, got.Columns[models.SMAColumn(50)], 30)
	assert.Nil(t, got.Columns[models.SMAColumn(50)][29])
	assert.NotNil(t, got.Columns[models.ColRSI14][29])
}

func TestStructureAnalyzerNoOpinion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"signal":"NEUTRAL","confidence":50}`))
	}))
	defer srv.Close()

	op, err := NewHTTPStructureAnalyzer(srv.URL, StructureConfig{}).Analyze(context.Background(), "EUR/USD", enriched(t, 20))
	require.NoError(t, err)
	assert.Nil(t, op)
}

func TestStructureAnalyzerRetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewHTTPStructureAnalyzer(srv.URL, StructureConfig{Retries: 2})
	_, err := a.Analyze(context.Background(), "EUR/USD", enriched(t, 20))
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestNullable(t *testing.T) {
	out := nullable([]float64{1, math.NaN(), 3})
	require.Len(t, out, 3)
	assert.Equal(t, 1.0, *out[0])
	assert.Nil(t, out[1])
}

