package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"FinSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFromCloses(closes []float64) models.Series {
	start := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	s := make(models.Series, len(closes))
	for i, c := range closes {
		s[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c + 0.0002,
			Low:       c - 0.0002,
			Close:     c,
			Volume:    100,
		}
	}
	return s
}

func zigzag(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.1 + 0.001*math.Sin(float64(i)/3) + 0.0004*float64(i%4)
	}
	return out
}

func TestSMAWarmupAndValue(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4}, 3)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
}

func TestEMAIsDefinedFromFirstPoint(t *testing.T) {
	got := EMA([]float64{1, 2}, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	// weights 1 and 0.5: (2 + 0.5*1) / 1.5
	assert.InDelta(t, 2.5/1.5, got[1], 1e-12)
}

func TestRollingStdIsSampleStd(t *testing.T) {
	got := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	assert.InDelta(t, math.Sqrt(32.0/7.0), got[7], 1e-12)
	assert.True(t, math.IsNaN(got[6]))
}

func TestRSISmallPeriod(t *testing.T) {
	got := RSI([]float64{1, 2, 1}, 2)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 100.0, got[1])
	assert.InDelta(t, 50.0, got[2], 1e-12)
}

func TestRSISaturatesOnRisingSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 1.1 + 0.0001*float64(i)
	}
	got := RSI(closes, 14)
	for i := 0; i < 13; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d should be warm-up", i)
	}
	for i := 13; i < len(got); i++ {
		assert.Equal(t, 100.0, got[i])
	}
}

func TestRSIFlatSeriesIsHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 1.5
	}
	got := RSI(closes, 14)
	assert.Equal(t, 100.0, got[19])
}

func TestRSIStaysInRange(t *testing.T) {
	got := RSI(zigzag(300), 14)
	for i, v := range got {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi out of range at %d: %v", i, v)
		}
	}
}

func TestStochasticFlatRangeIsUndefined(t *testing.T) {
	flat := []float64{1, 1, 1, 1}
	k, d := Stochastic(flat, flat, flat, 3, 2)
	for i := range k {
		assert.True(t, math.IsNaN(k[i]))
		assert.True(t, math.IsNaN(d[i]))
	}
}

func TestWilliamsRRange(t *testing.T) {
	high := []float64{2, 3, 4}
	low := []float64{1, 1, 2}
	close := []float64{1.5, 2, 4}
	got := WilliamsR(high, low, close, 3)
	assert.InDelta(t, 0.0, got[2], 1e-12)

	got = WilliamsR(high, low, []float64{1.5, 2, 1}, 3)
	assert.InDelta(t, -100.0, got[2], 1e-12)
}

func TestVolatilityWarmup(t *testing.T) {
	got := Volatility(zigzag(30), 20)
	assert.True(t, math.IsNaN(got[19]))
	assert.False(t, math.IsNaN(got[20]))
}

func TestDivergenceIgnoresUndefined(t *testing.T) {
	nan := math.NaN()
	bull, bear := Divergence(
		[]float64{nan, -1, 1},
		[]float64{1, 1, -1},
		[]float64{20, 20, 80},
	)
	assert.Equal(t, []bool{false, true, false}, bull)
	assert.Equal(t, []bool{false, false, true}, bear)
}

func TestEnrichAlignsColumns(t *testing.T) {
	s := seriesFromCloses(zigzag(150))
	es, err := Enrich(s)
	require.NoError(t, err)

	require.Len(t, es.Columns, 2*len(models.MovingAverageWindows)+14)
	for name, col := range es.Columns {
		assert.Len(t, col, len(s), "column %s", name)
	}
	assert.Len(t, es.BullishDivergence, len(s))
	assert.Len(t, es.BearishDivergence, len(s))

	// 200-bar averages never warm up on 150 bars
	assert.True(t, math.IsNaN(es.Latest(models.SMAColumn(200))))
	assert.False(t, math.IsNaN(es.Latest(models.EMAColumn(200))))
	assert.False(t, math.IsNaN(es.Latest(models.ColBBUpper)))
}

func TestEnrichRejectsMalformedSeries(t *testing.T) {
	s := seriesFromCloses(zigzag(10))
	s[5].Timestamp = s[4].Timestamp
	_, err := Enrich(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInputFault))

	s = seriesFromCloses(zigzag(10))
	s[3].Close = -1
	_, err = Enrich(s)
	assert.True(t, errors.Is(err, models.ErrInputFault))
}

func TestMACDReferenceValues(t *testing.T) {
	line, signal, hist := MACD([]float64{1, 2})

	assert.InDelta(t, 0.0, line[0], 1e-15)
	assert.InDelta(t, 0.0, signal[0], 1e-15)
	assert.InDelta(t, 0.0, hist[0], 1e-15)

	// EMA12 = (2 + 11/13) / (1 + 11/13) = 37/24, EMA26 = (2 + 25/27) / (1 + 25/27) = 79/52
	assert.InDelta(t, 37.0/24-79.0/52, line[1], 1e-12)
	assert.InDelta(t, 7.0/312, line[1], 1e-12)
	// EMA9 weights 1 and 0.8 over [0, 7/312]
	assert.InDelta(t, 7.0/312/1.8, signal[1], 1e-12)
	assert.InDelta(t, 7.0/702, hist[1], 1e-12)

	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 1.25
	}
	line, signal, hist = MACD(flat)
	assert.InDelta(t, 0.0, line[39], 1e-12)
	assert.InDelta(t, 0.0, signal[39], 1e-12)
	assert.InDelta(t, 0.0, hist[39], 1e-12)
}

func TestBollingerReferenceValues(t *testing.T) {
	upper, middle, lower := Bollinger([]float64{1, 2, 3, 4}, 3, 2)
	assert.True(t, math.IsNaN(upper[1]))
	assert.InDelta(t, 2.0, middle[2], 1e-12)
	assert.InDelta(t, 4.0, upper[2], 1e-12)
	assert.InDelta(t, 0.0, lower[2], 1e-12)
	assert.InDelta(t, 5.0, upper[3], 1e-12)
	assert.InDelta(t, 1.0, lower[3], 1e-12)
}

func TestStochasticReferenceValues(t *testing.T) {
	high := []float64{10, 11, 12, 11}
	low := []float64{8, 9, 10, 9}
	closes := []float64{9, 10, 11, 10}

	k, d := Stochastic(high, low, closes, 3, 2)
	assert.True(t, math.IsNaN(k[1]))
	assert.InDelta(t, 75.0, k[2], 1e-12)
	assert.InDelta(t, 100.0/3, k[3], 1e-12)
	assert.True(t, math.IsNaN(d[2]))
	assert.InDelta(t, (75.0+100.0/3)/2, d[3], 1e-12)

	w := WilliamsR(high, low, closes, 3)
	assert.InDelta(t, -25.0, w[2], 1e-12)
	assert.InDelta(t, -200.0/3, w[3], 1e-12)
}

func TestEnrichReferenceColumns(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1.0 + 0.001*float64(i)
	}
	es, err := Enrich(seriesFromCloses(closes))
	require.NoError(t, err)

	// last 20 closes step by 0.001: mean 1.0195, sample std 0.001*sqrt(35)
	std := 0.001 * math.Sqrt(35)
	assert.InDelta(t, 1.0195, es.Latest(models.ColBBMiddle), 1e-12)
	assert.InDelta(t, 1.0195+2*std, es.Latest(models.ColBBUpper), 1e-12)
	assert.InDelta(t, 1.0195-2*std, es.Latest(models.ColBBLower), 1e-12)

	mom := es.Columns[models.ColPriceMomentum]
	assert.True(t, math.IsNaN(mom[4]))
	assert.InDelta(t, 0.005, mom[5], 1e-12)
	assert.InDelta(t, 0.005, es.Latest(models.ColPriceMomentum), 1e-12)

	// RSI sits at 100 on a strictly rising series, so its momentum is zero
	assert.Equal(t, 100.0, es.Latest(models.ColRSI14))
	assert.InDelta(t, 0.0, es.Latest(models.ColRSIMomentum), 1e-12)
	assert.False(t, es.BearishDivergence[len(closes)-1])

	// seriesFromCloses puts every bar 0.0002 either side of its close
	k := es.Columns[models.ColStochK]
	lo, hi := closes[16]-0.0002, closes[29]+0.0002
	assert.InDelta(t, 100*(closes[29]-lo)/(hi-lo), k[29], 1e-9)
}
