package models

import (
	"math"
	"strconv"
)

// Derived column names.
const (
	ColRSI14         = "RSI_14"
	ColRSI21         = "RSI_21"
	ColMACD          = "MACD"
	ColMACDSignal    = "MACD_signal"
	ColMACDHistogram = "MACD_histogram"
	ColBBUpper       = "BB_upper"
	ColBBMiddle      = "BB_middle"
	ColBBLower       = "BB_lower"
	ColStochK        = "Stoch_K"
	ColStochD        = "Stoch_D"
	ColWilliamsR     = "Williams_R"
	ColVolatility    = "volatility"
	ColPriceMomentum = "price_momentum"
	ColRSIMomentum   = "rsi_momentum"
)

// MovingAverageWindows are the SMA/EMA window sizes carried on every enriched series.
var MovingAverageWindows = []int{9, 21, 50, 100, 200}

func SMAColumn(window int) string { return "SMA_" + strconv.Itoa(window) }
func EMAColumn(window int) string { return "EMA_" + strconv.Itoa(window) }

// EnrichedSeries is a Series plus derived columns aligned index by index.
// Undefined warm-up values are NaN.
type EnrichedSeries struct {
	Series            Series
	Columns           map[string][]float64
	BullishDivergence []bool
	BearishDivergence []bool
}

func (e *EnrichedSeries) Len() int { return len(e.Series) }

// Column returns the named column or nil.
func (e *EnrichedSeries) Column(name string) []float64 {
	return e.Columns[name]
}

// Latest returns the last value of the named column, NaN when absent or empty.
func (e *EnrichedSeries) Latest(name string) float64 {
	col := e.Columns[name]
	if len(col) == 0 {
		return math.NaN()
	}
	return col[len(col)-1]
}

// LatestClose returns the close of the last bar, NaN for an empty series.
func (e *EnrichedSeries) LatestClose() float64 {
	if len(e.Series) == 0 {
		return math.NaN()
	}
	return e.Series[len(e.Series)-1].Close
}
