package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerateResponseDropsNaNVolatility(t *testing.T) {
	resp := NewGenerateResponse(&Evaluation{Reason: ReasonInsufficientBars, Volatility: math.NaN()})
	assert.Nil(t, resp.Volatility)

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"signal":null,"reason":"insufficient_bars"}`, string(b))

	resp = NewGenerateResponse(&Evaluation{Volatility: 0.012})
	require.NotNil(t, resp.Volatility)
	assert.Equal(t, 0.012, *resp.Volatility)
}

func TestNewPerformanceResponseRounds(t *testing.T) {
	resp := NewPerformanceResponse(PerformanceAggregate{Total: 3, Wins: 2, Losses: 1, WinRate: 66.666666, TotalProfit: 7.004999})
	assert.Equal(t, 66.67, resp.WinRate)
	assert.Equal(t, 7.0, resp.TotalProfit)
	assert.Equal(t, 3, resp.TotalSignals)
}
