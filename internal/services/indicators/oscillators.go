package indicators

import "math"

// EMA is the exponentially weighted mean with span s, normalised by the sum of
// weights so it is defined from the first observation. NaN inputs decay the
// weights without contributing.
func EMA(x []float64, span int) []float64 {
	out := nanSlice(len(x))
	if span < 1 {
		return out
	}
	decay := 1 - 2/float64(span+1)
	num, den := 0.0, 0.0
	started := false
	for i, v := range x {
		if math.IsNaN(v) {
			if started {
				num *= decay
				den *= decay
				out[i] = num / den
			}
			continue
		}
		num = v + decay*num
		den = 1 + decay*den
		started = true
		out[i] = num / den
	}
	return out
}

// RSI uses simple rolling means of gains and losses. The first step counts as
// zero change. A zero mean loss saturates at 100.
func RSI(close []float64, period int) []float64 {
	gain := make([]float64, len(close))
	loss := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		d := close[i] - close[i-1]
		switch {
		case d > 0:
			gain[i] = d
		case d < 0:
			loss[i] = -d
		}
	}
	avgGain := SMA(gain, period)
	avgLoss := SMA(loss, period)

	out := nanSlice(len(close))
	for i := range close {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+g/l)
	}
	return out
}

// MACD returns the EMA(12)-EMA(26) line, its EMA(9) signal and the histogram.
func MACD(close []float64) (line, signal, hist []float64) {
	fast := EMA(close, 12)
	slow := EMA(close, 26)
	line = make([]float64, len(close))
	for i := range close {
		line[i] = fast[i] - slow[i]
	}
	signal = EMA(line, 9)
	hist = make([]float64, len(close))
	for i := range close {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

// Bollinger returns SMA(w) and the bands k standard deviations around it.
func Bollinger(close []float64, w int, k float64) (upper, middle, lower []float64) {
	middle = SMA(close, w)
	std := RollingStd(close, w)
	upper = make([]float64, len(close))
	lower = make([]float64, len(close))
	for i := range close {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return upper, middle, lower
}

// Stochastic returns %K over w bars and %D as the SMA(d) of %K. A flat
// high-low range leaves %K undefined.
func Stochastic(high, low, close []float64, w, d int) (k, dline []float64) {
	lo := RollingMin(low, w)
	hi := RollingMax(high, w)
	k = nanSlice(len(close))
	for i := range close {
		rng := hi[i] - lo[i]
		if math.IsNaN(rng) || rng == 0 {
			continue
		}
		k[i] = 100 * (close[i] - lo[i]) / rng
	}
	return k, SMA(k, d)
}

// WilliamsR is -100*(highest-close)/(highest-lowest) over w bars.
func WilliamsR(high, low, close []float64, w int) []float64 {
	lo := RollingMin(low, w)
	hi := RollingMax(high, w)
	out := nanSlice(len(close))
	for i := range close {
		rng := hi[i] - lo[i]
		if math.IsNaN(rng) || rng == 0 {
			continue
		}
		out[i] = -100 * (hi[i] - close[i]) / rng
	}
	return out
}

// Volatility is the rolling sample standard deviation of percentage changes.
func Volatility(close []float64, w int) []float64 {
	return RollingStd(PctChange(close), w)
}

// Divergence flags bullish (price down, RSI up, RSI<30) and bearish
// (price up, RSI down, RSI>70) momentum divergences. Undefined inputs are false.
func Divergence(priceMom, rsiMom, rsi []float64) (bullish, bearish []bool) {
	bullish = make([]bool, len(rsi))
	bearish = make([]bool, len(rsi))
	for i := range rsi {
		pm, rm, r := priceMom[i], rsiMom[i], rsi[i]
		if math.IsNaN(pm) || math.IsNaN(rm) || math.IsNaN(r) {
			continue
		}
		bullish[i] = pm < 0 && rm > 0 && r < 30
		bearish[i] = pm > 0 && rm < 0 && r > 70
	}
	return bullish, bearish
}
