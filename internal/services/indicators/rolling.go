// Package indicators computes technical indicator columns over a bar series.
// Every function is pure and returns a slice aligned with its input; warm-up
// positions and undefined values are NaN.
package indicators

import "math"

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// window returns x[i-w+1:i+1] when it is fully defined.
func window(x []float64, i, w int) ([]float64, bool) {
	if w <= 0 || i < w-1 {
		return nil, false
	}
	win := x[i-w+1 : i+1]
	for _, v := range win {
		if math.IsNaN(v) {
			return nil, false
		}
	}
	return win, true
}

// SMA is the trailing arithmetic mean over w points.
func SMA(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	for i := range x {
		win, ok := window(x, i, w)
		if !ok {
			continue
		}
		sum := 0.0
		for _, v := range win {
			sum += v
		}
		out[i] = sum / float64(w)
	}
	return out
}

// RollingStd is the trailing sample standard deviation (n-1 denominator).
func RollingStd(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	if w < 2 {
		return out
	}
	for i := range x {
		win, ok := window(x, i, w)
		if !ok {
			continue
		}
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(w)
		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(w-1))
	}
	return out
}

func RollingMin(x []float64, w int) []float64 {
	return rollingExtreme(x, w, math.Min)
}

func RollingMax(x []float64, w int) []float64 {
	return rollingExtreme(x, w, math.Max)
}

func rollingExtreme(x []float64, w int, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(x))
	for i := range x {
		win, ok := window(x, i, w)
		if !ok {
			continue
		}
		m := win[0]
		for _, v := range win[1:] {
			m = pick(m, v)
		}
		out[i] = m
	}
	return out
}

// Diff is x[i] - x[i-n].
func Diff(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	for i := n; i < len(x); i++ {
		out[i] = x[i] - x[i-n]
	}
	return out
}

// PctChange is x[i]/x[i-1] - 1.
func PctChange(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		if x[i-1] == 0 {
			continue
		}
		out[i] = x[i]/x[i-1] - 1
	}
	return out
}
