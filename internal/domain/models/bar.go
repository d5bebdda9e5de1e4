package models

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLC(V) sample at a fixed time step.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// Validate checks price sanity of a single bar.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewInputFault("non-finite price at %s", b.Timestamp.Format(time.RFC3339))
		}
		if v <= 0 {
			return NewInputFault("non-positive price %v at %s", v, b.Timestamp.Format(time.RFC3339))
		}
	}
	if b.High < b.Low {
		return NewInputFault("high %v below low %v at %s", b.High, b.Low, b.Timestamp.Format(time.RFC3339))
	}
	if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return NewInputFault("open/close outside high-low range at %s", b.Timestamp.Format(time.RFC3339))
	}
	if b.Volume < 0 || math.IsNaN(b.Volume) {
		return NewInputFault("invalid volume at %s", b.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// Series is a time-ordered sequence of bars with strictly increasing timestamps.
type Series []Bar

// Validate reports an InputFault for unordered, duplicate or malformed bars.
func (s Series) Validate() error {
	for i, b := range s {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Timestamp.After(s[i-1].Timestamp) {
			return NewInputFault("timestamps not strictly increasing at index %d", i)
		}
	}
	return nil
}

func (s Series) Closes() []float64 { return s.column(func(b Bar) float64 { return b.Close }) }
func (s Series) Highs() []float64  { return s.column(func(b Bar) float64 { return b.High }) }
func (s Series) Lows() []float64   { return s.column(func(b Bar) float64 { return b.Low }) }

// Last returns the most recent bar.
func (s Series) Last() (Bar, error) {
	if len(s) == 0 {
		return Bar{}, fmt.Errorf("empty series")
	}
	return s[len(s)-1], nil
}

func (s Series) column(f func(Bar) float64) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = f(b)
	}
	return out
}
