package fusion

import (
	"math"
	"math/rand/v2"

	"FinSignal/internal/services/instruments"
)

// ExpiryPicker chooses one duration from a non-empty candidate list. It must
// be safe for concurrent use.
type ExpiryPicker func(candidates []int) int

// RandomExpiry picks uniformly.
func RandomExpiry(candidates []int) int {
	return candidates[rand.IntN(len(candidates))]
}

// ExpiryCandidates returns the volatility tier of the instrument's duration
// list: shortest for vol above HighVolatility, middle above MidVolatility,
// longest otherwise. Undefined volatility falls back to DefaultVolatility.
// Lists shorter than Validate allows are clamped and never yield an empty
// tier; an empty list is replaced by the default one.
func ExpiryCandidates(asset string, vol float64, cfg Config) []int {
	otc := instruments.IsOTC(asset)
	list := cfg.StandardExpiries
	if otc {
		list = cfg.OTCExpiries
	}
	if len(list) == 0 {
		def := DefaultConfig()
		list = def.StandardExpiries
		if otc {
			list = def.OTCExpiries
		}
	}
	if math.IsNaN(vol) {
		vol = cfg.DefaultVolatility
	}
	var tier []int
	switch {
	case vol > cfg.HighVolatility:
		tier = window(list, 0, 3)
	case vol > cfg.MidVolatility:
		tier = window(list, 1, 4)
	default:
		tier = window(list, 2, len(list))
	}
	return append([]int(nil), tier...)
}

// window returns list[lo:hi] with both bounds clamped to the list. When the
// clamped range is empty the last entry is returned alone.
func window(list []int, lo, hi int) []int {
	n := len(list)
	hi = min(hi, n)
	lo = min(lo, hi)
	if lo == hi {
		return list[n-1:]
	}
	return list[lo:hi]
}
