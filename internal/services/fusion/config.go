package fusion

import (
	"fmt"
	"time"
)

// Config holds the fusion policy constants.
type Config struct {
	MinBars           int
	BaseConfidence    float64
	MaxConfidence     float64
	DefaultVolatility float64
	HighVolatility    float64
	MidVolatility     float64
	RSIOversold       float64
	RSIOverbought     float64
	OTCExpiries       []int
	StandardExpiries  []int
	// CollaboratorTimeout bounds each structure/sentiment call.
	CollaboratorTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinBars:             100,
		BaseConfidence:      70,
		MaxConfidence:       95,
		DefaultVolatility:   0.02,
		HighVolatility:      0.03,
		MidVolatility:       0.015,
		RSIOversold:         25,
		RSIOverbought:       75,
		OTCExpiries:         []int{1, 3, 5, 10, 15},
		StandardExpiries:    []int{5, 10, 15, 30},
		CollaboratorTimeout: 5 * time.Second,
	}
}

// Validate checks the candidate lists can be split into three tiers.
func (c Config) Validate() error {
	if c.MinBars < 1 {
		return fmt.Errorf("min bars must be positive")
	}
	if c.MaxConfidence <= 0 || c.MaxConfidence > 100 {
		return fmt.Errorf("max confidence must be in (0,100]")
	}
	for name, list := range map[string][]int{"otc": c.OTCExpiries, "standard": c.StandardExpiries} {
		if len(list) < 4 {
			return fmt.Errorf("%s expiry list needs at least 4 entries, got %d", name, len(list))
		}
		for _, m := range list {
			if m <= 0 {
				return fmt.Errorf("%s expiry list has non-positive duration %d", name, m)
			}
		}
	}
	return nil
}
