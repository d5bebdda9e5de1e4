package repository

import (
	"context"
	"errors"
	"fmt"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/cache"
)

const performanceKey = "performance"

// PerformanceCache stores the aggregate as JSON in the shared cache. It never
// expires; every settlement overwrites it.
type PerformanceCache struct {
	c cache.Service
}

func NewPerformanceCache(c cache.Service) *PerformanceCache {
	return &PerformanceCache{c: c}
}

// Load returns models.ErrNotFound on a cache miss.
func (p *PerformanceCache) Load(ctx context.Context) (*models.PerformanceAggregate, error) {
	var agg models.PerformanceAggregate
	if err := p.c.Get(ctx, performanceKey, &agg); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("load performance: %w", err)
	}
	return &agg, nil
}

func (p *PerformanceCache) Store(ctx context.Context, agg models.PerformanceAggregate) error {
	if err := p.c.Set(ctx, performanceKey, agg, 0); err != nil {
		return fmt.Errorf("store performance: %w", err)
	}
	return nil
}

var _ domrepo.PerformanceCache = (*PerformanceCache)(nil)
