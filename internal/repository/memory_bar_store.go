package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

const defaultBarCapacity = 5000

// MemoryBarStore keeps recent bars per symbol and timeframe in process.
// Writes for an existing timestamp replace the stored bar.
type MemoryBarStore struct {
	mu       sync.RWMutex
	bars     map[string]models.Series
	capacity int
}

func NewMemoryBarStore(capacity int) *MemoryBarStore {
	if capacity <= 0 {
		capacity = defaultBarCapacity
	}
	return &MemoryBarStore{bars: make(map[string]models.Series), capacity: capacity}
}

func barKey(symbol string, tf domrepo.Timeframe) string {
	return symbol + "|" + string(tf)
}

func (s *MemoryBarStore) LatestSeries(_ context.Context, symbol string, n int, tf domrepo.Timeframe) (models.Series, error) {
	if !domrepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("unsupported timeframe: %s", tf)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.bars[barKey(symbol, tf)]
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make(models.Series, n)
	copy(out, all[len(all)-n:])
	return out, nil
}

func (s *MemoryBarStore) WriteBars(_ context.Context, symbol string, tf domrepo.Timeframe, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if !domrepo.IsValidTimeframe(tf) {
		return fmt.Errorf("unsupported timeframe: %s", tf)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := barKey(symbol, tf)
	byTime := make(map[int64]models.Bar, len(s.bars[key])+len(bars))
	for _, b := range s.bars[key] {
		byTime[b.Timestamp.Unix()] = b
	}
	for _, b := range bars {
		b.Timestamp = b.Timestamp.UTC()
		byTime[b.Timestamp.Unix()] = b
	}

	merged := make(models.Series, 0, len(byTime))
	for _, b := range byTime {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	if len(merged) > s.capacity {
		merged = merged[len(merged)-s.capacity:]
	}
	s.bars[key] = merged
	return nil
}
