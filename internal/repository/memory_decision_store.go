package repository

import (
	"context"
	"sort"
	"sync"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

// MemoryDecisionStore keeps decisions in process memory. Used for the
// memory storage driver and in tests.
type MemoryDecisionStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []models.SignalDecision
}

func NewMemoryDecisionStore() *MemoryDecisionStore {
	return &MemoryDecisionStore{}
}

func (s *MemoryDecisionStore) Append(_ context.Context, d *models.SignalDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = s.nextID
	s.rows = append(s.rows, *d)
	return nil
}

func (s *MemoryDecisionStore) Get(_ context.Context, id int64) (*models.SignalDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return nil, models.ErrNotFound
	}
	d := s.rows[i]
	return &d, nil
}

func (s *MemoryDecisionStore) Settle(_ context.Context, id int64, result models.Result, profitLoss float64) (*models.SignalDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, models.ErrNotFound
	}
	d := s.rows[i]
	if err := d.Settle(result, profitLoss); err != nil {
		return nil, err
	}
	s.rows[i] = d
	return &d, nil
}

func (s *MemoryDecisionStore) ListActive(_ context.Context, limit int) ([]models.SignalDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SignalDecision, 0, limit)
	for _, d := range s.newestFirst("") {
		if len(out) == limit {
			break
		}
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryDecisionStore) History(_ context.Context, q domrepo.HistoryQuery) ([]models.SignalDecision, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.newestFirst(q.Asset)
	total := int64(len(all))
	if q.Offset >= len(all) {
		return []models.SignalDecision{}, total, nil
	}
	end := len(all)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return all[q.Offset:end], total, nil
}

func (s *MemoryDecisionStore) ListSettled(_ context.Context) ([]models.SignalDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SignalDecision, 0, len(s.rows))
	for _, d := range s.rows {
		if d.Settled() {
			out = append(out, d)
		}
	}
	return out, nil
}

// index is a binary search; ids are assigned in increasing order.
func (s *MemoryDecisionStore) index(id int64) int {
	i := sort.Search(len(s.rows), func(i int) bool { return s.rows[i].ID >= id })
	if i < len(s.rows) && s.rows[i].ID == id {
		return i
	}
	return -1
}

func (s *MemoryDecisionStore) newestFirst(asset string) []models.SignalDecision {
	out := make([]models.SignalDecision, 0, len(s.rows))
	for i := len(s.rows) - 1; i >= 0; i-- {
		if asset == "" || s.rows[i].Asset == asset {
			out = append(out, s.rows[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

var _ domrepo.DecisionStore = (*MemoryDecisionStore)(nil)
