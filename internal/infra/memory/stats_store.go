package memory

import (
	"context"
	"sync"

	"interview-scoring-service/internal/domain"
)

// StatsStore keeps user history stats in memory. Stored values are treated as
// immutable; updates always replace the whole value.
type StatsStore struct {
	mu    sync.RWMutex
	stats map[string]domain.UserHistoryStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{stats: make(map[string]domain.UserHistoryStats)}
}

func (s *StatsStore) GetStats(_ context.Context, userID string) (domain.UserHistoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.stats[userID]
	if !ok {
		return domain.UserHistoryStats{}, domain.ErrStatsNotFound
	}
	return stats, nil
}

func (s *StatsStore) SaveStats(_ context.Context, stats domain.UserHistoryStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.UserID] = stats
	return nil
}
