package memory

import (
	"context"
	"sync"

	"interview-scoring-service/internal/domain"
)

// ArtifactStore keeps score breakdowns and feedback records in memory.
type ArtifactStore struct {
	mu         sync.RWMutex
	breakdowns map[string]domain.SessionScoreBreakdown
	feedback   map[string]domain.FeedbackRecord
}

func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		breakdowns: make(map[string]domain.SessionScoreBreakdown),
		feedback:   make(map[string]domain.FeedbackRecord),
	}
}

func (s *ArtifactStore) SaveBreakdown(_ context.Context, breakdown domain.SessionScoreBreakdown) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakdowns[breakdown.SessionID] = breakdown
	return nil
}

func (s *ArtifactStore) GetBreakdown(_ context.Context, sessionID string) (domain.SessionScoreBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	breakdown, ok := s.breakdowns[sessionID]
	if !ok {
		return domain.SessionScoreBreakdown{}, domain.ErrBreakdownNotFound
	}
	return breakdown, nil
}

func (s *ArtifactStore) SaveFeedback(_ context.Context, record domain.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[record.SessionID] = record
	return nil
}

func (s *ArtifactStore) GetFeedback(_ context.Context, sessionID string) (domain.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.feedback[sessionID]
	if !ok {
		return domain.FeedbackRecord{}, domain.ErrFeedbackNotFound
	}
	return record, nil
}
