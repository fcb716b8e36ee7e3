package memory

import (
	"context"
	"sort"
	"sync"

	"interview-scoring-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]domain.Session
	questions map[string]map[string]domain.QuestionScore
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]domain.Session),
		questions: make(map[string]map[string]domain.QuestionScore),
	}
}

func (s *SessionStore) UpsertSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.CompletedAt != nil {
		completedAt := *session.CompletedAt
		session.CompletedAt = &completedAt
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// ListCompletedSessions returns the user's completed sessions ordered by completion time.
func (s *SessionStore) ListCompletedSessions(_ context.Context, userID string) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.Status == domain.StatusCompleted {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].CompletedAt, out[j].CompletedAt
		if ci != nil && cj != nil && !ci.Equal(*cj) {
			return ci.Before(*cj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *SessionStore) SaveQuestionScore(_ context.Context, score domain.QuestionScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[score.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	byQuestion, ok := s.questions[score.SessionID]
	if !ok {
		byQuestion = make(map[string]domain.QuestionScore)
		s.questions[score.SessionID] = byQuestion
	}
	byQuestion[score.QuestionID] = score
	return nil
}

// ListQuestionScores returns the session's scores ordered by question id.
func (s *SessionStore) ListQuestionScores(_ context.Context, sessionID string) ([]domain.QuestionScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byQuestion := s.questions[sessionID]
	out := make([]domain.QuestionScore, 0, len(byQuestion))
	for _, score := range byQuestion {
		out = append(out, score)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}
