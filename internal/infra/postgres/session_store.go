package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"interview-scoring-service/internal/domain"
)

// SessionStore keeps session metadata and question scores in Postgres.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) UpsertSession(ctx context.Context, session domain.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO interview_sessions (id, user_id, status, category, created_at, completed_at, history_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			category = EXCLUDED.category,
			completed_at = EXCLUDED.completed_at,
			history_applied = EXCLUDED.history_applied`,
		session.ID, session.UserID, string(session.Status), session.Category, session.CreatedAt, session.CompletedAt, session.HistoryApplied)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, status, category, created_at, completed_at, history_applied
		FROM interview_sessions WHERE id = $1`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) ListCompletedSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, status, category, created_at, completed_at, history_applied
		FROM interview_sessions
		WHERE user_id = $1 AND status = $2
		ORDER BY completed_at, id`, userID, string(domain.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *SessionStore) SaveQuestionScore(ctx context.Context, score domain.QuestionScore) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO question_scores (session_id, question_id, category, relevance, grammar, fluency, keyword, overall)
		SELECT $1::text, $2::text, $3::text, $4::float8, $5::float8, $6::float8, $7::float8, $8::float8
		WHERE EXISTS (SELECT 1 FROM interview_sessions WHERE id = $1)
		ON CONFLICT (session_id, question_id) DO UPDATE SET
			category = EXCLUDED.category,
			relevance = EXCLUDED.relevance,
			grammar = EXCLUDED.grammar,
			fluency = EXCLUDED.fluency,
			keyword = EXCLUDED.keyword,
			overall = EXCLUDED.overall`,
		score.SessionID, score.QuestionID, score.Category,
		score.Relevance, score.Grammar, score.Fluency, score.Keyword, score.Overall)
	if err != nil {
		return fmt.Errorf("save question score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) ListQuestionScores(ctx context.Context, sessionID string) ([]domain.QuestionScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, question_id, category, relevance, grammar, fluency, keyword, overall
		FROM question_scores WHERE session_id = $1
		ORDER BY question_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list question scores: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionScore
	for rows.Next() {
		var q domain.QuestionScore
		if err := rows.Scan(&q.SessionID, &q.QuestionID, &q.Category,
			&q.Relevance, &q.Grammar, &q.Fluency, &q.Keyword, &q.Overall); err != nil {
			return nil, fmt.Errorf("scan question score: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		session domain.Session
		status  string
	)
	if err := row.Scan(&session.ID, &session.UserID, &status, &session.Category, &session.CreatedAt, &session.CompletedAt, &session.HistoryApplied); err != nil {
		return domain.Session{}, err
	}
	session.Status = domain.SessionStatus(status)
	return session, nil
}
