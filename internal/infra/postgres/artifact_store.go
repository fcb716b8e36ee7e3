package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"interview-scoring-service/internal/domain"
)

// ArtifactStore keeps breakdowns and feedback as JSONB, one row per session.
// Every save is a single-row upsert, so an artifact is written whole or not at all.
type ArtifactStore struct {
	pool *pgxpool.Pool
}

func NewArtifactStore(pool *pgxpool.Pool) *ArtifactStore {
	return &ArtifactStore{pool: pool}
}

func (s *ArtifactStore) SaveBreakdown(ctx context.Context, breakdown domain.SessionScoreBreakdown) error {
	data, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO score_breakdowns (session_id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		breakdown.SessionID, data)
	if err != nil {
		return fmt.Errorf("save breakdown: %w", err)
	}
	return nil
}

func (s *ArtifactStore) GetBreakdown(ctx context.Context, sessionID string) (domain.SessionScoreBreakdown, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM score_breakdowns WHERE session_id = $1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionScoreBreakdown{}, domain.ErrBreakdownNotFound
	}
	if err != nil {
		return domain.SessionScoreBreakdown{}, fmt.Errorf("load breakdown: %w", err)
	}
	var breakdown domain.SessionScoreBreakdown
	if err := json.Unmarshal(raw, &breakdown); err != nil {
		return domain.SessionScoreBreakdown{}, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	return breakdown, nil
}

func (s *ArtifactStore) SaveFeedback(ctx context.Context, record domain.FeedbackRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO feedback_records (session_id, id, user_id, data, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			id = EXCLUDED.id,
			user_id = EXCLUDED.user_id,
			data = EXCLUDED.data,
			generated_at = EXCLUDED.generated_at`,
		record.SessionID, record.ID, record.UserID, data, record.GeneratedAt)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

func (s *ArtifactStore) GetFeedback(ctx context.Context, sessionID string) (domain.FeedbackRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM feedback_records WHERE session_id = $1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FeedbackRecord{}, domain.ErrFeedbackNotFound
	}
	if err != nil {
		return domain.FeedbackRecord{}, fmt.Errorf("load feedback: %w", err)
	}
	var record domain.FeedbackRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.FeedbackRecord{}, fmt.Errorf("unmarshal feedback: %w", err)
	}
	return record, nil
}
