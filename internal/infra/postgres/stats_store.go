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

// StatsStore loads user history stats JSONB from Postgres.
type StatsStore struct {
	pool *pgxpool.Pool
}

func NewStatsStore(pool *pgxpool.Pool) *StatsStore {
	return &StatsStore{pool: pool}
}

func (s *StatsStore) GetStats(ctx context.Context, userID string) (domain.UserHistoryStats, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM user_history_stats WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserHistoryStats{}, domain.ErrStatsNotFound
	}
	if err != nil {
		return domain.UserHistoryStats{}, fmt.Errorf("load stats: %w", err)
	}
	var stats domain.UserHistoryStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.UserHistoryStats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}

func (s *StatsStore) SaveStats(ctx context.Context, stats domain.UserHistoryStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_history_stats (user_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		stats.UserID, data, stats.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}
