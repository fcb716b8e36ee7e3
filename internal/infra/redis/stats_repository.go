package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"interview-scoring-service/internal/domain"
)

// StatsBackend is the durable store behind the cache (memory or Postgres).
type StatsBackend interface {
	GetStats(ctx context.Context, userID string) (domain.UserHistoryStats, error)
	SaveStats(ctx context.Context, stats domain.UserHistoryStats) error
}

// StatsRepository caches user history stats in Redis and falls back to the backend on a miss.
// Stats are stored as JSON under: stats:{userID}
type StatsRepository struct {
	client  *redis.Client
	backend StatsBackend
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewStatsRepository(client *redis.Client, backend StatsBackend, ttl time.Duration) *StatsRepository {
	return &StatsRepository{
		client:  client,
		backend: backend,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *StatsRepository) GetStats(ctx context.Context, userID string) (domain.UserHistoryStats, error) {
	if stats, ok := r.cached(ctx, userID); ok {
		return stats, nil
	}

	result, err, _ := r.sf.Do(userID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if stats, ok := r.cached(ctx, userID); ok {
			return stats, nil
		}
		stats, err := r.backend.GetStats(ctx, userID)
		if err != nil {
			return domain.UserHistoryStats{}, err
		}
		r.fill(ctx, stats)
		return stats, nil
	})
	if err != nil {
		return domain.UserHistoryStats{}, err
	}
	return result.(domain.UserHistoryStats), nil
}

// SaveStats writes to the backend and then refreshes the cache. If the refresh
// fails the cached entry is dropped so readers fall back to the backend.
func (r *StatsRepository) SaveStats(ctx context.Context, stats domain.UserHistoryStats) error {
	if err := r.backend.SaveStats(ctx, stats); err != nil {
		_ = r.client.Del(ctx, r.key(stats.UserID)).Err()
		return err
	}
	if !r.fill(ctx, stats) {
		_ = r.client.Del(ctx, r.key(stats.UserID)).Err()
	}
	return nil
}

func (r *StatsRepository) cached(ctx context.Context, userID string) (domain.UserHistoryStats, bool) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		return domain.UserHistoryStats{}, false
	}
	var stats domain.UserHistoryStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.UserHistoryStats{}, false
	}
	return stats, true
}

func (r *StatsRepository) fill(ctx context.Context, stats domain.UserHistoryStats) bool {
	data, err := json.Marshal(stats)
	if err != nil {
		return false
	}
	return r.client.Set(ctx, r.key(stats.UserID), data, r.ttlWithJitter()).Err() == nil
}

func (r *StatsRepository) key(userID string) string {
	return "stats:" + userID
}

func (r *StatsRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
