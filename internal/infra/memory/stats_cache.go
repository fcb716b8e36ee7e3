package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"interview-scoring-service/internal/domain"
)

// StatsBackend is the durable store behind a stats cache (e.g., Postgres).
type StatsBackend interface {
	GetStats(ctx context.Context, userID string) (domain.UserHistoryStats, error)
	SaveStats(ctx context.Context, stats domain.UserHistoryStats) error
}

// StatsCache caches user stats with TTL to avoid repeated DB hits on dashboard reads.
// Writes go to the backend first and then refresh the cached entry.
type StatsCache struct {
	backend StatsBackend
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedStats
}

type cachedStats struct {
	stats     domain.UserHistoryStats
	expiresAt time.Time
}

func NewStatsCache(backend StatsBackend, ttl time.Duration) *StatsCache {
	return &StatsCache{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedStats),
	}
}

func (c *StatsCache) GetStats(ctx context.Context, userID string) (domain.UserHistoryStats, error) {
	if stats, ok := c.lookup(userID); ok {
		return stats, nil
	}

	result, err, _ := c.sf.Do(userID, func() (interface{}, error) {
		if stats, ok := c.lookup(userID); ok {
			return stats, nil
		}
		stats, err := c.backend.GetStats(ctx, userID)
		if err != nil {
			return domain.UserHistoryStats{}, err
		}
		c.store(stats)
		return stats, nil
	})
	if err != nil {
		return domain.UserHistoryStats{}, err
	}
	return result.(domain.UserHistoryStats), nil
}

func (c *StatsCache) SaveStats(ctx context.Context, stats domain.UserHistoryStats) error {
	if err := c.backend.SaveStats(ctx, stats); err != nil {
		c.mu.Lock()
		delete(c.cache, stats.UserID)
		c.mu.Unlock()
		return err
	}
	c.store(stats)
	return nil
}

func (c *StatsCache) lookup(userID string) (domain.UserHistoryStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[userID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.UserHistoryStats{}, false
	}
	return entry.stats, true
}

func (c *StatsCache) store(stats domain.UserHistoryStats) {
	expiresAt := c.clock().Add(c.ttlWithJitter())
	c.mu.Lock()
	c.cache[stats.UserID] = cachedStats{stats: stats, expiresAt: expiresAt}
	c.mu.Unlock()
}

func (c *StatsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
