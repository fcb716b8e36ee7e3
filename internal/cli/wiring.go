package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"interview-scoring-service/internal/app"
	"interview-scoring-service/internal/config"
	"interview-scoring-service/internal/infra/memory"
	pgstore "interview-scoring-service/internal/infra/postgres"
	redisinfra "interview-scoring-service/internal/infra/redis"
	"interview-scoring-service/internal/logger"
)

// runtime holds the wired service and the resources that must be released on exit.
type runtime struct {
	service *app.InterviewService
	hub     *memory.DashboardHub
	relay   *redisinfra.DashboardRelay
	cfg     config.Config
	log     *logger.Logger
	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.log.Sync()
}

// buildRuntime picks Postgres or in-memory stores, and Redis or in-process
// caching and locking, depending on what the config provides.
func buildRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log, hub: memory.NewDashboardHub()}

	profiles, err := cfg.ProfileRegistry()
	if err != nil {
		return nil, err
	}

	var (
		sessions  app.SessionStore    = memory.NewSessionStore()
		artifacts app.ArtifactStore   = memory.NewArtifactStore()
		stats     memory.StatsBackend = memory.NewStatsStore()
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		sessions = pgstore.NewSessionStore(pool)
		artifacts = pgstore.NewArtifactStore(pool)
		stats = pgstore.NewStatsStore(pool)
		log.Info("using postgres stores")
	} else {
		log.Warn("postgres url not configured, using in-memory stores")
	}

	cacheTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	var statsStore app.StatsStore
	var locker app.KeyLocker
	var publisher app.DashboardPublisher = rt.hub
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		statsStore = redisinfra.NewStatsRepository(client, stats, cacheTTL)
		locker = redisinfra.NewKeyLocker(client,
			config.TTLDuration(cfg.Locks.TTL, 10*time.Second),
			config.TTLDuration(cfg.Locks.Wait, 3*time.Second))
		rt.relay = redisinfra.NewDashboardRelay(client, rt.hub, log)
		publisher = rt.relay
		log.Info("using redis cache and locks", "addr", cfg.Redis.Addr)
	} else {
		statsStore = memory.NewStatsCache(stats, cacheTTL)
		locker = memory.NewKeyLocker()
	}

	rt.service = app.NewInterviewService(app.Dependencies{
		Sessions:  sessions,
		Artifacts: artifacts,
		Stats:     statsStore,
		Locker:    locker,
		Publisher: publisher,
		Profiles:  profiles,
		Catalog:   cfg.Catalog(),
		Logger:    log,
		Retry: app.RetryPolicy{
			MaxRetries:      cfg.Persistence.MaxRetries,
			InitialInterval: config.TTLDuration(cfg.Persistence.InitialInterval, 50*time.Millisecond),
			MaxInterval:     config.TTLDuration(cfg.Persistence.MaxInterval, time.Second),
		},
	})
	log.Info("scoring profiles loaded", "profiles", profiles.Names())
	return rt, nil
}
