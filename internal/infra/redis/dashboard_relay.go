package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/logger"
)

const dashboardChannel = "dashboard:stats"

// LocalPublisher delivers stats to the subscribers connected to this instance.
type LocalPublisher interface {
	Publish(stats domain.UserHistoryStats)
}

// DashboardRelay fans stats updates out to every instance through Redis pub/sub,
// so a websocket on one instance sees completions recorded by another.
type DashboardRelay struct {
	client *redis.Client
	local  LocalPublisher
	log    *logger.Logger
	ready  chan struct{}
}

func NewDashboardRelay(client *redis.Client, local LocalPublisher, log *logger.Logger) *DashboardRelay {
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardRelay{client: client, local: local, log: log, ready: make(chan struct{})}
}

// Publish sends stats to all instances. If Redis is unreachable the update is
// still delivered locally.
func (r *DashboardRelay) Publish(stats domain.UserHistoryStats) {
	data, err := json.Marshal(stats)
	if err == nil {
		err = r.client.Publish(context.Background(), dashboardChannel, data).Err()
	}
	if err != nil {
		r.log.Warn("dashboard relay publish failed", "user_id", stats.UserID, "error", err)
		r.local.Publish(stats)
	}
}

// Ready is closed once Run has subscribed.
func (r *DashboardRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run forwards relayed updates to the local publisher until ctx is done.
func (r *DashboardRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, dashboardChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	close(r.ready)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var stats domain.UserHistoryStats
			if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
				r.log.Warn("dashboard relay dropped malformed update", "error", err)
				continue
			}
			r.local.Publish(stats)
		}
	}
}
