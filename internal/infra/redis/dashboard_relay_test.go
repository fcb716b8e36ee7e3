package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/infra/memory"
)

func TestDashboardRelayDeliversAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remoteHub := memory.NewDashboardHub()
	remote := NewDashboardRelay(newClient(mr), remoteHub, nil)
	go func() { _ = remote.Run(ctx) }()

	select {
	case <-remote.Ready():
	case <-time.After(5 * time.Second):
		t.Fatalf("relay did not subscribe")
	}

	updates, unsubscribe := remoteHub.Subscribe("u1")
	defer unsubscribe()

	local := NewDashboardRelay(newClient(mr), memory.NewDashboardHub(), nil)
	local.Publish(domain.UserHistoryStats{UserID: "u1", TotalInterviews: 4})

	select {
	case stats := <-updates:
		if stats.TotalInterviews != 4 {
			t.Fatalf("expected relayed stats, got %+v", stats)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("expected relayed update")
	}
}
