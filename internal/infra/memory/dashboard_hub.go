package memory

import (
	"sync"

	"interview-scoring-service/internal/domain"
)

// DashboardHub fans stats updates out to the subscribers of each user.
type DashboardHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.UserHistoryStats]struct{}
}

func NewDashboardHub() *DashboardHub {
	return &DashboardHub{subscribers: make(map[string]map[chan domain.UserHistoryStats]struct{})}
}

// Subscribe returns a channel of stats updates for userID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *DashboardHub) Subscribe(userID string) (<-chan domain.UserHistoryStats, func()) {
	ch := make(chan domain.UserHistoryStats, 1)

	h.mu.Lock()
	subs, ok := h.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.UserHistoryStats]struct{})
		h.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
	}
	return ch, cancel
}

// Publish delivers stats to every subscriber of stats.UserID without blocking.
// A subscriber that has not consumed the previous update only sees the latest one.
func (h *DashboardHub) Publish(stats domain.UserHistoryStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[stats.UserID] {
		select {
		case ch <- stats:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
}

// Subscribers reports how many subscribers userID has.
func (h *DashboardHub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}
