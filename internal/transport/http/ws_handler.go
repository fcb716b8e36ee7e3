package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"interview-scoring-service/internal/app"
	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/logger"
)

// DashboardSubscriber streams stats updates of one user.
type DashboardSubscriber interface {
	Subscribe(userID string) (<-chan domain.UserHistoryStats, func())
}

type WSHandler struct {
	service   *app.InterviewService
	dashboard DashboardSubscriber
	log       *logger.Logger
	upgrader  websocket.Upgrader
}

func NewWSHandler(service *app.InterviewService, dashboard DashboardSubscriber, log *logger.Logger) *WSHandler {
	return &WSHandler{
		service:   service,
		dashboard: dashboard,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type chartPayload struct {
	ChartType string `json:"chartType"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and streams the user's dashboard:
// a "stats" snapshot on connect, a "stats" message per recorded completion, and
// "chart" replies to chart requests.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.dashboard.Subscribe(userID)
	defer cancel()

	snapshot, err := h.service.GetDashboardStats(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "user_id", userID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "stats", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "stats", Payload: snapshot}) {
		conn.Close()
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !enqueue(send, writerDone, h.reply(r.Context(), userID, inbound)) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) reply(ctx context.Context, userID string, inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "chart":
		var payload chartPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid chart payload"}}
		}
		chart, err := h.service.GetChartData(ctx, userID, payload.ChartType)
		if err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		return outboundMessage[any]{Type: "chart", Payload: chart}
	case "refresh":
		stats, err := h.service.GetDashboardStats(ctx, userID)
		if err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		return outboundMessage[any]{Type: "stats", Payload: stats}
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}

// enqueue hands msg to the writer. It reports false once the writer has stopped.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}
