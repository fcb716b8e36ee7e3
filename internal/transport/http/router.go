package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"interview-scoring-service/internal/app"
	"interview-scoring-service/internal/logger"
)

// NewRouter wires the REST API, the dashboard websocket and the health check.
func NewRouter(service *app.InterviewService, dashboard DashboardSubscriber, log *logger.Logger, rescoreWorkers int) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	endpoints := NewScoringEndpoints(service, log, rescoreWorkers)
	r.Route("/api/v1", endpoints.RegisterRoutes)

	wsHandler := NewWSHandler(service, dashboard, log)
	r.Get("/ws/dashboard", wsHandler.ServeWS)
	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
