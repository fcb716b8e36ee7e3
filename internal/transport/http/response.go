package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"interview-scoring-service/internal/domain"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, status, envelope{Success: true, Data: data, Meta: metaFor(r)})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	writeEnvelope(w, status, envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: err.Error()},
		Meta:    metaFor(r),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func metaFor(r *http.Request) meta {
	return meta{RequestID: middleware.GetReqID(r.Context()), Timestamp: time.Now().UTC()}
}

// errorStatus maps domain errors to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &perr):
		return http.StatusServiceUnavailable, "PERSISTENCE_FAILED"
	case errors.Is(err, domain.ErrEmptySession):
		return http.StatusUnprocessableEntity, "EMPTY_SESSION"
	case errors.Is(err, domain.ErrSessionNotCompleted):
		return http.StatusConflict, "SESSION_NOT_COMPLETED"
	case errors.Is(err, domain.ErrBreakdownNotFound):
		return http.StatusConflict, "BREAKDOWN_NOT_FOUND"
	case errors.Is(err, domain.ErrSessionAlreadyCompleted):
		return http.StatusConflict, "SESSION_ALREADY_COMPLETED"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, domain.ErrFeedbackNotFound):
		return http.StatusNotFound, "FEEDBACK_NOT_FOUND"
	case errors.Is(err, domain.ErrUnknownChartType):
		return http.StatusBadRequest, "UNKNOWN_CHART_TYPE"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrLockNotAcquired):
		return http.StatusServiceUnavailable, "LOCK_NOT_ACQUIRED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
