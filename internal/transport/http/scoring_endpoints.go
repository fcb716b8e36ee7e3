package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"interview-scoring-service/internal/app"
	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/logger"
)

// ScoringEndpoints exposes the interview service over REST.
type ScoringEndpoints struct {
	service        *app.InterviewService
	log            *logger.Logger
	rescoreWorkers int
}

func NewScoringEndpoints(service *app.InterviewService, log *logger.Logger, rescoreWorkers int) *ScoringEndpoints {
	if rescoreWorkers < 1 {
		rescoreWorkers = 1
	}
	return &ScoringEndpoints{service: service, log: log, rescoreWorkers: rescoreWorkers}
}

func (e *ScoringEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", e.GetSession)
		r.Put("/", e.UpsertSession)
		r.Post("/transition", e.TransitionSession)
		r.Put("/questions/{questionID}", e.SaveQuestionScore)
		r.Post("/complete", e.CompleteSession)
		r.Get("/scores", e.GetScores)
		r.Post("/scores", e.ComputeScores)
		r.Get("/feedback", e.GetFeedback)
		r.Post("/feedback", e.GenerateFeedback)
	})
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/completions/{sessionID}", e.RecordCompletion)
		r.Post("/rescore", e.RescoreUser)
		r.Get("/dashboard", e.Dashboard)
		r.Get("/charts/{chartType}", e.Chart)
	})
}

type upsertSessionRequest struct {
	UserID   string `json:"user_id"`
	Category string `json:"category"`
}

type transitionRequest struct {
	Status domain.SessionStatus `json:"status"`
}

type questionScoreRequest struct {
	Category  string   `json:"category"`
	Relevance *float64 `json:"relevance"`
	Grammar   *float64 `json:"grammar"`
	Fluency   *float64 `json:"fluency"`
	Keyword   *float64 `json:"keyword"`
}

func (e *ScoringEndpoints) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := e.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, session, err)
}

func (e *ScoringEndpoints) UpsertSession(w http.ResponseWriter, r *http.Request) {
	var req upsertSessionRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := e.service.UpsertSession(r.Context(), domain.Session{
		ID:       chi.URLParam(r, "sessionID"),
		UserID:   req.UserID,
		Category: req.Category,
	})
	e.respond(w, r, http.StatusOK, session, err)
}

func (e *ScoringEndpoints) TransitionSession(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := e.service.TransitionSession(r.Context(), chi.URLParam(r, "sessionID"), req.Status)
	e.respond(w, r, http.StatusOK, session, err)
}

func (e *ScoringEndpoints) SaveQuestionScore(w http.ResponseWriter, r *http.Request) {
	var req questionScoreRequest
	if !decode(w, r, &req) {
		return
	}
	score, err := e.service.SaveQuestionScore(r.Context(), domain.QuestionScore{
		SessionID:  chi.URLParam(r, "sessionID"),
		QuestionID: chi.URLParam(r, "questionID"),
		Category:   req.Category,
		Relevance:  req.Relevance,
		Grammar:    req.Grammar,
		Fluency:    req.Fluency,
		Keyword:    req.Keyword,
	})
	e.respond(w, r, http.StatusOK, score, err)
}

func (e *ScoringEndpoints) CompleteSession(w http.ResponseWriter, r *http.Request) {
	result, err := e.service.CompleteSession(r.Context(), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, result, err)
}

func (e *ScoringEndpoints) GetScores(w http.ResponseWriter, r *http.Request) {
	breakdown, err := e.service.GetScores(r.Context(), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, breakdown, err)
}

func (e *ScoringEndpoints) ComputeScores(w http.ResponseWriter, r *http.Request) {
	breakdown, err := e.service.ComputeAndStoreScores(r.Context(), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, breakdown, err)
}

func (e *ScoringEndpoints) GetFeedback(w http.ResponseWriter, r *http.Request) {
	record, err := e.service.GetFeedback(r.Context(), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, record, err)
}

func (e *ScoringEndpoints) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	record, err := e.service.GenerateFeedback(r.Context(), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, record, err)
}

func (e *ScoringEndpoints) RecordCompletion(w http.ResponseWriter, r *http.Request) {
	stats, err := e.service.RecordCompletion(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "sessionID"))
	e.respond(w, r, http.StatusOK, stats, err)
}

func (e *ScoringEndpoints) RescoreUser(w http.ResponseWriter, r *http.Request) {
	report, err := e.service.RescoreUser(r.Context(), chi.URLParam(r, "userID"), e.rescoreWorkers)
	e.respond(w, r, http.StatusOK, report, err)
}

func (e *ScoringEndpoints) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := e.service.GetDashboardStats(r.Context(), chi.URLParam(r, "userID"))
	e.respond(w, r, http.StatusOK, stats, err)
}

func (e *ScoringEndpoints) Chart(w http.ResponseWriter, r *http.Request) {
	chart, err := e.service.GetChartData(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "chartType"))
	e.respond(w, r, http.StatusOK, chart, err)
}

func (e *ScoringEndpoints) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}, err error) {
	if err != nil {
		if status, _ := errorStatus(err); status >= http.StatusInternalServerError {
			e.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		writeError(w, r, err)
		return
	}
	writeData(w, r, status, data)
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}
