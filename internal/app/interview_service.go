package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/logger"
	"interview-scoring-service/internal/scoring"
)

// SessionStore holds session metadata and per-question scores.
type SessionStore interface {
	UpsertSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	ListCompletedSessions(ctx context.Context, userID string) ([]domain.Session, error)
	SaveQuestionScore(ctx context.Context, score domain.QuestionScore) error
	ListQuestionScores(ctx context.Context, sessionID string) ([]domain.QuestionScore, error)
}

// ArtifactStore persists the per-session score breakdown and feedback record.
// Each save replaces the previous value for the session as a whole.
type ArtifactStore interface {
	SaveBreakdown(ctx context.Context, breakdown domain.SessionScoreBreakdown) error
	GetBreakdown(ctx context.Context, sessionID string) (domain.SessionScoreBreakdown, error)
	SaveFeedback(ctx context.Context, record domain.FeedbackRecord) error
	GetFeedback(ctx context.Context, sessionID string) (domain.FeedbackRecord, error)
}

// StatsStore loads and saves per-user history stats.
type StatsStore interface {
	GetStats(ctx context.Context, userID string) (domain.UserHistoryStats, error)
	SaveStats(ctx context.Context, stats domain.UserHistoryStats) error
}

// KeyLocker serializes writers per key. The returned func releases the lock.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// DashboardPublisher receives every stats update after it is stored.
type DashboardPublisher interface {
	Publish(stats domain.UserHistoryStats)
}

// Dependencies wires an InterviewService. Publisher, Profiles, Catalog, Logger
// and Clock are optional.
type Dependencies struct {
	Sessions  SessionStore
	Artifacts ArtifactStore
	Stats     StatsStore
	Locker    KeyLocker
	Publisher DashboardPublisher
	Profiles  *scoring.ProfileRegistry
	Catalog   scoring.FeedbackCatalog
	Logger    *logger.Logger
	Clock     func() time.Time
	Retry     RetryPolicy
}

// InterviewService contains the scoring, feedback and history use cases.
type InterviewService struct {
	sessions  SessionStore
	artifacts ArtifactStore
	stats     StatsStore
	locker    KeyLocker
	publisher DashboardPublisher
	profiles  *scoring.ProfileRegistry
	catalog   scoring.FeedbackCatalog
	log       *logger.Logger
	now       func() time.Time
	retry     RetryPolicy
}

// CompletionResult is everything produced by the completion pipeline.
type CompletionResult struct {
	Session   domain.Session               `json:"session"`
	Breakdown domain.SessionScoreBreakdown `json:"scores"`
	Feedback  domain.FeedbackRecord        `json:"feedback"`
	Stats     domain.UserHistoryStats      `json:"stats"`
}

// RescoreReport summarizes a batch rescoring run.
type RescoreReport struct {
	UserID   string   `json:"user_id"`
	Rescored int      `json:"rescored"`
	Skipped  []string `json:"skipped,omitempty"`
}

func NewInterviewService(deps Dependencies) *InterviewService {
	s := &InterviewService{
		sessions:  deps.Sessions,
		artifacts: deps.Artifacts,
		stats:     deps.Stats,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		profiles:  deps.Profiles,
		catalog:   deps.Catalog,
		log:       deps.Logger,
		now:       deps.Clock,
		retry:     deps.Retry.withDefaults(),
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.profiles == nil {
		s.profiles, _ = scoring.NewProfileRegistry(scoring.BuiltinProfiles(), nil)
	}
	if s.catalog.Strengths == nil && s.catalog.Weaknesses == nil {
		s.catalog = scoring.DefaultCatalog()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// UpsertSession registers session metadata. Existing sessions keep their status;
// use TransitionSession to move them through the lifecycle.
func (s *InterviewService) UpsertSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if session.ID == "" || session.UserID == "" {
		return domain.Session{}, fmt.Errorf("%w: session id and user id are required", domain.ErrInvalidInput)
	}
	unlock, err := s.locker.Lock(ctx, sessionKey(session.ID))
	if err != nil {
		return domain.Session{}, err
	}
	defer unlock()

	existing, err := s.sessions.GetSession(ctx, session.ID)
	switch {
	case err == nil:
		if existing.UserID != session.UserID {
			return domain.Session{}, fmt.Errorf("%w: session %s belongs to another user", domain.ErrInvalidInput, session.ID)
		}
		existing.Category = session.Category
		session = existing
	case errors.Is(err, domain.ErrSessionNotFound):
		if session.Status == "" {
			session.Status = domain.StatusCreated
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = s.now()
		}
		if session.Status == domain.StatusCompleted {
			return domain.Session{}, fmt.Errorf("%w: sessions are completed through the completion pipeline", domain.ErrInvalidTransition)
		}
	default:
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	if err := s.persist(ctx, "session", session.ID, func(ctx context.Context) error {
		return s.sessions.UpsertSession(ctx, session)
	}); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// TransitionSession moves a session through created -> in_progress -> completed | cancelled.
// Completing runs the full completion pipeline.
func (s *InterviewService) TransitionSession(ctx context.Context, sessionID string, to domain.SessionStatus) (domain.Session, error) {
	if to == domain.StatusCompleted {
		result, err := s.CompleteSession(ctx, sessionID)
		return result.Session, err
	}

	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return domain.Session{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := checkTransition(session.Status, to); err != nil {
		return domain.Session{}, err
	}
	session.Status = to
	if err := s.persist(ctx, "session", session.ID, func(ctx context.Context) error {
		return s.sessions.UpsertSession(ctx, session)
	}); err != nil {
		return domain.Session{}, err
	}
	s.log.Info("session transitioned", "session_id", sessionID, "status", to)
	return session, nil
}

// SaveQuestionScore stores one evaluated answer, replacing any earlier evaluation of it.
func (s *InterviewService) SaveQuestionScore(ctx context.Context, score domain.QuestionScore) (domain.QuestionScore, error) {
	if score.SessionID == "" || score.QuestionID == "" {
		return domain.QuestionScore{}, fmt.Errorf("%w: session id and question id are required", domain.ErrInvalidInput)
	}
	unlock, err := s.locker.Lock(ctx, sessionKey(score.SessionID))
	if err != nil {
		return domain.QuestionScore{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, score.SessionID)
	if err != nil {
		return domain.QuestionScore{}, err
	}
	if score.Category == "" {
		score.Category = session.Category
	}
	score.Overall, _ = scoring.QuestionOverall(score, s.profiles.ForCategory(session.Category))

	if err := s.persist(ctx, "question_score", score.SessionID+"/"+score.QuestionID, func(ctx context.Context) error {
		return s.sessions.SaveQuestionScore(ctx, score)
	}); err != nil {
		return domain.QuestionScore{}, err
	}
	return score, nil
}

// ComputeAndStoreScores recomputes and stores the breakdown of a completed session.
func (s *InterviewService) ComputeAndStoreScores(ctx context.Context, sessionID string) (domain.SessionScoreBreakdown, error) {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return domain.SessionScoreBreakdown{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.SessionScoreBreakdown{}, err
	}
	if session.Status != domain.StatusCompleted {
		return domain.SessionScoreBreakdown{}, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, domain.ErrSessionNotCompleted)
	}
	breakdown, err := s.breakdownFor(ctx, session)
	if err != nil {
		return domain.SessionScoreBreakdown{}, err
	}
	if err := s.saveBreakdown(ctx, breakdown); err != nil {
		return domain.SessionScoreBreakdown{}, err
	}
	return breakdown, nil
}

// GenerateFeedback synthesizes and stores feedback from the stored breakdown.
func (s *InterviewService) GenerateFeedback(ctx context.Context, sessionID string) (domain.FeedbackRecord, error) {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return domain.FeedbackRecord{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.FeedbackRecord{}, err
	}
	breakdown, err := s.artifacts.GetBreakdown(ctx, sessionID)
	if err != nil {
		return domain.FeedbackRecord{}, err
	}
	return s.generateFeedback(ctx, session, breakdown)
}

// RecordCompletion applies one completed session to the user's history stats.
// Each call is one history event; callers must not repeat it for a session.
func (s *InterviewService) RecordCompletion(ctx context.Context, userID, sessionID string) (domain.UserHistoryStats, error) {
	return s.recordCompletion(ctx, userID, sessionID, false)
}

// recordCompletion applies the session under the user lock. With onlyOnce set, a
// session already present in the retained history is not applied again.
func (s *InterviewService) recordCompletion(ctx context.Context, userID, sessionID string, onlyOnce bool) (domain.UserHistoryStats, error) {
	unlock, err := s.locker.Lock(ctx, userKey(userID))
	if err != nil {
		return domain.UserHistoryStats{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.UserHistoryStats{}, err
	}
	if session.UserID != userID {
		return domain.UserHistoryStats{}, fmt.Errorf("%w: %s for user %s", domain.ErrSessionNotFound, sessionID, userID)
	}
	if session.Status != domain.StatusCompleted {
		return domain.UserHistoryStats{}, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, domain.ErrSessionNotCompleted)
	}
	breakdown, err := s.artifacts.GetBreakdown(ctx, sessionID)
	if err != nil {
		return domain.UserHistoryStats{}, err
	}

	stats, err := s.loadStats(ctx, userID)
	if err != nil {
		return domain.UserHistoryStats{}, err
	}
	if onlyOnce && inHistory(stats, sessionID) {
		return stats, nil
	}
	completedAt := s.now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}
	updated := scoring.ApplyCompletedSession(stats, breakdown, completedAt)

	if err := s.persist(ctx, "stats", userID, func(ctx context.Context) error {
		return s.stats.SaveStats(ctx, updated)
	}); err != nil {
		return domain.UserHistoryStats{}, err
	}
	s.publisher.Publish(updated)
	s.log.Info("history updated",
		"user_id", userID,
		"session_id", sessionID,
		"total_interviews", updated.TotalInterviews,
		"current_streak", updated.CurrentStreak,
	)
	return updated, nil
}

// CompleteSession scores an in-progress session, marks it completed, stores its
// breakdown and feedback, then applies it to the user's history exactly once.
// A session with nothing to score stays in progress. A completed session whose
// history update failed is finished by calling CompleteSession again.
func (s *InterviewService) CompleteSession(ctx context.Context, sessionID string) (CompletionResult, error) {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return CompletionResult{}, err
	}
	result, err := s.completeLocked(ctx, sessionID)
	unlock()
	if err != nil {
		return CompletionResult{}, err
	}

	stats, err := s.recordCompletion(ctx, result.Session.UserID, sessionID, true)
	if err != nil {
		return CompletionResult{}, err
	}
	session, err := s.markHistoryApplied(ctx, sessionID)
	if err != nil {
		return CompletionResult{}, err
	}
	result.Session = session
	result.Stats = stats
	return result, nil
}

func (s *InterviewService) markHistoryApplied(ctx context.Context, sessionID string) (domain.Session, error) {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return domain.Session{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.HistoryApplied {
		return session, nil
	}
	session.HistoryApplied = true
	if err := s.persist(ctx, "session", session.ID, func(ctx context.Context) error {
		return s.sessions.UpsertSession(ctx, session)
	}); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *InterviewService) completeLocked(ctx context.Context, sessionID string) (CompletionResult, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return CompletionResult{}, err
	}
	if session.Status == domain.StatusCompleted && !session.HistoryApplied {
		return s.pendingCompletion(ctx, session)
	}
	if err := checkTransition(session.Status, domain.StatusCompleted); err != nil {
		return CompletionResult{}, err
	}
	breakdown, err := s.breakdownFor(ctx, session)
	if err != nil {
		return CompletionResult{}, err
	}

	completedAt := s.now()
	session.Status = domain.StatusCompleted
	session.CompletedAt = &completedAt

	// The status is written last so a failed artifact write leaves the session
	// in progress and the completion can be retried.
	if err := s.saveBreakdown(ctx, breakdown); err != nil {
		return CompletionResult{}, err
	}
	feedback, err := s.generateFeedback(ctx, session, breakdown)
	if err != nil {
		return CompletionResult{}, err
	}
	if err := s.persist(ctx, "session", session.ID, func(ctx context.Context) error {
		return s.sessions.UpsertSession(ctx, session)
	}); err != nil {
		return CompletionResult{}, err
	}
	s.log.Info("session completed", "session_id", session.ID, "user_id", session.UserID)
	return CompletionResult{Session: session, Breakdown: breakdown, Feedback: feedback}, nil
}

// pendingCompletion returns the stored artifacts of a completed session whose
// history update has not been recorded yet.
func (s *InterviewService) pendingCompletion(ctx context.Context, session domain.Session) (CompletionResult, error) {
	breakdown, err := s.artifacts.GetBreakdown(ctx, session.ID)
	if err != nil {
		return CompletionResult{}, err
	}
	feedback, err := s.artifacts.GetFeedback(ctx, session.ID)
	if err != nil {
		return CompletionResult{}, err
	}
	s.log.Info("resuming completion", "session_id", session.ID, "user_id", session.UserID)
	return CompletionResult{Session: session, Breakdown: breakdown, Feedback: feedback}, nil
}

// Rescore recomputes the breakdown and feedback of a completed session without
// touching history.
func (s *InterviewService) Rescore(ctx context.Context, sessionID string) (domain.SessionScoreBreakdown, domain.FeedbackRecord, error) {
	unlock, err := s.locker.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return domain.SessionScoreBreakdown{}, domain.FeedbackRecord{}, err
	}
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.SessionScoreBreakdown{}, domain.FeedbackRecord{}, err
	}
	if session.Status != domain.StatusCompleted {
		return domain.SessionScoreBreakdown{}, domain.FeedbackRecord{}, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, domain.ErrSessionNotCompleted)
	}
	breakdown, err := s.breakdownFor(ctx, session)
	if err != nil {
		return domain.SessionScoreBreakdown{}, domain.FeedbackRecord{}, err
	}
	if err := s.saveBreakdown(ctx, breakdown); err != nil {
		return domain.SessionScoreBreakdown{}, domain.FeedbackRecord{}, err
	}
	feedback, err := s.generateFeedback(ctx, session, breakdown)
	if err != nil {
		return domain.SessionScoreBreakdown{}, domain.FeedbackRecord{}, err
	}
	return breakdown, feedback, nil
}

// RescoreUser rescores every completed session of a user with at most workers
// sessions in flight. Sessions with nothing to score are skipped.
func (s *InterviewService) RescoreUser(ctx context.Context, userID string, workers int) (RescoreReport, error) {
	sessions, err := s.sessions.ListCompletedSessions(ctx, userID)
	if err != nil {
		return RescoreReport{}, fmt.Errorf("list sessions: %w", err)
	}
	if workers < 1 {
		workers = 1
	}

	skipped := make([]bool, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, session := range sessions {
		i, sessionID := i, session.ID
		g.Go(func() error {
			_, _, err := s.Rescore(gctx, sessionID)
			if errors.Is(err, domain.ErrEmptySession) {
				s.log.Warn("rescore skipped", "session_id", sessionID, "error", err)
				skipped[i] = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return RescoreReport{}, err
	}

	report := RescoreReport{UserID: userID}
	for i, session := range sessions {
		if skipped[i] {
			report.Skipped = append(report.Skipped, session.ID)
			continue
		}
		report.Rescored++
	}
	s.log.Info("user rescored", "user_id", userID, "rescored", report.Rescored, "skipped", len(report.Skipped))
	return report, nil
}

// GetSession returns session metadata.
func (s *InterviewService) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.loadSession(ctx, sessionID)
}

// GetScores returns the stored breakdown of a session.
func (s *InterviewService) GetScores(ctx context.Context, sessionID string) (domain.SessionScoreBreakdown, error) {
	return s.artifacts.GetBreakdown(ctx, sessionID)
}

// GetFeedback returns the stored feedback of a session.
func (s *InterviewService) GetFeedback(ctx context.Context, sessionID string) (domain.FeedbackRecord, error) {
	return s.artifacts.GetFeedback(ctx, sessionID)
}

// GetDashboardStats returns the user's stats; a user with no history gets empty stats.
func (s *InterviewService) GetDashboardStats(ctx context.Context, userID string) (domain.UserHistoryStats, error) {
	return s.loadStats(ctx, userID)
}

// GetChartData derives a chart from the user's stats.
func (s *InterviewService) GetChartData(ctx context.Context, userID, chartType string) (domain.ChartData, error) {
	stats, err := s.loadStats(ctx, userID)
	if err != nil {
		return domain.ChartData{}, err
	}
	return scoring.BuildChart(stats, chartType, s.now())
}

func (s *InterviewService) breakdownFor(ctx context.Context, session domain.Session) (domain.SessionScoreBreakdown, error) {
	questions, err := s.sessions.ListQuestionScores(ctx, session.ID)
	if err != nil {
		return domain.SessionScoreBreakdown{}, fmt.Errorf("list question scores: %w", err)
	}
	for i := range questions {
		if questions[i].Category == "" {
			questions[i].Category = session.Category
		}
	}
	breakdown, err := scoring.ComputeSessionBreakdown(questions, s.profiles.ForCategory(session.Category))
	if err != nil {
		return domain.SessionScoreBreakdown{}, fmt.Errorf("session %s: %w", session.ID, err)
	}
	breakdown.SessionID = session.ID
	return breakdown, nil
}

func (s *InterviewService) saveBreakdown(ctx context.Context, breakdown domain.SessionScoreBreakdown) error {
	if err := s.persist(ctx, "breakdown", breakdown.SessionID, func(ctx context.Context) error {
		return s.artifacts.SaveBreakdown(ctx, breakdown)
	}); err != nil {
		return err
	}
	s.log.Info("scores stored",
		"session_id", breakdown.SessionID,
		"profile", breakdown.Profile,
		"total_score", breakdown.TotalScore,
		"letter_grade", breakdown.LetterGrade,
	)
	return nil
}

func (s *InterviewService) generateFeedback(ctx context.Context, session domain.Session, breakdown domain.SessionScoreBreakdown) (domain.FeedbackRecord, error) {
	profile, err := s.profiles.Get(breakdown.Profile)
	if err != nil {
		profile = s.profiles.ForCategory(session.Category)
	}
	stats, err := s.loadStats(ctx, session.UserID)
	if err != nil {
		return domain.FeedbackRecord{}, err
	}

	weakest, _ := scoring.WeakestDimension(breakdown, profile)
	readiness := scoring.EvaluateReadiness(breakdown.TotalScore, previousScores(stats, session), weakest, breakdown.Dimensions[weakest].Raw, s.catalog)
	record := scoring.Synthesize(breakdown, profile, s.catalog, readiness)

	record.ID = uuid.NewString()
	if existing, err := s.artifacts.GetFeedback(ctx, session.ID); err == nil && existing.ID != "" {
		record.ID = existing.ID
	}
	record.SessionID = session.ID
	record.UserID = session.UserID
	record.GeneratedAt = s.now()

	if err := s.persist(ctx, "feedback", session.ID, func(ctx context.Context) error {
		return s.artifacts.SaveFeedback(ctx, record)
	}); err != nil {
		return domain.FeedbackRecord{}, err
	}
	s.log.Info("feedback stored",
		"session_id", session.ID,
		"readiness_level", record.ReadinessLevel,
		"readiness_score", record.ReadinessScore,
	)
	return record, nil
}

func (s *InterviewService) loadSession(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return session, nil
}

func (s *InterviewService) loadStats(ctx context.Context, userID string) (domain.UserHistoryStats, error) {
	stats, err := s.stats.GetStats(ctx, userID)
	if errors.Is(err, domain.ErrStatsNotFound) {
		return scoring.NewUserHistoryStats(userID), nil
	}
	if err != nil {
		return domain.UserHistoryStats{}, fmt.Errorf("load stats %s: %w", userID, err)
	}
	return stats, nil
}

// previousScores returns the retained scores completed before the session, oldest first.
func previousScores(stats domain.UserHistoryStats, session domain.Session) []float64 {
	if session.CompletedAt == nil {
		return scoring.PreviousScores(stats, session.ID)
	}
	points := make([]domain.ScorePoint, 0, len(stats.History))
	for _, p := range stats.History {
		if p.SessionID != session.ID && p.CompletedAt.Before(*session.CompletedAt) {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CompletedAt.Before(points[j].CompletedAt)
	})
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Score)
	}
	return out
}

func inHistory(stats domain.UserHistoryStats, sessionID string) bool {
	for _, p := range stats.History {
		if p.SessionID == sessionID {
			return true
		}
	}
	return false
}

func checkTransition(from, to domain.SessionStatus) error {
	if from == domain.StatusCompleted && to == domain.StatusCompleted {
		return domain.ErrSessionAlreadyCompleted
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userKey(userID string) string {
	return "user:" + userID
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.UserHistoryStats) {}
