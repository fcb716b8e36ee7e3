package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-scoring-service/internal/app"
	"interview-scoring-service/internal/domain"
	"interview-scoring-service/internal/infra/memory"
	"interview-scoring-service/internal/scoring"
)

type fixture struct {
	service   *app.InterviewService
	sessions  *memory.SessionStore
	artifacts *memory.ArtifactStore
	stats     *memory.StatsStore
	hub       *memory.DashboardHub
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions:  memory.NewSessionStore(),
		artifacts: memory.NewArtifactStore(),
		stats:     memory.NewStatsStore(),
		hub:       memory.NewDashboardHub(),
		now:       time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
	f.service = app.NewInterviewService(app.Dependencies{
		Sessions:  f.sessions,
		Artifacts: f.artifacts,
		Stats:     f.stats,
		Locker:    memory.NewKeyLocker(),
		Publisher: f.hub,
		Clock:     func() time.Time { return f.now },
		Retry:     app.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})
	return f
}

func ptr(v float64) *float64 { return &v }

// startSession creates an in-progress session with one question per score set.
func (f *fixture) startSession(t *testing.T, sessionID, userID string, scores ...[4]float64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.service.UpsertSession(ctx, domain.Session{ID: sessionID, UserID: userID, Category: "general"})
	require.NoError(t, err)
	_, err = f.service.TransitionSession(ctx, sessionID, domain.StatusInProgress)
	require.NoError(t, err)
	for i, s := range scores {
		_, err := f.service.SaveQuestionScore(ctx, domain.QuestionScore{
			SessionID:  sessionID,
			QuestionID: string(rune('a' + i)),
			Relevance:  ptr(s[0]),
			Grammar:    ptr(s[1]),
			Fluency:    ptr(s[2]),
			Keyword:    ptr(s[3]),
		})
		require.NoError(t, err)
	}
}

func TestCompleteSessionPipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{82, 75, 80, 77})

	updates, cancel := f.hub.Subscribe("u1")
	defer cancel()

	result, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, result.Session.Status)
	require.NotNil(t, result.Session.CompletedAt)
	assert.Equal(t, 79.1, result.Breakdown.TotalScore)
	assert.Equal(t, "B+", result.Breakdown.LetterGrade)
	assert.Equal(t, "s1", result.Breakdown.SessionID)

	assert.NotEmpty(t, result.Feedback.ID)
	assert.Equal(t, "u1", result.Feedback.UserID)
	assert.Equal(t, domain.ReadinessAlmostReady, result.Feedback.ReadinessLevel)
	assert.NotEmpty(t, result.Feedback.Strengths)
	assert.NotEmpty(t, result.Feedback.Weaknesses)

	assert.Equal(t, 1, result.Stats.TotalInterviews)
	assert.Equal(t, 1, result.Stats.CurrentStreak)
	assert.Equal(t, 79.1, result.Stats.BestScore)

	select {
	case published := <-updates:
		assert.Equal(t, 1, published.TotalInterviews)
	case <-time.After(time.Second):
		t.Fatal("expected dashboard update")
	}

	stored, err := f.artifacts.GetFeedback(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, result.Feedback, stored)
}

func TestCompleteSessionAppliesHistoryOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{70, 70, 70, 70})

	_, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)

	_, err = f.service.CompleteSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyCompleted)

	_, _, err = f.service.Rescore(ctx, "s1")
	require.NoError(t, err)

	stats, err := f.service.GetDashboardStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInterviews)
}

func TestCompleteEmptySessionStaysInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1")

	_, err := f.service.CompleteSession(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrEmptySession)

	session, err := f.service.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, session.Status)
	_, err = f.artifacts.GetBreakdown(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrBreakdownNotFound)
}

func TestComputeAndStoreScoresRequiresCompletedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{70, 70, 70, 70})

	_, err := f.service.ComputeAndStoreScores(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	_, err = f.service.ComputeAndStoreScores(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestComputeAndStoreScoresIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{82, 75, 80, 77}, [4]float64{60, 65, 70, 55})
	_, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)

	first, err := f.service.ComputeAndStoreScores(ctx, "s1")
	require.NoError(t, err)
	second, err := f.service.ComputeAndStoreScores(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.QuestionCount)
}

func TestGenerateFeedbackRequiresBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{70, 70, 70, 70})

	_, err := f.service.GenerateFeedback(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrBreakdownNotFound)
}

func TestGenerateFeedbackKeepsRecordID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{95, 96, 97, 98})
	result, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	again, err := f.service.GenerateFeedback(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, result.Feedback.ID, again.ID)
	assert.True(t, again.GeneratedAt.After(result.Feedback.GeneratedAt))
	require.Len(t, again.Weaknesses, 1)
	assert.Equal(t, scoring.GenericWeaknessMessage, again.Weaknesses[0].Message)
}

func TestReadinessUsesEarlierSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.startSession(t, "s1", "u1", [4]float64{60, 60, 60, 60})
	_, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)

	f.now = f.now.Add(24 * time.Hour)
	f.startSession(t, "s2", "u1", [4]float64{80, 80, 80, 80})
	result, err := f.service.CompleteSession(ctx, "s2")
	require.NoError(t, err)

	// 0.7*80 + 0.3*clamp(80+20)
	assert.Equal(t, 86.0, result.Feedback.ReadinessScore)
	assert.Equal(t, domain.ReadinessReady, result.Feedback.ReadinessLevel)
	assert.Equal(t, 2, result.Stats.CurrentStreak)
	assert.Equal(t, 20.0, result.Stats.ImprovementRate)
}

func TestRecordCompletionValidatesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{70, 70, 70, 70})

	_, err := f.service.RecordCompletion(ctx, "u1", "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	_, err = f.service.RecordCompletion(ctx, "u2", "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRecordCompletionRequiresBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	completedAt := f.now
	require.NoError(t, f.sessions.UpsertSession(ctx, domain.Session{
		ID: "s1", UserID: "u1", Status: domain.StatusCompleted, CompletedAt: &completedAt,
	}))

	_, err := f.service.RecordCompletion(ctx, "u1", "s1")
	assert.ErrorIs(t, err, domain.ErrBreakdownNotFound)
}

func TestTransitionSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.UpsertSession(ctx, domain.Session{ID: "s1", UserID: "u1"})
	require.NoError(t, err)

	_, err = f.service.TransitionSession(ctx, "s1", domain.StatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "created sessions must start before completing")

	session, err := f.service.TransitionSession(ctx, "s1", domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, session.Status)

	_, err = f.service.TransitionSession(ctx, "s1", domain.StatusInProgress)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUpsertSessionKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1")

	session, err := f.service.UpsertSession(ctx, domain.Session{ID: "s1", UserID: "u1", Category: "technical", Status: domain.StatusCreated})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, session.Status)
	assert.Equal(t, "technical", session.Category)

	_, err = f.service.UpsertSession(ctx, domain.Session{ID: "s1", UserID: "u2"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.service.UpsertSession(ctx, domain.Session{ID: "s2"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveQuestionScoreComputesOverall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.UpsertSession(ctx, domain.Session{ID: "s1", UserID: "u1", Category: "technical"})
	require.NoError(t, err)

	score, err := f.service.SaveQuestionScore(ctx, domain.QuestionScore{
		SessionID:  "s1",
		QuestionID: "q1",
		Relevance:  ptr(80),
		Fluency:    ptr(60),
	})
	require.NoError(t, err)
	// technical weights: (80*.30 + 60*.20) / .50
	assert.Equal(t, "technical", score.Category)
	assert.Equal(t, 72.0, score.Overall)

	_, err = f.service.SaveQuestionScore(ctx, domain.QuestionScore{SessionID: "nope", QuestionID: "q1"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDashboardAndChartsForNewUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.service.GetDashboardStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", stats.UserID)
	assert.Zero(t, stats.TotalInterviews)

	chart, err := f.service.GetChartData(ctx, "nobody", scoring.ChartScoreTrend)
	require.NoError(t, err)
	assert.Empty(t, chart.Labels)

	_, err = f.service.GetChartData(ctx, "nobody", "pie")
	assert.ErrorIs(t, err, domain.ErrUnknownChartType)
}

func TestRescoreUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, id := range []string{"s1", "s2", "s3"} {
		f.now = f.now.Add(time.Duration(i) * time.Hour)
		f.startSession(t, id, "u1", [4]float64{70, 70, 70, 70})
		_, err := f.service.CompleteSession(ctx, id)
		require.NoError(t, err)
	}

	report, err := f.service.RescoreUser(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rescored)
	assert.Empty(t, report.Skipped)

	stats, err := f.service.GetDashboardStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalInterviews)
}

func TestConcurrentCompletionsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	for _, id := range ids {
		f.startSession(t, id, "u1", [4]float64{75, 75, 75, 75})
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.service.CompleteSession(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	stats, err := f.service.GetDashboardStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, len(ids), stats.TotalInterviews)
	assert.Len(t, stats.History, len(ids))
}

func TestPersistenceFailureIsSurfaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{70, 70, 70, 70})

	failing := &failingArtifacts{ArtifactStore: f.artifacts}
	service := app.NewInterviewService(app.Dependencies{
		Sessions:  f.sessions,
		Artifacts: failing,
		Stats:     f.stats,
		Locker:    memory.NewKeyLocker(),
		Retry:     app.RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})

	_, err := service.CompleteSession(ctx, "s1")
	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "breakdown", perr.Op)
	assert.Equal(t, 3, failing.attempts, "first try plus two retries")

	session, err := f.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, session.Status, "completion can be retried")
}

type failingArtifacts struct {
	*memory.ArtifactStore
	attempts int
}

func (f *failingArtifacts) SaveBreakdown(context.Context, domain.SessionScoreBreakdown) error {
	f.attempts++
	return errors.New("connection reset")
}

func TestCompleteSessionResumesFailedHistoryUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{82, 75, 80, 77})

	stats := &flakyStats{StatsStore: f.stats, failing: true}
	service := app.NewInterviewService(app.Dependencies{
		Sessions:  f.sessions,
		Artifacts: f.artifacts,
		Stats:     stats,
		Locker:    memory.NewKeyLocker(),
		Clock:     func() time.Time { return f.now },
		Retry:     app.RetryPolicy{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	})

	_, err := service.CompleteSession(ctx, "s1")
	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "stats", perr.Op)

	session, err := f.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, session.Status)
	assert.False(t, session.HistoryApplied)

	stats.failing = false
	result, err := service.CompleteSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.TotalInterviews)
	assert.Equal(t, 79.1, result.Breakdown.TotalScore)
	assert.True(t, result.Session.HistoryApplied)

	_, err = service.CompleteSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyCompleted)
}

func TestCompleteSessionDoesNotReapplyRecordedHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.startSession(t, "s1", "u1", [4]float64{70, 70, 70, 70})

	_, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)

	// Stats saved but the marker write lost.
	session, err := f.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	session.HistoryApplied = false
	require.NoError(t, f.sessions.UpsertSession(ctx, session))

	result, err := f.service.CompleteSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.TotalInterviews)
	assert.True(t, result.Session.HistoryApplied)
}

type flakyStats struct {
	*memory.StatsStore
	failing bool
}

func (f *flakyStats) SaveStats(ctx context.Context, stats domain.UserHistoryStats) error {
	if f.failing {
		return errors.New("connection reset")
	}
	return f.StatsStore.SaveStats(ctx, stats)
}
