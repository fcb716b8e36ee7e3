package domain

import "time"

// Dimension is one NLP-derived sub-score of an answer.
type Dimension string

const (
	DimensionRelevance Dimension = "relevance"
	DimensionGrammar   Dimension = "grammar"
	DimensionFluency   Dimension = "fluency"
	DimensionKeyword   Dimension = "keyword"
)

// Dimensions lists every dimension in canonical order. Ties are broken by this order.
var Dimensions = []Dimension{DimensionRelevance, DimensionGrammar, DimensionFluency, DimensionKeyword}

// Label is the human-facing name used in feedback text.
func (d Dimension) Label() string {
	switch d {
	case DimensionRelevance:
		return "Relevance"
	case DimensionGrammar:
		return "Grammar"
	case DimensionFluency:
		return "Fluency"
	case DimensionKeyword:
		return "Keyword Usage"
	default:
		return string(d)
	}
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

const (
	StatusCreated    SessionStatus = "created"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusCancelled  SessionStatus = "cancelled"
)

// CanTransitionTo implements created -> in_progress -> completed | cancelled.
func (s SessionStatus) CanTransitionTo(to SessionStatus) bool {
	switch s {
	case StatusCreated:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// Session is the metadata of one mock interview.
type Session struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Status      SessionStatus `json:"status"`
	Category    string        `json:"category"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	// HistoryApplied is set once the completion has been recorded in the user's history.
	HistoryApplied bool `json:"history_applied"`
}

// QuestionScore is one evaluated answer. A nil dimension was not evaluated.
type QuestionScore struct {
	SessionID  string   `json:"session_id"`
	QuestionID string   `json:"question_id"`
	Category   string   `json:"category,omitempty"`
	Relevance  *float64 `json:"relevance,omitempty"`
	Grammar    *float64 `json:"grammar,omitempty"`
	Fluency    *float64 `json:"fluency,omitempty"`
	Keyword    *float64 `json:"keyword,omitempty"`
	Overall    float64  `json:"overall"`
}

// Score returns the value of a dimension and whether it was evaluated.
func (q QuestionScore) Score(d Dimension) (float64, bool) {
	var v *float64
	switch d {
	case DimensionRelevance:
		v = q.Relevance
	case DimensionGrammar:
		v = q.Grammar
	case DimensionFluency:
		v = q.Fluency
	case DimensionKeyword:
		v = q.Keyword
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// DimensionScore is the session average of a dimension and its weighted contribution.
type DimensionScore struct {
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
	// Average is the unrounded mean that strength and weakness thresholds compare.
	Average float64 `json:"average"`
}

// SessionScoreBreakdown is the aggregated score of a completed session.
type SessionScoreBreakdown struct {
	SessionID      string                       `json:"session_id"`
	Profile        string                       `json:"profile"`
	QuestionCount  int                          `json:"question_count"`
	TotalScore     float64                      `json:"total_score"`
	LetterGrade    string                       `json:"letter_grade"`
	Dimensions     map[Dimension]DimensionScore `json:"breakdown"`
	CategoryScores map[string]float64           `json:"category_scores,omitempty"`
}

// FeedbackItem is a strength or weakness entry.
type FeedbackItem struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Resource is a learning resource attached to a weak dimension.
type Resource struct {
	Title       string `json:"title" yaml:"title"`
	Type        string `json:"type" yaml:"type"`
	URL         string `json:"url,omitempty" yaml:"url"`
	Description string `json:"description" yaml:"description"`
	SkillArea   string `json:"skill_area" yaml:"skill_area"`
}

// ReadinessLevel is the coarse banding of interview preparedness.
type ReadinessLevel string

const (
	ReadinessReady         ReadinessLevel = "Ready"
	ReadinessAlmostReady   ReadinessLevel = "Almost Ready"
	ReadinessNeedsPractice ReadinessLevel = "Needs Practice"
)

// FeedbackRecord is the structured feedback of one session.
type FeedbackRecord struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"session_id"`
	UserID         string         `json:"user_id"`
	OverallRating  string         `json:"overall_rating"`
	Summary        string         `json:"summary"`
	Strengths      []FeedbackItem `json:"strengths"`
	Weaknesses     []FeedbackItem `json:"weaknesses"`
	Suggestions    []string       `json:"suggestions"`
	Resources      []Resource     `json:"resources"`
	ReadinessScore float64        `json:"readiness_score"`
	ReadinessLevel ReadinessLevel `json:"readiness_level"`
	NextSteps      []string       `json:"next_steps"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// ScorePoint is one completed session in a user's retained history.
type ScorePoint struct {
	SessionID   string    `json:"session_id"`
	Score       float64   `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// UserHistoryStats holds the rolling per-user aggregates.
type UserHistoryStats struct {
	UserID                 string                `json:"user_id"`
	TotalInterviews        int                   `json:"total_interviews"`
	TotalQuestionsAnswered int                   `json:"total_questions_answered"`
	AverageScore           float64               `json:"average_score"`
	BestScore              float64               `json:"best_score"`
	RecentScore            float64               `json:"recent_score"`
	CurrentStreak          int                   `json:"current_streak"`
	LongestStreak          int                   `json:"longest_streak"`
	ImprovementRate        float64               `json:"improvement_rate"`
	Percentile             int                   `json:"percentile"`
	SkillsBreakdown        map[Dimension]float64 `json:"skills_breakdown"`
	SkillSamples           map[Dimension]int     `json:"skill_samples,omitempty"`
	CategoryScores         map[string]float64    `json:"category_scores"`
	CategorySamples        map[string]int        `json:"category_samples,omitempty"`
	LastCompletedOn        string                `json:"last_completed_on,omitempty"`
	History                []ScorePoint          `json:"history,omitempty"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

// ChartDataset is one series of a chart.
type ChartDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// ChartData is a derived, ordered series for dashboard charts.
type ChartData struct {
	ChartType string         `json:"chart_type"`
	Labels    []string       `json:"labels"`
	Datasets  []ChartDataset `json:"datasets"`
}
