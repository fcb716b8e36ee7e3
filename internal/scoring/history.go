package scoring

import (
	"math"
	"time"

	"interview-scoring-service/internal/domain"
)

const (
	// HistoryRetention is how many score points a user's stats keep.
	HistoryRetention = 30

	improvementWindow = 5
	dateLayout        = "2006-01-02"
	defaultPercentile = 50
)

// NewUserHistoryStats returns empty stats for a user without completions.
func NewUserHistoryStats(userID string) domain.UserHistoryStats {
	return domain.UserHistoryStats{
		UserID:          userID,
		Percentile:      defaultPercentile,
		SkillsBreakdown: map[domain.Dimension]float64{},
		SkillSamples:    map[domain.Dimension]int{},
		CategoryScores:  map[string]float64{},
		CategorySamples: map[string]int{},
	}
}

// ApplyCompletedSession folds one completed session into the user's running stats.
// It is an event application, not a recomputation: applying the same session twice
// counts it twice. The input stats are not modified.
func ApplyCompletedSession(stats domain.UserHistoryStats, b domain.SessionScoreBreakdown, completedAt time.Time) domain.UserHistoryStats {
	out := cloneStats(stats)
	previous := historyScores(out.History)

	out.TotalInterviews++
	out.AverageScore += (b.TotalScore - out.AverageScore) / float64(out.TotalInterviews)
	if out.TotalInterviews == 1 || b.TotalScore > out.BestScore {
		out.BestScore = b.TotalScore
	}
	out.RecentScore = b.TotalScore
	out.TotalQuestionsAnswered += b.QuestionCount
	out.Percentile = Percentile(b.TotalScore, previous)

	applyStreak(&out, completedAt)

	for dim, ds := range b.Dimensions {
		out.SkillSamples[dim]++
		prev := out.SkillsBreakdown[dim]
		out.SkillsBreakdown[dim] = prev + (ds.Raw-prev)/float64(out.SkillSamples[dim])
	}
	for category, score := range b.CategoryScores {
		out.CategorySamples[category]++
		prev := out.CategoryScores[category]
		out.CategoryScores[category] = prev + (score-prev)/float64(out.CategorySamples[category])
	}

	out.History = append(out.History, domain.ScorePoint{
		SessionID:   b.SessionID,
		Score:       b.TotalScore,
		CompletedAt: completedAt,
	})
	if len(out.History) > HistoryRetention {
		out.History = out.History[len(out.History)-HistoryRetention:]
	}
	out.ImprovementRate = ImprovementRate(historyScores(out.History))
	out.UpdatedAt = completedAt
	return out
}

// applyStreak compares calendar days in the location of completedAt. A completion
// dated before the last recorded day leaves the streak and the date untouched.
func applyStreak(stats *domain.UserHistoryStats, completedAt time.Time) {
	today := calendarDay(completedAt)
	last, err := time.Parse(dateLayout, stats.LastCompletedOn)
	if stats.LastCompletedOn == "" || err != nil {
		stats.CurrentStreak = 1
	} else {
		switch gap := int(today.Sub(last).Hours() / 24); {
		case gap < 0:
			return
		case gap == 0:
			if stats.CurrentStreak == 0 {
				stats.CurrentStreak = 1
			}
		case gap == 1:
			stats.CurrentStreak++
		default:
			stats.CurrentStreak = 1
		}
	}
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.LastCompletedOn = today.Format(dateLayout)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ImprovementRate is the mean of the most recent (up to 5) scores minus the mean of
// the (up to 5) scores before them. At least one score is always left for the
// preceding window. Scores are oldest first.
func ImprovementRate(scores []float64) float64 {
	n := len(scores)
	if n < 2 {
		return 0
	}
	recentN := n - 1
	if recentN > improvementWindow {
		recentN = improvementWindow
	}
	priorN := n - recentN
	if priorN > improvementWindow {
		priorN = improvementWindow
	}
	recent := scores[n-recentN:]
	prior := scores[n-recentN-priorN : n-recentN]
	return Round1(mean(recent) - mean(prior))
}

// Percentile is the share of previous scores strictly below score, in percent.
// Without previous scores it is 50.
func Percentile(score float64, previous []float64) int {
	if len(previous) == 0 {
		return defaultPercentile
	}
	below := 0
	for _, s := range previous {
		if s < score {
			below++
		}
	}
	return int(math.Round(float64(below) / float64(len(previous)) * 100))
}

// PreviousScores returns the retained scores other than the given session, oldest first.
func PreviousScores(stats domain.UserHistoryStats, excludeSessionID string) []float64 {
	out := make([]float64, 0, len(stats.History))
	for _, p := range stats.History {
		if p.SessionID == excludeSessionID {
			continue
		}
		out = append(out, p.Score)
	}
	return out
}

func historyScores(points []domain.ScorePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Score
	}
	return out
}

func cloneStats(in domain.UserHistoryStats) domain.UserHistoryStats {
	out := in
	out.SkillsBreakdown = make(map[domain.Dimension]float64, len(in.SkillsBreakdown))
	for k, v := range in.SkillsBreakdown {
		out.SkillsBreakdown[k] = v
	}
	out.SkillSamples = make(map[domain.Dimension]int, len(in.SkillSamples))
	for k, v := range in.SkillSamples {
		out.SkillSamples[k] = v
	}
	out.CategoryScores = make(map[string]float64, len(in.CategoryScores))
	for k, v := range in.CategoryScores {
		out.CategoryScores[k] = v
	}
	out.CategorySamples = make(map[string]int, len(in.CategorySamples))
	for k, v := range in.CategorySamples {
		out.CategorySamples[k] = v
	}
	out.History = append([]domain.ScorePoint(nil), in.History...)
	return out
}
