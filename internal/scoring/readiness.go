package scoring

import "interview-scoring-service/internal/domain"

const (
	ReadyThreshold       = 85.0
	AlmostReadyThreshold = 65.0

	currentWeight      = 0.7
	trendWeight        = 0.3
	trendWindow        = 3
	maxTrendAdjustment = 20.0
)

// Readiness is the readiness part of a feedback record.
type Readiness struct {
	Score     float64
	Level     domain.ReadinessLevel
	NextSteps []string
}

// EvaluateReadiness blends the current total with its trend against the previous
// scores (oldest first, only the last three are used) and derives next steps from the
// level plus one step targeting weakest, whose raw score fills {score}. An empty
// weakest adds no targeted step.
func EvaluateReadiness(current float64, previous []float64, weakest domain.Dimension, weakestScore float64, catalog FeedbackCatalog) Readiness {
	score := ReadinessScore(current, previous)
	level := ReadinessLevelFor(score)

	steps := make([]string, 0, len(catalog.NextSteps[level])+1)
	steps = append(steps, catalog.NextSteps[level]...)
	if weakest != "" {
		step := lookup(catalog.TargetedSteps, weakest, "Dedicate your next session to {dimension}")
		steps = append(steps, render(step, weakest, weakestScore))
	}
	return Readiness{Score: score, Level: level, NextSteps: steps}
}

// ReadinessScore is 0.7*current + 0.3*trend, where trend is current moved by its
// difference to the mean of up to three previous scores, that difference capped at
// +/-20 and the result clamped to [0,100].
func ReadinessScore(current float64, previous []float64) float64 {
	current = clamp(current, 0, 100)
	trend := current
	if len(previous) > 0 {
		if len(previous) > trendWindow {
			previous = previous[len(previous)-trendWindow:]
		}
		adjustment := clamp(current-mean(previous), -maxTrendAdjustment, maxTrendAdjustment)
		trend = clamp(current+adjustment, 0, 100)
	}
	return clamp(Round1(currentWeight*current+trendWeight*trend), 0, 100)
}

// ReadinessLevelFor bands a readiness score.
func ReadinessLevelFor(score float64) domain.ReadinessLevel {
	switch {
	case score >= ReadyThreshold:
		return domain.ReadinessReady
	case score >= AlmostReadyThreshold:
		return domain.ReadinessAlmostReady
	default:
		return domain.ReadinessNeedsPractice
	}
}
