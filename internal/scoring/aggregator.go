package scoring

import (
	"math"

	"interview-scoring-service/internal/domain"
)

// ComputeSessionBreakdown averages each dimension over the questions that evaluated it
// and combines the averages with the profile weights.
//
// A dimension no question evaluated is left out of the breakdown and the remaining
// weights are renormalized so they still sum to 1. Scores are clamped to [0,100];
// NaN counts as not evaluated. The result is a pure function of its inputs.
func ComputeSessionBreakdown(questions []domain.QuestionScore, profile WeightProfile) (domain.SessionScoreBreakdown, error) {
	var (
		sums        = make(map[domain.Dimension]float64, len(domain.Dimensions))
		counts      = make(map[domain.Dimension]int, len(domain.Dimensions))
		contributed int
	)
	for _, q := range questions {
		evaluated := false
		for _, dim := range domain.Dimensions {
			v, ok := normalizedScore(q, dim)
			if !ok {
				continue
			}
			sums[dim] += v
			counts[dim]++
			evaluated = true
		}
		if evaluated {
			contributed++
		}
	}
	if contributed == 0 {
		return domain.SessionScoreBreakdown{}, domain.ErrEmptySession
	}

	presentWeight := 0.0
	for _, dim := range domain.Dimensions {
		if counts[dim] > 0 {
			presentWeight += profile.Weight(dim)
		}
	}
	if presentWeight <= 0 {
		// Only zero-weight dimensions were evaluated; nothing under this profile can be scored.
		return domain.SessionScoreBreakdown{}, domain.ErrEmptySession
	}
	scale := 1.0
	if math.Abs(presentWeight-1.0) > weightTolerance {
		scale = 1.0 / presentWeight
	}

	dims := make(map[domain.Dimension]domain.DimensionScore, len(domain.Dimensions))
	total := 0.0
	for _, dim := range domain.Dimensions {
		if counts[dim] == 0 {
			continue
		}
		avg := sums[dim] / float64(counts[dim])
		weighted := avg * profile.Weight(dim) * scale
		total += weighted
		dims[dim] = domain.DimensionScore{
			Raw:      Round1(avg),
			Weighted: math.Round(weighted*100) / 100,
			Average:  avg,
		}
	}

	total = Round1(total)
	return domain.SessionScoreBreakdown{
		Profile:        profile.Name(),
		QuestionCount:  contributed,
		TotalScore:     total,
		LetterGrade:    Classify(total),
		Dimensions:     dims,
		CategoryScores: categoryScores(questions, profile),
	}, nil
}

// QuestionOverall combines the evaluated dimensions of one answer, renormalizing
// over the weights of the dimensions that are present.
func QuestionOverall(q domain.QuestionScore, profile WeightProfile) (float64, bool) {
	sum, weight := 0.0, 0.0
	for _, dim := range domain.Dimensions {
		v, ok := normalizedScore(q, dim)
		if !ok {
			continue
		}
		w := profile.Weight(dim)
		sum += v * w
		weight += w
	}
	if weight <= 0 {
		return 0, false
	}
	return Round1(sum / weight), true
}

func categoryScores(questions []domain.QuestionScore, profile WeightProfile) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, q := range questions {
		if q.Category == "" {
			continue
		}
		overall, ok := QuestionOverall(q, profile)
		if !ok {
			continue
		}
		sums[q.Category] += overall
		counts[q.Category]++
	}
	if len(counts) == 0 {
		return nil
	}
	out := make(map[string]float64, len(counts))
	for category, n := range counts {
		out[category] = Round1(sums[category] / float64(n))
	}
	return out
}

func normalizedScore(q domain.QuestionScore, dim domain.Dimension) (float64, bool) {
	v, ok := q.Score(dim)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return clamp(v, 0, 100), true
}
