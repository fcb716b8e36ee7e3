package scoring

import (
	"fmt"
	"sort"
	"strings"

	"interview-scoring-service/internal/domain"
)

const (
	// StrengthThreshold is the inclusive dimension average from which a dimension is a strength.
	StrengthThreshold = 80.0
	// WeaknessThreshold is the exclusive dimension average below which a dimension is a weakness.
	WeaknessThreshold = 60.0

	maxFeedbackItems        = 3
	maxResourcesPerCategory = 2
)

type rankedDimension struct {
	dim     domain.Dimension
	score   float64
	average float64
	weight  float64
	order   int
}

// Synthesize derives strengths, weaknesses, suggestions and resources from a finalized
// breakdown and merges in the readiness assessment. Strengths and weaknesses are never
// both empty: each falls back to a generic entry. Output depends only on the inputs.
func Synthesize(b domain.SessionScoreBreakdown, profile WeightProfile, catalog FeedbackCatalog, readiness Readiness) domain.FeedbackRecord {
	strong := strengthsOf(b, profile)
	weak := weaknessesOf(b, profile)

	strengths := make([]domain.FeedbackItem, 0, len(strong))
	for _, r := range strong {
		strengths = append(strengths, domain.FeedbackItem{
			Category: string(r.dim),
			Message:  render(lookup(catalog.Strengths, r.dim, "Strong {dimension} ({score}/100)"), r.dim, r.score),
		})
	}
	if len(strengths) == 0 {
		strengths = append(strengths, domain.FeedbackItem{Category: GenericStrengthCategory, Message: GenericStrengthMessage})
	}

	weaknesses := make([]domain.FeedbackItem, 0, len(weak))
	suggestions := make([]string, 0, len(weak)+1)
	resources := make([]domain.Resource, 0)
	for _, r := range weak {
		weaknesses = append(weaknesses, domain.FeedbackItem{
			Category: string(r.dim),
			Message:  render(lookup(catalog.Weaknesses, r.dim, "Low {dimension} ({score}/100)"), r.dim, r.score),
		})
		suggestion, ok := catalog.Suggestions[string(r.dim)]
		if !ok || suggestion == "" {
			suggestion = GenericSuggestion
		}
		suggestions = append(suggestions, render(suggestion, r.dim, r.score))

		attached := catalog.Resources[string(r.dim)]
		if len(attached) > maxResourcesPerCategory {
			attached = attached[:maxResourcesPerCategory]
		}
		resources = append(resources, attached...)
	}
	if len(weaknesses) == 0 {
		weaknesses = append(weaknesses, domain.FeedbackItem{Category: GenericWeaknessCategory, Message: GenericWeaknessMessage})
		suggestions = append(suggestions, MaintenanceSuggestion)
	}

	rating := Rating(b.TotalScore)
	return domain.FeedbackRecord{
		SessionID:      b.SessionID,
		OverallRating:  rating,
		Summary:        summarize(b, rating, strong, weak),
		Strengths:      strengths,
		Weaknesses:     weaknesses,
		Suggestions:    suggestions,
		Resources:      resources,
		ReadinessScore: readiness.Score,
		ReadinessLevel: readiness.Level,
		NextSteps:      readiness.NextSteps,
	}
}

// strengthsOf returns eligible strengths, best first, capped.
func strengthsOf(b domain.SessionScoreBreakdown, profile WeightProfile) []rankedDimension {
	eligible := rank(b, profile, func(score float64) bool { return score >= StrengthThreshold })
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].average != eligible[j].average {
			return eligible[i].average > eligible[j].average
		}
		return tieBreak(eligible[i], eligible[j])
	})
	return capItems(eligible)
}

// weaknessesOf returns eligible weaknesses, worst first, capped.
func weaknessesOf(b domain.SessionScoreBreakdown, profile WeightProfile) []rankedDimension {
	eligible := rank(b, profile, func(score float64) bool { return score < WeaknessThreshold })
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].average != eligible[j].average {
			return eligible[i].average < eligible[j].average
		}
		return tieBreak(eligible[i], eligible[j])
	})
	return capItems(eligible)
}

// WeakestDimension returns the lowest-scoring dimension of the breakdown using the
// same ordering as weaknesses.
func WeakestDimension(b domain.SessionScoreBreakdown, profile WeightProfile) (domain.Dimension, bool) {
	all := rank(b, profile, func(float64) bool { return true })
	if len(all) == 0 {
		return "", false
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].average != all[j].average {
			return all[i].average < all[j].average
		}
		return tieBreak(all[i], all[j])
	})
	return all[0].dim, true
}

func rank(b domain.SessionScoreBreakdown, profile WeightProfile, keep func(float64) bool) []rankedDimension {
	out := make([]rankedDimension, 0, len(domain.Dimensions))
	for i, dim := range domain.Dimensions {
		ds, ok := b.Dimensions[dim]
		if !ok {
			continue
		}
		average := ds.Average
		if average == 0 && ds.Raw != 0 {
			// Breakdowns built without an average compare on the rounded score.
			average = ds.Raw
		}
		if !keep(average) {
			continue
		}
		out = append(out, rankedDimension{dim: dim, score: ds.Raw, average: average, weight: profile.Weight(dim), order: i})
	}
	return out
}

// Equal scores: the heavier-weighted dimension first, then canonical order.
func tieBreak(a, b rankedDimension) bool {
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	return a.order < b.order
}

func capItems(items []rankedDimension) []rankedDimension {
	if len(items) > maxFeedbackItems {
		return items[:maxFeedbackItems]
	}
	return items
}

func lookup(table map[domain.Dimension]string, dim domain.Dimension, fallback string) string {
	if msg, ok := table[dim]; ok && msg != "" {
		return msg
	}
	return fallback
}

func summarize(b domain.SessionScoreBreakdown, rating string, strong, weak []rankedDimension) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your interview performance was rated %s with an overall score of %.1f/100 (grade %s).",
		rating, b.TotalScore, b.LetterGrade)
	if names := labels(strong, 2); names != "" {
		fmt.Fprintf(&sb, " Your strengths include %s.", names)
	}
	if names := labels(weak, 2); names != "" {
		fmt.Fprintf(&sb, " Areas for improvement include %s.", names)
	}
	if b.TotalScore >= 70 {
		sb.WriteString(" Keep practicing to maintain and improve your performance.")
	} else {
		sb.WriteString(" Focused practice on the identified areas will noticeably improve your results.")
	}
	return sb.String()
}

func labels(items []rankedDimension, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	names := make([]string, 0, len(items))
	for _, r := range items {
		names = append(names, strings.ToLower(r.dim.Label()))
	}
	return strings.Join(names, " and ")
}
