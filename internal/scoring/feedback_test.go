package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-scoring-service/internal/domain"
)

func breakdownOf(scores map[domain.Dimension]float64) domain.SessionScoreBreakdown {
	dims := make(map[domain.Dimension]domain.DimensionScore, len(scores))
	total := 0.0
	weights := BuiltinProfiles()[0]
	for dim, v := range scores {
		dims[dim] = domain.DimensionScore{Raw: v, Weighted: v * weights.Weight(dim)}
		total += v * weights.Weight(dim)
	}
	total = Round1(total)
	return domain.SessionScoreBreakdown{
		SessionID:   "s1",
		Profile:     DefaultProfileName,
		TotalScore:  total,
		LetterGrade: Classify(total),
		Dimensions:  dims,
	}
}

func categories(items []domain.FeedbackItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Category)
	}
	return out
}

func TestSynthesizeAllHighUsesWeaknessFallback(t *testing.T) {
	profile := defaultProfile(t)
	b := breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 95,
		domain.DimensionGrammar:   97,
		domain.DimensionFluency:   96,
		domain.DimensionKeyword:   98,
	})

	record := Synthesize(b, profile, DefaultCatalog(), Readiness{})

	require.Len(t, record.Weaknesses, 1)
	assert.Equal(t, GenericWeaknessMessage, record.Weaknesses[0].Message)
	assert.Equal(t, []string{"keyword", "grammar", "fluency"}, categories(record.Strengths), "best first, capped at 3")
	assert.Equal(t, []string{MaintenanceSuggestion}, record.Suggestions)
	assert.Empty(t, record.Resources)
}

func TestSynthesizeNeutralUsesStrengthFallback(t *testing.T) {
	profile := defaultProfile(t)
	b := breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 70,
		domain.DimensionGrammar:   65,
		domain.DimensionFluency:   79.9,
		domain.DimensionKeyword:   60,
	})

	record := Synthesize(b, profile, DefaultCatalog(), Readiness{})

	require.Len(t, record.Strengths, 1)
	assert.Equal(t, GenericStrengthCategory, record.Strengths[0].Category)
	assert.Equal(t, GenericStrengthMessage, record.Strengths[0].Message)
	require.Len(t, record.Weaknesses, 1)
	assert.Equal(t, GenericWeaknessMessage, record.Weaknesses[0].Message)
}

func TestSynthesizeWeaknessesWorstFirstWithSuggestionsAndResources(t *testing.T) {
	profile := defaultProfile(t)
	b := breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 45,
		domain.DimensionGrammar:   30,
		domain.DimensionFluency:   85,
		domain.DimensionKeyword:   59.9,
	})
	catalog := DefaultCatalog()

	record := Synthesize(b, profile, catalog, Readiness{Score: 40, Level: domain.ReadinessNeedsPractice, NextSteps: []string{"step"}})

	assert.Equal(t, []string{"grammar", "relevance", "keyword"}, categories(record.Weaknesses))
	assert.Equal(t, "Grammatical errors affected clarity (30.0/100)", record.Weaknesses[0].Message)
	assert.Equal(t, []string{"fluency"}, categories(record.Strengths))
	assert.Equal(t, []string{
		catalog.Suggestions["grammar"],
		catalog.Suggestions["relevance"],
		catalog.Suggestions["keyword"],
	}, record.Suggestions)
	assert.Len(t, record.Resources, 3)
	assert.Equal(t, 40.0, record.ReadinessScore)
	assert.Equal(t, domain.ReadinessNeedsPractice, record.ReadinessLevel)
	assert.Equal(t, []string{"step"}, record.NextSteps)
	assert.Contains(t, record.Summary, "Areas for improvement include grammar and relevance.")
}

func TestSynthesizeTieBreaksByWeightThenOrder(t *testing.T) {
	profile := defaultProfile(t)
	b := breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 50,
		domain.DimensionGrammar:   50,
		domain.DimensionFluency:   50,
		domain.DimensionKeyword:   50,
	})

	record := Synthesize(b, profile, DefaultCatalog(), Readiness{})

	// relevance .35, fluency .25, then grammar before keyword (both .20) by canonical order
	assert.Equal(t, []string{"relevance", "fluency", "grammar"}, categories(record.Weaknesses))
}

func TestSynthesizeUnknownSuggestionFallsBack(t *testing.T) {
	profile := defaultProfile(t)
	catalog := DefaultCatalog()
	catalog.Suggestions = map[string]string{}
	catalog.Resources = map[string][]domain.Resource{
		"fluency": {{Title: "a"}, {Title: "b"}, {Title: "c"}},
	}
	b := breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 70,
		domain.DimensionFluency:   20,
	})

	record := Synthesize(b, profile, catalog, Readiness{})

	assert.Equal(t, []string{"Keep practicing fluency with focused mock interview sessions"}, record.Suggestions)
	assert.Len(t, record.Resources, 2, "at most two resources per category")
}

func TestSynthesizeNeverEmpty(t *testing.T) {
	profile := defaultProfile(t)
	for v := 0.0; v <= 100; v += 5 {
		b := breakdownOf(map[domain.Dimension]float64{
			domain.DimensionRelevance: v,
			domain.DimensionGrammar:   100 - v,
			domain.DimensionFluency:   v,
			domain.DimensionKeyword:   50,
		})
		record := Synthesize(b, profile, DefaultCatalog(), Readiness{})
		assert.NotEmpty(t, record.Strengths)
		assert.NotEmpty(t, record.Weaknesses)
		assert.LessOrEqual(t, len(record.Strengths), 3)
		assert.LessOrEqual(t, len(record.Weaknesses), 3)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	profile := defaultProfile(t)
	b := breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 88,
		domain.DimensionGrammar:   42,
		domain.DimensionFluency:   88,
		domain.DimensionKeyword:   42,
	})

	first := Synthesize(b, profile, DefaultCatalog(), Readiness{})
	second := Synthesize(b, profile, DefaultCatalog(), Readiness{})
	assert.Equal(t, first, second)
}

func TestWeakestDimension(t *testing.T) {
	profile := defaultProfile(t)

	dim, ok := WeakestDimension(breakdownOf(map[domain.Dimension]float64{
		domain.DimensionRelevance: 70,
		domain.DimensionGrammar:   65,
		domain.DimensionKeyword:   65,
	}), profile)
	assert.True(t, ok)
	assert.Equal(t, domain.DimensionGrammar, dim)

	_, ok = WeakestDimension(domain.SessionScoreBreakdown{}, profile)
	assert.False(t, ok)
}

func TestSynthesizeWeaknessComparesUnroundedAverage(t *testing.T) {
	profile := defaultProfile(t)
	b, err := ComputeSessionBreakdown([]domain.QuestionScore{
		question("q1", f(70), f(59.9), f(70), f(70)),
		question("q2", f(70), f(60), f(70), f(70)),
		question("q3", f(70), f(60), f(70), f(70)),
	}, profile)
	require.NoError(t, err)
	require.Equal(t, 60.0, b.Dimensions[domain.DimensionGrammar].Raw)

	record := Synthesize(b, profile, DefaultCatalog(), Readiness{})

	assert.Equal(t, []string{"grammar"}, categories(record.Weaknesses))
	weakest, ok := WeakestDimension(b, profile)
	assert.True(t, ok)
	assert.Equal(t, domain.DimensionGrammar, weakest)
}
