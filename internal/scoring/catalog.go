package scoring

import (
	"strconv"
	"strings"

	"interview-scoring-service/internal/domain"
)

const (
	GenericStrengthCategory = "overall"
	GenericStrengthMessage  = "Balanced performance across all evaluated dimensions"
	GenericWeaknessCategory = "overall"
	GenericWeaknessMessage  = "No major weaknesses identified"
	GenericSuggestion       = "Keep practicing {dimension} with focused mock interview sessions"
	MaintenanceSuggestion   = "Continue regular practice to maintain your performance level"
)

// FeedbackCatalog holds the static text tables used by the synthesizer and the
// readiness evaluator. Templates may use {dimension} and {score} placeholders.
// A catalog is loaded once at startup and shared read-only.
type FeedbackCatalog struct {
	Strengths     map[domain.Dimension]string        `yaml:"strengths"`
	Weaknesses    map[domain.Dimension]string        `yaml:"weaknesses"`
	Suggestions   map[string]string                  `yaml:"suggestions"`
	Resources     map[string][]domain.Resource       `yaml:"resources"`
	NextSteps     map[domain.ReadinessLevel][]string `yaml:"next_steps"`
	TargetedSteps map[domain.Dimension]string        `yaml:"targeted_steps"`
}

// DefaultCatalog returns the built-in feedback tables.
func DefaultCatalog() FeedbackCatalog {
	return FeedbackCatalog{
		Strengths: map[domain.Dimension]string{
			domain.DimensionRelevance: "Answers stayed focused on what was asked ({score}/100)",
			domain.DimensionGrammar:   "Professional, grammatically correct communication ({score}/100)",
			domain.DimensionFluency:   "Natural, well-structured delivery ({score}/100)",
			domain.DimensionKeyword:   "Strong coverage of the expected topics and terminology ({score}/100)",
		},
		Weaknesses: map[domain.Dimension]string{
			domain.DimensionRelevance: "Responses drifted from the question ({score}/100)",
			domain.DimensionGrammar:   "Grammatical errors affected clarity ({score}/100)",
			domain.DimensionFluency:   "Delivery was hesitant or uneven ({score}/100)",
			domain.DimensionKeyword:   "Key topics and terminology were missing ({score}/100)",
		},
		Suggestions: map[string]string{
			string(domain.DimensionRelevance): "Structure answers with the STAR method and address the question first",
			string(domain.DimensionGrammar):   "Review sentence structure and tense consistency in recorded answers",
			string(domain.DimensionFluency):   "Practice speaking at a measured pace and cut filler words",
			string(domain.DimensionKeyword):   "Study job descriptions and work the core terminology into your answers",
		},
		Resources: map[string][]domain.Resource{
			string(domain.DimensionRelevance): {{
				Title:       "STAR Method Interview Guide",
				Type:        "article",
				URL:         "https://www.indeed.com/career-advice/interviewing/star-interview-method",
				Description: "Learn how to structure behavioral interview responses",
				SkillArea:   "Interview Structure",
			}},
			string(domain.DimensionGrammar): {{
				Title:       "Business English Communication",
				Type:        "course",
				URL:         "https://www.coursera.org/learn/business-english",
				Description: "Improve professional English communication skills",
				SkillArea:   "Communication",
			}},
			string(domain.DimensionFluency): {{
				Title:       "Public Speaking Fundamentals",
				Type:        "video",
				URL:         "https://www.youtube.com/results?search_query=interview+speaking+tips",
				Description: "Tips for clear and confident speech delivery",
				SkillArea:   "Verbal Communication",
			}},
			string(domain.DimensionKeyword): {{
				Title:       "Technical Interview Preparation",
				Type:        "practice",
				URL:         "https://www.pramp.com/",
				Description: "Practice technical interviews with peers",
				SkillArea:   "Technical Skills",
			}},
		},
		NextSteps: map[domain.ReadinessLevel][]string{
			domain.ReadinessReady: {
				"You're ready for real interviews, start applying",
				"Do a few more mock interviews to maintain confidence",
				"Research your target companies thoroughly",
			},
			domain.ReadinessAlmostReady: {
				"Complete 2-3 more mock interview sessions",
				"Focus on your weakest area for improvement",
				"Start scheduling real interviews while continuing practice",
			},
			domain.ReadinessNeedsPractice: {
				"Schedule daily practice sessions (15-30 minutes)",
				"Work through the recommended resources",
				"Focus on one improvement area at a time",
			},
		},
		TargetedSteps: map[domain.Dimension]string{
			domain.DimensionRelevance: "Practice structuring responses with the STAR method to lift {dimension}",
			domain.DimensionGrammar:   "Review common grammar rules and practice writing to lift {dimension}",
			domain.DimensionFluency:   "Practice speaking aloud and recording yourself to lift {dimension}",
			domain.DimensionKeyword:   "Review job descriptions and industry terminology to lift {dimension}",
		},
	}
}

// Merge returns a new catalog where entries of override replace entries of c.
func (c FeedbackCatalog) Merge(override FeedbackCatalog) FeedbackCatalog {
	return FeedbackCatalog{
		Strengths:     mergeMap(c.Strengths, override.Strengths),
		Weaknesses:    mergeMap(c.Weaknesses, override.Weaknesses),
		Suggestions:   mergeMap(c.Suggestions, override.Suggestions),
		Resources:     mergeMap(c.Resources, override.Resources),
		NextSteps:     mergeMap(c.NextSteps, override.NextSteps),
		TargetedSteps: mergeMap(c.TargetedSteps, override.TargetedSteps),
	}
}

func mergeMap[K comparable, V any](base, override map[K]V) map[K]V {
	out := make(map[K]V, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func render(template string, dim domain.Dimension, score float64) string {
	return strings.NewReplacer(
		"{dimension}", strings.ToLower(dim.Label()),
		"{score}", strconv.FormatFloat(score, 'f', 1, 64),
	).Replace(template)
}
