package scoring

type gradeBand struct {
	min   float64
	grade string
}

// Inclusive lower bounds, highest first.
var gradeBands = []gradeBand{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C"},
	{40, "D"},
}

// Classify maps a total score to a letter grade. Boundary values belong to the higher band.
func Classify(total float64) string {
	for _, band := range gradeBands {
		if total >= band.min {
			return band.grade
		}
	}
	return "F"
}

// Rating is the coarse wording used in feedback summaries.
func Rating(total float64) string {
	switch {
	case total >= 85:
		return "Excellent"
	case total >= 70:
		return "Good"
	case total >= 55:
		return "Satisfactory"
	case total >= 40:
		return "Needs Improvement"
	default:
		return "Below Expectations"
	}
}
