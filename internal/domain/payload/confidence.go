package payload

type confidenceRule struct {
	matches func(hasDate bool, count int) bool
	score   float64
}

// First match wins.
var confidenceRules = []confidenceRule{
	{matches: func(hasDate bool, count int) bool { return hasDate && count >= 4 }, score: 0.95},
	{matches: func(hasDate bool, _ int) bool { return hasDate }, score: 0.85},
	{matches: func(_ bool, count int) bool { return count >= 3 }, score: 0.75},
}

const baselineConfidence = 0.60

// Score estimates how much the field list looks like structured event data.
func Score(fields []FieldDescriptor) float64 {
	hasDate := false
	for _, f := range fields {
		if f.Type == TypeDate {
			hasDate = true
			break
		}
	}
	for _, rule := range confidenceRules {
		if rule.matches(hasDate, len(fields)) {
			return rule.score
		}
	}
	return baselineConfidence
}
