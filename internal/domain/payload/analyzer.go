package payload

import "strings"

// ErrUnparseable is reported when the raw payload is not a JSON object.
const ErrUnparseable = "Unable to parse webhook JSON"

// AnalysisResult is the tagged outcome of Analyze. Schema, Confidence and
// PlatformHint are set only when Success is true.
type AnalysisResult struct {
	Success      bool    `json:"success"`
	Schema       *Schema `json:"schema,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	PlatformHint string  `json:"platformHint,omitempty"`
	Error        string  `json:"error,omitempty"`
	Details      string  `json:"details,omitempty"`
}

// Analyze parses raw webhook text and infers its schema, confidence and platform.
// An explicit platformHint takes precedence over classification.
func Analyze(raw string, platformHint string) AnalysisResult {
	v, err := ParseString(raw)
	if err != nil {
		return AnalysisResult{Error: ErrUnparseable, Details: err.Error()}
	}
	return AnalyzeValue(v, platformHint)
}

// AnalyzeValue runs the analysis over an already decoded payload.
func AnalyzeValue(v Value, platformHint string) AnalysisResult {
	if v.Kind() != KindObject {
		return AnalysisResult{
			Error:   ErrUnparseable,
			Details: "payload must be a JSON object, got " + v.Kind().String(),
		}
	}
	fields := InferFields(v)
	platform := strings.TrimSpace(platformHint)
	if platform == "" {
		platform = Classify(fields)
	}
	return AnalysisResult{
		Success:      true,
		Schema:       &Schema{Fields: fields},
		Confidence:   Score(fields),
		PlatformHint: platform,
	}
}
