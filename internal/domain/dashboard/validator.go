package dashboard

import (
	"encoding/json"

	"github.com/yanqian/flowdash/internal/domain/payload"
)

// ErrPreviewFailed is reported when the sample data cannot be used at all.
const ErrPreviewFailed = "Preview validation failed"

// PreviewStats summarizes a validation run. FieldsValidated is the number of
// top-level keys in the sample data, not the number of matched fields.
type PreviewStats struct {
	Widgets         int `json:"widgets"`
	FieldsValidated int `json:"fieldsValidated"`
}

// ValidationResult is either the issues form or, when Error is set, the malformed-input form.
type ValidationResult struct {
	Success bool
	Issues  []string
	Preview PreviewStats
	Error   string
	Details string
}

type issuesForm struct {
	Success bool         `json:"success"`
	Issues  []string     `json:"issues"`
	Preview PreviewStats `json:"preview"`
}

type errorForm struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MarshalJSON emits exactly one of the two result forms.
func (r ValidationResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(errorForm{Success: false, Error: r.Error, Details: r.Details})
	}
	issues := r.Issues
	if issues == nil {
		issues = []string{}
	}
	return json.Marshal(issuesForm{Success: r.Success, Issues: issues, Preview: r.Preview})
}

// Validate checks that every field a widget references exists in sample.
// Widgets come from spec.Widgets, else spec.Structure.Widgets, else none;
// section widgets are only checked by ValidateSections.
// All issues are collected; the check never stops at the first miss.
func Validate(spec Specification, sample payload.Value) ValidationResult {
	return checkWidgets(widgetsToValidate(spec), sample)
}

// ValidateSections is Validate extended with the widgets of every section,
// for callers that want generated specifications checked end to end.
func ValidateSections(spec Specification, sample payload.Value) ValidationResult {
	flat := widgetsToValidate(spec)
	widgets := make([]Widget, 0, len(flat)+len(spec.AllWidgets()))
	widgets = append(widgets, flat...)
	widgets = append(widgets, spec.AllWidgets()...)
	return checkWidgets(widgets, sample)
}

// ValidateRaw parses rawSample first; a parse failure yields the error form.
func ValidateRaw(spec Specification, rawSample string) ValidationResult {
	return validateRaw(spec, rawSample, Validate)
}

// ValidateRawSections is ValidateRaw over ValidateSections.
func ValidateRawSections(spec Specification, rawSample string) ValidationResult {
	return validateRaw(spec, rawSample, ValidateSections)
}

func validateRaw(spec Specification, rawSample string, validate func(Specification, payload.Value) ValidationResult) ValidationResult {
	sample, err := payload.ParseString(rawSample)
	if err != nil {
		return ValidationResult{Error: ErrPreviewFailed, Details: err.Error()}
	}
	return validate(spec, sample)
}

func checkWidgets(widgets []Widget, sample payload.Value) ValidationResult {
	if sample.Kind() != payload.KindObject {
		return ValidationResult{
			Error:   ErrPreviewFailed,
			Details: "sample data must be a JSON object, got " + sample.Kind().String(),
		}
	}

	issues := make([]string, 0)
	for _, w := range widgets {
		if w.Field != "" && !sample.Has(w.Field) {
			issues = append(issues, missingFieldIssue(w.Field))
		}
		for _, f := range w.Fields {
			if !sample.Has(f) {
				issues = append(issues, missingFieldIssue(f))
			}
		}
	}
	return ValidationResult{
		Success: len(issues) == 0,
		Issues:  issues,
		Preview: PreviewStats{Widgets: len(widgets), FieldsValidated: sample.Len()},
	}
}

func widgetsToValidate(spec Specification) []Widget {
	switch {
	case spec.Widgets != nil:
		return spec.Widgets
	case spec.Structure.Widgets != nil:
		return spec.Structure.Widgets
	default:
		return nil
	}
}

func missingFieldIssue(name string) string {
	// The name is embedded verbatim, without Go quoting.
	return "Field \"" + name + "\" not found in sample data"
}
