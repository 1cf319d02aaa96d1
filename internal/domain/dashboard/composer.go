package dashboard

import "github.com/yanqian/flowdash/internal/domain/payload"

// Composer failure messages.
const (
	ErrProcessData = "Failed to process JSON data"
	ErrAnalyze     = "Failed to analyze data structure"
	ErrGenerate    = "Failed to generate dashboard specification"

	// DefaultComposedTitle names dashboards built straight from raw data.
	DefaultComposedTitle = "Generated Dashboard"
)

// ComposeOptions tunes Compose. A nil Customizations uses the composed defaults.
type ComposeOptions struct {
	Customizations *Customizations
	Validate       bool
}

// ComposeResult is the generator result plus the analysis and parsed source data.
type ComposeResult struct {
	Success       bool              `json:"success"`
	Specification *Specification    `json:"specification,omitempty"`
	Analysis      *payload.Schema   `json:"analysis,omitempty"`
	SourceData    *payload.Value    `json:"sourceData,omitempty"`
	Preview       *ValidationResult `json:"preview,omitempty"`
	Error         string            `json:"error,omitempty"`
	Details       string            `json:"details,omitempty"`
}

// Compose goes from raw JSON text to a specification in one call.
func Compose(raw string, opts ComposeOptions) ComposeResult {
	v, err := payload.ParseString(raw)
	if err != nil {
		return ComposeResult{Error: ErrProcessData, Details: err.Error()}
	}
	return ComposeValue(v, opts)
}

// ComposeValue is Compose for an already decoded payload.
func ComposeValue(v payload.Value, opts ComposeOptions) ComposeResult {
	analysis := payload.AnalyzeValue(v, payload.PlatformCustom)
	if !analysis.Success {
		return ComposeResult{Error: ErrAnalyze, Details: analysis.Error}
	}

	custom := opts.Customizations
	if custom == nil {
		custom = &Customizations{
			Title:  DefaultComposedTitle,
			Colors: &Theme{Primary: DefaultPrimaryColor, Secondary: DefaultSecondaryColor},
		}
	}
	req, err := FromAnalysis(analysis, custom)
	if err != nil {
		return ComposeResult{Error: ErrAnalyze, Details: err.Error()}
	}

	generated := Generate(req)
	if !generated.Success || generated.Specification == nil {
		return ComposeResult{Error: ErrGenerate, Details: generated.Error}
	}

	source := v
	result := ComposeResult{
		Success:       true,
		Specification: generated.Specification,
		Analysis:      analysis.Schema,
		SourceData:    &source,
	}
	if opts.Validate {
		preview := Validate(*generated.Specification, v)
		result.Preview = &preview
	}
	return result
}
