package toolkit

import (
	"context"
	"encoding/json"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/payload"
)

// Tool names exposed to the model.
const (
	ToolAnalyzePayload        = "analyze_webhook_payload"
	ToolGenerateSpecification = "generate_dashboard_specification"
	ToolPreviewSampleData     = "preview_with_sample_data"
	ToolGenerateFromData      = "generate_dashboard_from_data"
)

// ErrInvalidArguments is the error text of a result whose arguments failed validation.
const ErrInvalidArguments = "Invalid arguments"

// InvalidArguments is returned in place of a tool result when arguments fail validation.
type InvalidArguments struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

type handlerFunc func(ctx context.Context, args json.RawMessage) (any, bool, error)

type definition struct {
	name                string
	description         string
	progressTitle       string
	progressDescription string
	parameters          map[string]any
	handle              handlerFunc
}

func builtinTools() []definition {
	return []definition{
		{
			name:                ToolAnalyzePayload,
			description:         "Analyze a raw webhook JSON payload: infer field types and formats, a confidence score and the source platform.",
			progressTitle:       "Analyzing webhook data",
			progressDescription: "Detecting field types and data structure",
			parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"payload": map[string]any{
						"type":        "string",
						"minLength":   1,
						"description": "The webhook payload as JSON text",
					},
					"platformType": map[string]any{
						"type":        "string",
						"description": "Known source platform, e.g. vapi, retell or custom",
					},
				},
				"required": []any{"payload"},
			},
			handle: handleAnalyze,
		},
		{
			name:                ToolGenerateSpecification,
			description:         "Generate a dashboard specification (sections, widgets, field mappings and theme) from an analyzed field schema.",
			progressTitle:       "Generating dashboard",
			progressDescription: "Choosing widgets and layout for each field",
			parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"fields": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"name": map[string]any{"type": "string", "minLength": 1},
										"type": map[string]any{
											"type": "string",
											"enum": []any{"string", "number", "boolean", "object", "date", "array"},
										},
										"format": map[string]any{
											"type": "string",
											"enum": []any{"datetime", "email", "url"},
										},
									},
									"required": []any{"name", "type"},
								},
							},
						},
						"required": []any{"fields"},
					},
					"customizations": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title": map[string]any{"type": "string"},
							"colors": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"primary":   map[string]any{"type": "string"},
									"secondary": map[string]any{"type": "string"},
								},
							},
						},
					},
				},
				"required": []any{"schema"},
			},
			handle: handleGenerate,
		},
		{
			name:                ToolPreviewSampleData,
			description:         "Check that every field referenced by a dashboard specification exists in sample data.",
			progressTitle:       "Validating preview",
			progressDescription: "Checking widget fields against sample data",
			parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"specification": map[string]any{
						"type":        "object",
						"description": "The dashboard specification to check",
					},
					"sampleData": map[string]any{
						"type":        "string",
						"minLength":   1,
						"description": "Sample data as JSON text",
					},
					"includeSections": map[string]any{
						"type":        "boolean",
						"description": "Also check the widgets inside structure.sections",
					},
				},
				"required": []any{"specification", "sampleData"},
			},
			handle: handlePreview,
		},
		{
			name:                ToolGenerateFromData,
			description:         "Analyze raw JSON data and generate a dashboard specification for it in one step.",
			progressTitle:       "Building dashboard from data",
			progressDescription: "Analyzing the data and generating a specification",
			parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"jsonData": map[string]any{
						"type":        "string",
						"minLength":   1,
						"description": "The data as JSON text",
					},
				},
				"required": []any{"jsonData"},
			},
			handle: handleFromData,
		},
	}
}

type analyzeArgs struct {
	Payload      string `json:"payload"`
	PlatformType string `json:"platformType"`
}

func handleAnalyze(_ context.Context, raw json.RawMessage) (any, bool, error) {
	var args analyzeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, false, err
	}
	res := payload.Analyze(args.Payload, args.PlatformType)
	return res, res.Success, nil
}

func handleGenerate(_ context.Context, raw json.RawMessage) (any, bool, error) {
	var req dashboard.GenerateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, false, err
	}
	res := dashboard.Generate(req)
	return res, res.Success, nil
}

type widgetRef struct {
	Field  string   `json:"field"`
	Fields []string `json:"fields"`
}

// specRefs reads only the parts of a model supplied specification the preview needs.
// Sections are read for the includeSections check.
type specRefs struct {
	Widgets   []widgetRef `json:"widgets"`
	Structure struct {
		Widgets  []widgetRef `json:"widgets"`
		Sections []struct {
			Widgets []widgetRef `json:"widgets"`
		} `json:"sections"`
	} `json:"structure"`
}

func (s specRefs) toSpecification() dashboard.Specification {
	var spec dashboard.Specification
	spec.Widgets = toWidgets(s.Widgets)
	spec.Structure.Widgets = toWidgets(s.Structure.Widgets)
	for _, section := range s.Structure.Sections {
		spec.Structure.Sections = append(spec.Structure.Sections, dashboard.Section{Widgets: toWidgets(section.Widgets)})
	}
	return spec
}

func toWidgets(refs []widgetRef) []dashboard.Widget {
	if refs == nil {
		return nil
	}
	out := make([]dashboard.Widget, len(refs))
	for i, r := range refs {
		out[i] = dashboard.Widget{Field: r.Field, Fields: r.Fields}
	}
	return out
}

type previewArgs struct {
	Specification   specRefs `json:"specification"`
	SampleData      string   `json:"sampleData"`
	IncludeSections bool     `json:"includeSections"`
}

func handlePreview(_ context.Context, raw json.RawMessage) (any, bool, error) {
	var args previewArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, false, err
	}
	validate := dashboard.ValidateRaw
	if args.IncludeSections {
		validate = dashboard.ValidateRawSections
	}
	res := validate(args.Specification.toSpecification(), args.SampleData)
	return res, res.Success, nil
}

type fromDataArgs struct {
	JSONData string `json:"jsonData"`
}

func handleFromData(_ context.Context, raw json.RawMessage) (any, bool, error) {
	var args fromDataArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, false, err
	}
	res := dashboard.Compose(args.JSONData, dashboard.ComposeOptions{})
	return res, res.Success, nil
}
