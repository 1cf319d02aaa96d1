package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yanqian/flowdash/internal/domain/payload"
)

// FromAnalysis converts a successful analysis into the generator's request shape.
// Any change to either side's shape is absorbed here.
func FromAnalysis(analysis payload.AnalysisResult, custom *Customizations) (GenerateRequest, error) {
	if !analysis.Success {
		return GenerateRequest{}, fmt.Errorf("analysis did not succeed: %s", analysis.Error)
	}
	if analysis.Schema == nil {
		return GenerateRequest{}, errors.New("analysis has no schema")
	}
	return GenerateRequest{
		Schema:         FromSchema(*analysis.Schema),
		Customizations: derefCustomizations(custom),
	}, nil
}

// FromSchema maps inferred field descriptors onto generator fields.
// Blank keys such as "" or " " have nothing to label and are skipped, so a
// payload carrying one still produces a dashboard for its other fields.
func FromSchema(schema payload.Schema) SchemaInput {
	fields := make([]FieldInput, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		fields = append(fields, FieldInput{
			Name:   f.Name,
			Type:   string(f.Type),
			Format: string(f.Format),
		})
	}
	return SchemaInput{Fields: fields}
}

func derefCustomizations(custom *Customizations) Customizations {
	if custom == nil {
		return Customizations{}
	}
	out := *custom
	if custom.Colors != nil {
		colors := *custom.Colors
		out.Colors = &colors
	}
	return out
}
