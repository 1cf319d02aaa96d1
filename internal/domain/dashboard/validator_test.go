package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/payload"
)

func sample(t *testing.T, raw string) payload.Value {
	t.Helper()
	v, err := payload.ParseString(raw)
	require.NoError(t, err)
	return v
}

func TestValidateReportsMissingField(t *testing.T) {
	spec := Specification{Widgets: []Widget{
		{Type: WidgetStatCard, Field: "amount"},
		{Type: WidgetText, Field: "missingField"},
	}}
	res := Validate(spec, sample(t, `{"amount":10}`))
	require.False(t, res.Success)
	require.Equal(t, []string{`Field "missingField" not found in sample data`}, res.Issues)
	require.Equal(t, PreviewStats{Widgets: 2, FieldsValidated: 1}, res.Preview)
}

func TestValidateCollectsAllIssues(t *testing.T) {
	spec := Specification{Widgets: []Widget{
		{Type: WidgetLineChart, Fields: []string{"at", "x", "y"}},
		{Type: WidgetText, Field: "z"},
	}}
	res := Validate(spec, sample(t, `{"at":"2024-01-01","a":1,"b":2}`))
	require.False(t, res.Success)
	require.Len(t, res.Issues, 3)
	require.Equal(t, 3, res.Preview.FieldsValidated)
}

func TestValidateWidgetSourcePrecedence(t *testing.T) {
	spec := Specification{
		Widgets:   []Widget{},
		Structure: Structure{Widgets: []Widget{{Field: "nope"}}},
	}
	res := Validate(spec, sample(t, `{}`))
	require.True(t, res.Success)
	require.Zero(t, res.Preview.Widgets)

	spec.Widgets = nil
	res = Validate(spec, sample(t, `{}`))
	require.False(t, res.Success)
	require.Equal(t, 1, res.Preview.Widgets)
}

func TestValidateIgnoresSectionWidgets(t *testing.T) {
	spec := Specification{Structure: Structure{Sections: []Section{{
		Type: SectionGrid,
		Widgets: []Widget{
			{Type: WidgetStatCard, Field: "amount"},
			{Type: WidgetText, Field: "missingField"},
		},
	}}}}
	res := Validate(spec, sample(t, `{"amount":10}`))
	require.True(t, res.Success)
	require.Empty(t, res.Issues)
	require.Equal(t, PreviewStats{Widgets: 0, FieldsValidated: 1}, res.Preview)
}

func TestValidateSectionsChecksEverySection(t *testing.T) {
	spec := Specification{
		Widgets: []Widget{{Field: "amount"}},
		Structure: Structure{Sections: []Section{{Widgets: []Widget{
			{Field: "amount"},
			{Field: "missingField"},
		}}}},
	}
	res := ValidateSections(spec, sample(t, `{"amount":10}`))
	require.False(t, res.Success)
	require.Equal(t, []string{`Field "missingField" not found in sample data`}, res.Issues)
	require.Equal(t, 3, res.Preview.Widgets)
	require.Len(t, spec.Widgets, 1)

	gen := Generate(GenerateRequest{Schema: roundTripSchema()})
	require.True(t, gen.Success)
	res = ValidateRawSections(*gen.Specification, `{"status":"ok","amount":3,"createdAt":"2024-01-01"}`)
	require.True(t, res.Success)
	require.Equal(t, len(gen.Specification.AllWidgets()), res.Preview.Widgets)
}

func TestValidateIssueKeepsNameVerbatim(t *testing.T) {
	spec := Specification{Widgets: []Widget{{Field: `a"b\c`}}}
	res := Validate(spec, sample(t, `{}`))
	require.Equal(t, []string{`Field "a"b\c" not found in sample data`}, res.Issues)
}

func TestValidateRawMalformedSample(t *testing.T) {
	res := ValidateRaw(Specification{}, "{oops")
	require.False(t, res.Success)
	require.Equal(t, ErrPreviewFailed, res.Error)
	require.NotEmpty(t, res.Details)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.NotContains(t, decoded, "issues")
	require.Equal(t, ErrPreviewFailed, decoded["error"])
}

func TestValidateRawNonObjectSample(t *testing.T) {
	res := ValidateRaw(Specification{}, `[1]`)
	require.Equal(t, ErrPreviewFailed, res.Error)
}

func TestValidationResultIssuesForm(t *testing.T) {
	out, err := json.Marshal(Validate(Specification{}, sample(t, `{"a":1}`)))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"issues":[],"preview":{"widgets":0,"fieldsValidated":1}}`, string(out))
}
