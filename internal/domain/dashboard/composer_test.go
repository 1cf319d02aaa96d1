package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/payload"
)

func TestComposeSuccess(t *testing.T) {
	res := Compose(`{"status":"completed","amount":42.5,"createdAt":"2024-03-01T09:00:00Z"}`, ComposeOptions{Validate: true})
	require.True(t, res.Success)
	require.NotNil(t, res.Specification)
	require.Equal(t, DefaultComposedTitle, res.Specification.TemplateName)
	require.Len(t, res.Analysis.Fields, 3)
	require.Equal(t, []string{"status", "amount", "createdAt"}, res.SourceData.Keys())
	require.NotNil(t, res.Preview)
	require.True(t, res.Preview.Success)
}

func TestComposeParseFailure(t *testing.T) {
	res := Compose(`{"status":`, ComposeOptions{})
	require.False(t, res.Success)
	require.Equal(t, ErrProcessData, res.Error)
	require.NotEmpty(t, res.Details)
	require.Nil(t, res.Specification)
}

func TestComposeAnalyzeFailure(t *testing.T) {
	res := Compose(`"just a string"`, ComposeOptions{})
	require.False(t, res.Success)
	require.Equal(t, ErrAnalyze, res.Error)
}

func TestComposeUsesCustomizations(t *testing.T) {
	res := Compose(`{"a":1}`, ComposeOptions{Customizations: &Customizations{Title: "Mine"}})
	require.True(t, res.Success)
	require.Equal(t, "Mine", res.Specification.TemplateName)
	require.Nil(t, res.Preview)
}

func TestFromAnalysisMapsSchema(t *testing.T) {
	analysis := payload.Analyze(`{"contact_email":"a@b.co","at":"2024-01-01","n":1}`, "")
	req, err := FromAnalysis(analysis, &Customizations{Title: "T", Colors: &Theme{Primary: "#111111"}})
	require.NoError(t, err)
	require.Equal(t, SchemaInput{Fields: []FieldInput{
		{Name: "contact_email", Type: "string", Format: "email"},
		{Name: "at", Type: "date", Format: "datetime"},
		{Name: "n", Type: "number"},
	}}, req.Schema)
	require.Equal(t, "T", req.Customizations.Title)
	require.Equal(t, "#111111", req.Customizations.Colors.Primary)
}

func TestFromAnalysisCopiesCustomizations(t *testing.T) {
	custom := &Customizations{Colors: &Theme{Primary: "#111111"}}
	req, err := FromAnalysis(payload.Analyze(`{}`, ""), custom)
	require.NoError(t, err)
	req.Customizations.Colors.Primary = "#222222"
	require.Equal(t, "#111111", custom.Colors.Primary)
}

func TestFromAnalysisRejectsFailedAnalysis(t *testing.T) {
	_, err := FromAnalysis(payload.Analyze(`{bad`, ""), nil)
	require.Error(t, err)

	_, err = FromAnalysis(payload.AnalysisResult{Success: true}, nil)
	require.Error(t, err)
}

func TestFromAnalysisNilCustomizations(t *testing.T) {
	req, err := FromAnalysis(payload.Analyze(`{"a":true}`, ""), nil)
	require.NoError(t, err)
	require.Equal(t, Customizations{}, req.Customizations)
}

func TestComposePaddedKeysPassOwnValidation(t *testing.T) {
	res := Compose(`{" amount ":5,"status ":"ok"}`, ComposeOptions{Validate: true})
	require.True(t, res.Success)
	require.ElementsMatch(t, []string{" amount ", "status "}, res.Specification.ReferencedFields())

	check := ValidateSections(*res.Specification, *res.SourceData)
	require.True(t, check.Success, check.Issues)
	require.Equal(t, 2, check.Preview.Widgets)
}

func TestComposeSkipsBlankKeys(t *testing.T) {
	res := Compose(`{"":1}`, ComposeOptions{})
	require.True(t, res.Success, res.Details)
	require.Empty(t, res.Specification.AllWidgets())
	require.Len(t, res.Specification.Structure.Sections, 1)

	res = Compose(`{" ":"x","calls":3}`, ComposeOptions{})
	require.True(t, res.Success, res.Details)
	require.Equal(t, []string{"calls"}, res.Specification.ReferencedFields())
}
