package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeMalformedJSON(t *testing.T) {
	res := Analyze("{not json", "")
	require.False(t, res.Success)
	require.Equal(t, ErrUnparseable, res.Error)
	require.NotEmpty(t, res.Details)
	require.Nil(t, res.Schema)
	require.Zero(t, res.Confidence)
	require.Empty(t, res.PlatformHint)
}

func TestAnalyzeRejectsNonObject(t *testing.T) {
	res := Analyze(`[1,2,3]`, "")
	require.False(t, res.Success)
	require.Equal(t, ErrUnparseable, res.Error)
	require.Contains(t, res.Details, "array")
}

func TestAnalyzeSuccess(t *testing.T) {
	res := Analyze(`{"call_id":"c1","duration":31,"endedAt":"2024-06-01T12:00:00Z","customer_email":"a@b.co"}`, "")
	require.True(t, res.Success)
	require.Empty(t, res.Error)
	require.NotNil(t, res.Schema)
	require.Len(t, res.Schema.Fields, 4)
	require.Equal(t, 0.95, res.Confidence)
	require.Equal(t, PlatformVapi, res.PlatformHint)
	require.Equal(t, FormatEmail, res.Schema.Fields[3].Format)
}

func TestAnalyzeExplicitHintWins(t *testing.T) {
	res := Analyze(`{"call_id":"c1"}`, "retell")
	require.True(t, res.Success)
	require.Equal(t, PlatformRetell, res.PlatformHint)
}

func TestAnalyzeEmptyObject(t *testing.T) {
	res := Analyze(`{}`, "")
	require.True(t, res.Success)
	require.Empty(t, res.Schema.Fields)
	require.Equal(t, 0.60, res.Confidence)
	require.Equal(t, PlatformCustom, res.PlatformHint)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	raw := `{"status":"done","amount":3,"at":"2024-02-02"}`
	require.Equal(t, Analyze(raw, ""), Analyze(raw, ""))
}
