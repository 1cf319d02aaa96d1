package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) Value {
	t.Helper()
	v, err := ParseString(raw)
	require.NoError(t, err)
	return v
}

func TestDetectType(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want FieldType
	}{
		{name: "null is object", raw: `null`, want: TypeObject},
		{name: "array", raw: `[1,2]`, want: TypeArray},
		{name: "iso datetime", raw: `"2024-01-01T00:00:00Z"`, want: TypeDate},
		{name: "iso date only", raw: `"2024-01-01"`, want: TypeDate},
		{name: "date not at start", raw: `"on 2024-01-01"`, want: TypeString},
		{name: "number", raw: `42`, want: TypeNumber},
		{name: "boolean", raw: `true`, want: TypeBoolean},
		{name: "object", raw: `{"a":1}`, want: TypeObject},
		{name: "string", raw: `"hello"`, want: TypeString},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DetectType(mustParse(t, tc.raw)))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]FormatHint{
		"createdAt":      FormatDatetime,
		"user_email":     FormatEmail,
		"callback_url":   FormatURL,
		"name":           FormatNone,
		"EMAIL_SENT_AT":  FormatEmail,
		"updateTime":     FormatDatetime,
		"date_email_url": FormatDatetime,
		"profileURL":     FormatURL,
	}
	for name, want := range cases {
		require.Equal(t, want, DetectFormat(name), name)
	}
}

func TestInferFieldsKeepsOrderAndCount(t *testing.T) {
	v := mustParse(t, `{"status":"ok","amount":12.5,"createdAt":"2024-05-01T10:00:00Z","tags":["a"],"meta":null,"active":false}`)
	fields := InferFields(v)
	require.Len(t, fields, v.Len())
	require.Equal(t, []FieldDescriptor{
		{Name: "status", Type: TypeString},
		{Name: "amount", Type: TypeNumber},
		{Name: "createdAt", Type: TypeDate, Format: FormatDatetime},
		{Name: "tags", Type: TypeArray},
		{Name: "meta", Type: TypeObject},
		{Name: "active", Type: TypeBoolean},
	}, fields)
}

func TestFormatDoesNotOverrideType(t *testing.T) {
	field := InferField("start_time", Number("1700000000"))
	require.Equal(t, TypeNumber, field.Type)
	require.Equal(t, FormatDatetime, field.Format)
}

func TestFieldTypeValid(t *testing.T) {
	require.True(t, TypeDate.Valid())
	require.False(t, FieldType("timestamp").Valid())
	require.True(t, FormatNone.Valid())
	require.False(t, FormatHint("phone").Valid())
}
