package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldsOf(typ FieldType, names ...string) []FieldDescriptor {
	fields := make([]FieldDescriptor, len(names))
	for i, n := range names {
		fields[i] = FieldDescriptor{Name: n, Type: typ}
	}
	return fields
}

func TestScoreThresholds(t *testing.T) {
	fiveWithDate := append(fieldsOf(TypeString, "a", "b", "c", "d"), FieldDescriptor{Name: "at", Type: TypeDate})
	require.Equal(t, 0.95, Score(fiveWithDate))
	require.Equal(t, 0.95, Score(append(fieldsOf(TypeString, "a", "b", "c"), FieldDescriptor{Name: "at", Type: TypeDate})))
	require.Equal(t, 0.85, Score(fieldsOf(TypeDate, "at")))
	require.Equal(t, 0.85, Score(append(fieldsOf(TypeString, "a", "b"), FieldDescriptor{Name: "at", Type: TypeDate})))
	require.Equal(t, 0.75, Score(fieldsOf(TypeString, "a", "b", "c")))
	require.Equal(t, 0.60, Score(fieldsOf(TypeString, "a", "b")))
	require.Equal(t, 0.60, Score(nil))
}

func TestClassify(t *testing.T) {
	require.Equal(t, PlatformVapi, Classify(fieldsOf(TypeString, "call_id", "vapi_status")))
	require.Equal(t, PlatformVapi, Classify(fieldsOf(TypeString, "CallDuration")))
	require.Equal(t, PlatformRetell, Classify(fieldsOf(TypeString, "retell_session")))
	require.Equal(t, PlatformCustom, Classify(fieldsOf(TypeString, "foo", "bar")))
	require.Equal(t, PlatformCustom, Classify(nil))
}
