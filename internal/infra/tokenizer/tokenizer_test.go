package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	require.Equal(t, 0, estimate(""))
	require.Equal(t, 1, estimate("abc"))
	require.Equal(t, 4, estimate(`{"callId":"a1"}`))
	require.Equal(t, 5, estimate("a b c d e"))
	require.Equal(t, 250, estimate(strings.Repeat("x", 1000)))
}

func TestCounterFallsBackWithoutEncoding(t *testing.T) {
	c := &Counter{}
	require.Equal(t, estimate("hello world"), c.Count("hello world"))
}
