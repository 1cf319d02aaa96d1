package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.ToolCall("analyze_webhook_payload", OutcomeSuccess)
	r.ToolCall("analyze_webhook_payload", OutcomeSuccess)
	r.ToolCall("analyze_webhook_payload", OutcomeFailure)
	r.Generation("direct", OutcomeSuccess, 20*time.Millisecond)
	r.Tokens(TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})

	require.Equal(t, 2.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("analyze_webhook_payload", OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("analyze_webhook_payload", OutcomeFailure)))
	require.Equal(t, 1.0, testutil.ToFloat64(r.generations.WithLabelValues("direct", OutcomeSuccess)))
	require.Equal(t, 10.0, testutil.ToFloat64(r.tokens.WithLabelValues("prompt")))

	r.Retry(http.MethodGet, "/api/v1/preview/abc")
	require.Equal(t, 1.0, testutil.ToFloat64(r.retries.WithLabelValues(http.MethodGet, "/api/v1/preview/abc")))
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveHTTP(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `flowdash_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ToolCall("x", OutcomeSuccess)
	r.Generation("llm", OutcomeError, time.Second)
	r.Tokens(TokenUsage{TotalTokens: 1})
	r.ObserveHTTP(http.MethodGet, "/", 200, time.Second)
	r.Retry(http.MethodGet, "/")
	require.Nil(t, r.Registry())
}

func TestTokenUsageAdd(t *testing.T) {
	sum := TokenUsage{PromptTokens: 1, TotalTokens: 1}.Add(TokenUsage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5})
	require.Equal(t, TokenUsage{PromptTokens: 3, CompletionTokens: 3, TotalTokens: 6}, sum)
	require.True(t, TokenUsage{}.IsZero())
}
