package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/deploy"
	"github.com/yanqian/flowdash/internal/domain/preview"
	"github.com/yanqian/flowdash/internal/domain/toolkit"
	"github.com/yanqian/flowdash/internal/infra/archive"
	"github.com/yanqian/flowdash/internal/infra/clientrepo"
	"github.com/yanqian/flowdash/internal/infra/config"
	"github.com/yanqian/flowdash/internal/infra/eventrepo"
	"github.com/yanqian/flowdash/internal/infra/queue"
	"github.com/yanqian/flowdash/internal/infra/specstore"
	"github.com/yanqian/flowdash/internal/infra/threadrepo"
	"github.com/yanqian/flowdash/pkg/metrics"
)

type testServer struct {
	server *http.Server
	queue  *queue.ImmediateQueue
}

func newServerUnderTest(t *testing.T, mutate func(cfg *config.Config)) testServer {
	t.Helper()
	logger := newTestLogger()
	recorder := metrics.NewRecorder()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			RootDomain:   "getflowetic.com",
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	specs := specstore.NewMemoryStore(32, dashboard.PreviewTTL)
	deploys := deploy.NewService(deploy.Config{BaseDomain: "getflowetic.com"}, clientrepo.NewMemoryRepository(), specs, archive.NewMemoryArchive(), logger)
	jobs := queue.NewImmediateQueue(nil)
	previews := preview.NewService(preview.Config{}, preview.Dependencies{
		Events:    eventrepo.NewMemoryRepository(),
		Specs:     specs,
		Clients:   deploys,
		Generator: preview.NewDirectGenerator(""),
		Queue:     jobs,
		Recorder:  recorder,
	}, logger)
	registry, err := toolkit.NewRegistry(recorder, logger)
	require.NoError(t, err)
	chats := chat.NewService(chat.Config{}, threadrepo.NewMemoryRepository(), nil, registry, logger)

	handler := NewHandler(previews, deploys, registry, chats, logger)
	t.Cleanup(func() { _ = jobs.Close() })
	return testServer{server: NewRouter(cfg, handler, recorder, logger), queue: jobs}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func performRequest(server *http.Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func createClient(t *testing.T, server *http.Server, name string) (string, string) {
	t.Helper()
	rec := performRequest(server, http.MethodPost, "/api/v1/clients", `{"agencyId":"agency-1","name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec.Body.Bytes())
	return body["clientId"].(string), body["subdomain"].(string)
}

func TestRouter_Health(t *testing.T) {
	s := newServerUnderTest(t, nil)
	rec := performRequest(s.server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec.Body.Bytes())["status"])
}

func TestRouter_PasteDeployAndServe(t *testing.T) {
	s := newServerUnderTest(t, nil)
	clientID, subdomain := createClient(t, s.server, "Acme Voice")
	require.Equal(t, "acme-voice", subdomain)

	rec := performRequest(s.server, http.MethodPost, "/api/v1/deploy/"+clientID, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No preview spec found to deploy", decodeErrorBody(t, rec.Body.Bytes())["error"]["message"])

	rec = performRequest(s.server, http.MethodPost, "/api/v1/preview/generate",
		`{"clientId":"`+clientID+`","webhookData":{"callId":"c1","duration":42,"status":"ended"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pasted := decodeBody(t, rec.Body.Bytes())
	require.Equal(t, true, pasted["dashboardReady"])
	require.Equal(t, "/dashboard/preview/"+clientID, pasted["previewUrl"])
	require.Equal(t, subdomain, pasted["subdomain"])

	rec = performRequest(s.server, http.MethodGet, "/api/v1/previews/"+clientID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(s.server, http.MethodPost, "/api/v1/deploy/"+clientID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	deployed := decodeBody(t, rec.Body.Bytes())
	require.EqualValues(t, 1, deployed["version"])
	require.Equal(t, "https://acme-voice.getflowetic.com", deployed["deployedUrl"])

	rec = performRequest(s.server, http.MethodGet, "/api/v1/clients/"+clientID+"/deployments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec.Body.Bytes())["deployments"], 1)

	rec = performRequest(s.server, http.MethodGet, "/client/"+subdomain, "")
	require.Equal(t, http.StatusOK, rec.Code)
	served := decodeBody(t, rec.Body.Bytes())
	require.Equal(t, subdomain, served["client"].(map[string]any)["subdomain"])
}

func TestRouter_SubdomainRewrite(t *testing.T) {
	s := newServerUnderTest(t, nil)
	clientID, subdomain := createClient(t, s.server, "Beta")
	rec := performRequest(s.server, http.MethodPost, "/api/v1/preview/generate",
		`{"clientId":"`+clientID+`","webhookData":{"revenue":10.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(s.server, http.MethodPost, "/api/v1/deploy/"+clientID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = subdomain + ".getflowetic.com:443"
	out := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())
	require.Contains(t, out.Body.String(), `"subdomain":"beta"`)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Host = "www.getflowetic.com"
	out = httptest.NewRecorder()
	s.server.Handler.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
}

func TestClientSubdomain(t *testing.T) {
	cases := []struct {
		host string
		sub  string
		ok   bool
	}{
		{host: "acme.getflowetic.com", sub: "acme", ok: true},
		{host: "ACME.getflowetic.com:8080", sub: "acme", ok: true},
		{host: "getflowetic.com", ok: false},
		{host: "www.getflowetic.com", ok: false},
		{host: "localhost:8080", ok: false},
		{host: "example.com", ok: false},
	}
	for _, tc := range cases {
		sub, ok := clientSubdomain(tc.host, "getflowetic.com")
		require.Equal(t, tc.ok, ok, tc.host)
		require.Equal(t, tc.sub, sub, tc.host)
	}
}

func TestRouter_WebhookIngest(t *testing.T) {
	s := newServerUnderTest(t, nil)

	rec := performRequest(s.server, http.MethodPost, "/api/v1/webhooks/client-9", `{"callId":"x","cost":0.12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec.Body.Bytes())
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["eventId"])

	rec = performRequest(s.server, http.MethodPost, "/api/v1/webhooks/client-9", `[1,2,3]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(s.server, http.MethodGet, "/api/v1/webhooks/client-9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decodeBody(t, rec.Body.Bytes())
	require.EqualValues(t, 1, recent["eventCount"])

	rec = performRequest(s.server, http.MethodGet, "/api/v1/webhooks-status/client-9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeBody(t, rec.Body.Bytes())["hasData"])
}

func TestRouter_Tools(t *testing.T) {
	s := newServerUnderTest(t, nil)

	rec := performRequest(s.server, http.MethodGet, "/api/v1/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec.Body.Bytes())["tools"], 4)

	rec = performRequest(s.server, http.MethodPost, "/api/v1/tools/"+toolkit.ToolAnalyzePayload,
		`{"payload":"{\"callId\":\"a\",\"transcript\":\"hi\"}","platformType":"vapi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, true, decodeBody(t, rec.Body.Bytes())["success"])

	rec = performRequest(s.server, http.MethodPost, "/api/v1/tools/"+toolkit.ToolAnalyzePayload, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, toolkit.ErrInvalidArguments, decodeBody(t, rec.Body.Bytes())["error"])

	rec = performRequest(s.server, http.MethodPost, "/api/v1/tools/nope", `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ChatWithoutModel(t *testing.T) {
	s := newServerUnderTest(t, nil)
	rec := performRequest(s.server, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "llm_unavailable", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_InvalidJSON(t *testing.T) {
	s := newServerUnderTest(t, nil)
	rec := performRequest(s.server, http.MethodPost, "/api/v1/clients", `{"agencyId":12}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RateLimit(t *testing.T) {
	s := newServerUnderTest(t, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	})
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, performRequest(s.server, http.MethodGet, "/healthz", "").Code)
	}
	rec := performRequest(s.server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	s := newServerUnderTest(t, nil)
	performRequest(s.server, http.MethodGet, "/healthz", "")
	rec := performRequest(s.server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `route="/healthz"`), rec.Body.String())
}

func TestRouter_OversizedBodies(t *testing.T) {
	s := newServerUnderTest(t, nil)
	big := `{"payload":"` + strings.Repeat("x", maxWebhookBytes) + `"}`

	rec := performRequest(s.server, http.MethodPost, "/api/v1/tools/"+toolkit.ToolAnalyzePayload, big)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	require.Equal(t, codePayloadTooLarge, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(s.server, http.MethodPost, "/api/v1/webhooks/client-9", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, codePayloadTooLarge, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_DeeplyNestedWebhookIsRejected(t *testing.T) {
	s := newServerUnderTest(t, nil)

	rec := performRequest(s.server, http.MethodPost, "/api/v1/webhooks/client-9", strings.Repeat("[", maxWebhookBytes))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(s.server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
