package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/flowdash/internal/infra/config"
	"github.com/yanqian/flowdash/pkg/metrics"
)

// retryBodyLimit matches the webhook body limit so buffered replays never truncate.
const retryBodyLimit = maxWebhookBytes

var errBodyTooLarge = errors.New("request body exceeds retry limit")

// retryPolicy replays requests that failed with a transient upstream status.
// Reads are always eligible. Writes are eligible unless their path is excluded,
// since generation, deploys and chat turns have side effects.
type retryPolicy struct {
	cfg      config.RetryConfig
	recorder *metrics.Recorder
	logger   *slog.Logger
	sleep    func(r *http.Request, d time.Duration) bool
}

func withRetry(handler http.Handler, cfg config.RetryConfig, recorder *metrics.Recorder, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	p := &retryPolicy{cfg: cfg, recorder: recorder, logger: logger.With("component", "http.retry"), sleep: waitFor}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.eligible(r) {
			handler.ServeHTTP(w, r)
			return
		}
		p.serve(handler, w, r)
	})
}

func (p *retryPolicy) eligible(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return true
	case http.MethodPost:
		return !excluded(r.URL.Path, p.cfg.Exclude)
	default:
		return false
	}
}

func (p *retryPolicy) serve(handler http.Handler, w http.ResponseWriter, r *http.Request) {
	body, err := readRequestBody(r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	for attempt := 1; ; attempt++ {
		buffered := newBufferedResponse()
		replay := r.Clone(r.Context())
		replay.Body = io.NopCloser(bytes.NewReader(body))
		replay.ContentLength = int64(len(body))
		handler.ServeHTTP(buffered, replay)

		if !transient(buffered.status) || attempt >= p.cfg.MaxAttempts {
			buffered.flushTo(w)
			return
		}
		p.logger.Warn("transient failure, retrying request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", buffered.status,
			"attempt", attempt,
		)
		p.recorder.Retry(r.Method, r.URL.Path)
		if !p.sleep(r, p.backoff(attempt)) {
			buffered.flushTo(w)
			return
		}
	}
}

// backoff doubles from BaseBackoff after every failed attempt.
func (p *retryPolicy) backoff(attempt int) time.Duration {
	return p.cfg.BaseBackoff << (attempt - 1)
}

// waitFor reports false when the client went away before the delay elapsed.
func waitFor(r *http.Request, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

// transient covers upstream and availability failures. 501 never changes on replay.
func transient(status int) bool {
	return status >= http.StatusInternalServerError && status != http.StatusNotImplemented
}

// excluded matches whole path segments, so "/api/v1/chat" covers "/api/v1/chat/x"
// but not "/api/v1/chatter".
func excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func readRequestBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, retryBodyLimit+1))
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// bufferedResponse holds one attempt's response until we know it is final.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
	sent   bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.sent {
		return
	}
	b.status = status
	b.sent = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.sent = true
	return b.body.Write(p)
}

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, values := range b.header {
		dst[k] = append([]string(nil), values...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
