package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/payload"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/metrics"
	"github.com/yanqian/flowdash/pkg/util"
)

var tracer = otel.Tracer("github.com/yanqian/flowdash/internal/domain/preview")

// Service ingests webhooks and manages preview specifications.
type Service interface {
	IngestWebhook(ctx context.Context, clientID string, body []byte) (IngestResponse, error)
	HandleJob(ctx context.Context, name string, payload map[string]any) error
	RecentEvents(ctx context.Context, clientID string) (RecentEventsResponse, error)
	Status(ctx context.Context, clientID string) (StatusResponse, error)
	GenerateFromPaste(ctx context.Context, req PasteRequest) (PasteResponse, error)
	Get(ctx context.Context, id string) (PreviewResponse, error)
	List(ctx context.Context) ([]dashboard.StoredSpec, error)
	Delete(ctx context.Context, id string) error
}

// Dependencies groups the collaborators of the preview service.
// Threads and Tokens are optional.
type Dependencies struct {
	Events    EventRepository
	Specs     dashboard.SpecStore
	Clients   ClientDirectory
	Generator SpecGenerator
	Queue     JobQueue
	Tokens    TokenCounter
	Threads   chat.ThreadRepository
	Recorder  *metrics.Recorder
}

type service struct {
	cfg Config
	Dependencies
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires up the preview domain.
func NewService(cfg Config, deps Dependencies, logger *slog.Logger) Service {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &service{
		cfg:          cfg,
		Dependencies: deps,
		logger:       logger.With("component", "preview.service"),
		now:          util.NowUTC,
	}
}

func (s *service) IngestWebhook(ctx context.Context, clientID string, body []byte) (IngestResponse, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return IngestResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "clientId is required", nil)
	}
	data, err := payload.Parse(body)
	if err != nil {
		return IngestResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Invalid JSON payload", err)
	}
	if data.Kind() != payload.KindObject {
		return IngestResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "webhook payload must be a JSON object", nil)
	}

	event := WebhookEvent{ID: uuid.New(), ClientID: clientID, Payload: data, ReceivedAt: s.now()}
	if err := s.Events.Append(ctx, event); err != nil {
		return IngestResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store webhook", err)
	}
	s.logger.Info("webhook received", "clientId", clientID, "eventId", event.ID, "fields", data.Len())

	// The job outlives the request.
	jobCtx := context.WithoutCancel(ctx)
	if err := s.Queue.Enqueue(jobCtx, JobGeneratePreview, map[string]any{"eventId": event.ID.String()}); err != nil {
		s.logger.Warn("enqueue preview generation failed", "clientId", clientID, "eventId", event.ID, "error", err)
	}
	return IngestResponse{
		Success:  true,
		Message:  "Webhook received, dashboard generation queued",
		ClientID: clientID,
		EventID:  event.ID,
	}, nil
}

func (s *service) HandleJob(ctx context.Context, name string, job map[string]any) error {
	if name != JobGeneratePreview {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "unknown job "+name, nil)
	}
	raw, _ := job["eventId"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "job is missing a valid eventId", err)
	}
	event, ok, err := s.Events.Get(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to load webhook event", err)
	}
	if !ok {
		return apperrors.Wrap(apperrors.CodeNotFound, "webhook event not found", nil)
	}
	spec, err := s.generate(ctx, event.ClientID, event.Payload)
	if err != nil {
		return err
	}
	s.logger.Info("preview generated from webhook", "clientId", event.ClientID, "eventId", event.ID, "template", spec.TemplateName)
	return nil
}

func (s *service) RecentEvents(ctx context.Context, clientID string) (RecentEventsResponse, error) {
	clientID = strings.TrimSpace(clientID)
	events, err := s.Events.ListRecent(ctx, clientID, s.cfg.RecentLimit)
	if err != nil {
		return RecentEventsResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to list webhook events", err)
	}
	stats, err := s.Events.Stats(ctx, clientID)
	if err != nil {
		return RecentEventsResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to count webhook events", err)
	}
	if events == nil {
		events = []WebhookEvent{}
	}
	return RecentEventsResponse{ClientID: clientID, EventCount: stats.Count, Events: events}, nil
}

func (s *service) Status(ctx context.Context, clientID string) (StatusResponse, error) {
	clientID = strings.TrimSpace(clientID)
	stats, err := s.Events.Stats(ctx, clientID)
	if err != nil {
		return StatusResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to count webhook events", err)
	}
	_, ready, err := s.Specs.Get(ctx, clientID)
	if err != nil {
		return StatusResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load preview", err)
	}
	resp := StatusResponse{
		ClientID:       clientID,
		HasData:        stats.Count > 0,
		EventCount:     stats.Count,
		LastEventAt:    stats.LastReceivedAt,
		DashboardReady: ready,
	}
	if ready {
		url := previewURL(clientID)
		resp.PreviewURL = &url
	}
	return resp, nil
}

func (s *service) GenerateFromPaste(ctx context.Context, req PasteRequest) (PasteResponse, error) {
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" || req.WebhookData.IsNull() {
		return PasteResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Missing clientId or webhookData", nil)
	}
	client, err := s.Clients.GetClient(ctx, clientID)
	if err != nil {
		return PasteResponse{}, err
	}
	spec, err := s.generate(ctx, clientID, req.WebhookData)
	if err != nil {
		return PasteResponse{}, err
	}
	return PasteResponse{
		Success:        true,
		DashboardReady: true,
		PreviewURL:     previewURL(clientID),
		TemplateName:   spec.TemplateName,
		ClientID:       clientID,
		Subdomain:      client.Subdomain,
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (PreviewResponse, error) {
	spec, ok, err := s.Specs.Get(ctx, id)
	if err != nil {
		return PreviewResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load preview", err)
	}
	if !ok {
		return PreviewResponse{}, apperrors.Wrap(apperrors.CodeNotFound, "Dashboard not found", nil)
	}
	return PreviewResponse{ID: id, Specification: spec}, nil
}

func (s *service) List(ctx context.Context) ([]dashboard.StoredSpec, error) {
	specs, err := s.Specs.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list previews", err)
	}
	if specs == nil {
		specs = []dashboard.StoredSpec{}
	}
	return specs, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.Specs.Delete(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to delete preview", err)
	}
	return nil
}

// generate runs the configured generator and stores the stamped specification
// before returning, so a reader never sees a success without a stored preview.
func (s *service) generate(ctx context.Context, clientID string, data payload.Value) (spec dashboard.Specification, err error) {
	if data.Kind() != payload.KindObject {
		return spec, apperrors.Wrap(apperrors.CodeInvalidInput, "webhookData must be a JSON object", nil)
	}
	if err := s.checkBudget(data); err != nil {
		return spec, err
	}

	mode := s.Generator.Mode()
	ctx, span := tracer.Start(ctx, "preview.generate")
	span.SetAttributes(attribute.String("client.id", clientID), attribute.String("generation.mode", mode))
	started := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		switch {
		case apperrors.IsCode(err, apperrors.CodeGeneration):
			outcome = metrics.OutcomeFailure
		case err != nil:
			outcome = metrics.OutcomeError
		}
		s.Recorder.Generation(mode, outcome, time.Since(started))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	gen, err := s.Generator.Generate(genCtx, clientID, data)
	s.saveTranscript(ctx, clientID, gen.Transcript)
	if err != nil {
		s.logger.Warn("preview generation failed", "clientId", clientID, "mode", mode, "error", err)
		return spec, err
	}

	spec = gen.Specification
	sample := data
	spec.SampleData = &sample
	spec.CreatedAt = s.now().UnixMilli()
	if err := s.Specs.Save(ctx, clientID, spec); err != nil {
		return dashboard.Specification{}, apperrors.Wrap(apperrors.CodeStorage, "Failed to save dashboard specification", err)
	}
	span.SetAttributes(attribute.String("dashboard.template", spec.TemplateName))
	s.logger.Info("preview stored",
		"clientId", clientID,
		"mode", gen.Mode,
		"template", spec.TemplateName,
		"totalTokens", gen.Usage.TotalTokens,
	)
	return spec, nil
}

func (s *service) checkBudget(data payload.Value) error {
	if s.Tokens == nil || s.cfg.MaxPayloadTokens <= 0 {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "encode webhook payload", err)
	}
	if n := s.Tokens.Count(string(encoded)); n > s.cfg.MaxPayloadTokens {
		return apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("payload is %d tokens, limit is %d", n, s.cfg.MaxPayloadTokens), nil)
	}
	return nil
}

// saveTranscript is best effort; a lost transcript does not fail generation.
func (s *service) saveTranscript(ctx context.Context, clientID string, transcript []chatgpt.Message) {
	if s.Threads == nil || len(transcript) == 0 {
		return
	}
	now := s.now()
	thread := chat.Thread{ID: uuid.New(), Name: "Webhook " + clientID, CreatedAt: now}
	if err := s.Threads.CreateThread(ctx, thread); err != nil {
		s.logger.Warn("create generation thread failed", "clientId", clientID, "error", err)
		return
	}
	if err := s.Threads.AppendMessages(ctx, thread.ID, transcript, now); err != nil {
		s.logger.Warn("save generation transcript failed", "clientId", clientID, "threadId", thread.ID, "error", err)
	}
}

func previewURL(clientID string) string {
	return "/dashboard/preview/" + clientID
}
