package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/toolkit"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/util"
)

const defaultHistoryLimit = 40

// Service runs tool-assisted conversations about dashboards.
type Service interface {
	Send(ctx context.Context, req Request) (Response, error)
	History(ctx context.Context, threadID string) (HistoryResponse, error)
}

// ToolRunner drives the model/tool loop.
type ToolRunner interface {
	Run(ctx context.Context, history []chatgpt.Message, observer toolkit.ToolObserver) (toolkit.RunResult, error)
}

// ProgressSource maps tool names to progress labels.
type ProgressSource interface {
	Progress(name string) (string, string)
}

type service struct {
	cfg      Config
	threads  ThreadRepository
	runner   ToolRunner
	progress ProgressSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the chat domain. runner may be nil when no model is configured.
func NewService(cfg Config, threads ThreadRepository, runner ToolRunner, progress ProgressSource, logger *slog.Logger) Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &service{
		cfg:      cfg,
		threads:  threads,
		runner:   runner,
		progress: progress,
		logger:   logger.With("component", "chat.service"),
		now:      util.NowUTC,
	}
}

func (s *service) Send(ctx context.Context, req Request) (Response, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "message cannot be empty", nil)
	}
	if s.runner == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeLLMUnavailable, "chat requires a configured language model", nil)
	}

	thread, err := s.resolveThread(ctx, req.ThreadID, text)
	if err != nil {
		return Response{}, err
	}
	stored, err := s.threads.ListMessages(ctx, thread.ID)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load messages", err)
	}

	history := make([]chatgpt.Message, 0, len(stored)+2)
	if s.cfg.SystemPrompt != "" {
		history = append(history, chatgpt.Message{Role: chatgpt.RoleSystem, Content: s.cfg.SystemPrompt})
	}
	history = append(history, trimHistory(stored, s.cfg.HistoryLimit)...)
	userMsg := chatgpt.Message{Role: chatgpt.RoleUser, Content: text}
	history = append(history, userMsg)

	result, err := s.runner.Run(ctx, history, nil)
	if err != nil {
		return Response{}, err
	}

	turn := append([]chatgpt.Message{userMsg}, result.Messages...)
	if err := s.threads.AppendMessages(ctx, thread.ID, turn, s.now()); err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeStorage, "failed to save messages", err)
	}

	resp := Response{
		ThreadID:  thread.ID.String(),
		Reply:     result.Reply,
		ToolCalls: make([]ToolCallSummary, 0, len(result.ToolCalls)),
	}
	for _, call := range result.ToolCalls {
		title, desc := s.progress.Progress(call.Outcome.Tool)
		resp.ToolCalls = append(resp.ToolCalls, ToolCallSummary{
			Tool:                call.Outcome.Tool,
			Success:             call.Outcome.Success,
			ProgressTitle:       title,
			ProgressDescription: desc,
		})
	}
	if !result.Usage.IsZero() {
		usage := result.Usage
		resp.Usage = &usage
	}
	s.logger.Info("chat turn completed", "threadId", thread.ID, "toolCalls", len(resp.ToolCalls))
	return resp, nil
}

func (s *service) History(ctx context.Context, threadID string) (HistoryResponse, error) {
	id, err := uuid.Parse(strings.TrimSpace(threadID))
	if err != nil {
		return HistoryResponse{}, apperrors.Wrap(apperrors.CodeNotFound, "thread not found", err)
	}
	thread, ok, err := s.threads.GetThread(ctx, id)
	if err != nil {
		return HistoryResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load thread", err)
	}
	if !ok {
		return HistoryResponse{}, apperrors.Wrap(apperrors.CodeNotFound, "thread not found", nil)
	}
	messages, err := s.threads.ListMessages(ctx, id)
	if err != nil {
		return HistoryResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load messages", err)
	}
	if messages == nil {
		messages = []StoredMessage{}
	}
	return HistoryResponse{Thread: thread, Messages: messages}, nil
}

func (s *service) resolveThread(ctx context.Context, rawID, firstMessage string) (Thread, error) {
	if strings.TrimSpace(rawID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return Thread{}, apperrors.Wrap(apperrors.CodeNotFound, "thread not found", err)
		}
		thread, ok, err := s.threads.GetThread(ctx, id)
		if err != nil {
			return Thread{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load thread", err)
		}
		if !ok {
			return Thread{}, apperrors.Wrap(apperrors.CodeNotFound, "thread not found", nil)
		}
		return thread, nil
	}
	thread := Thread{ID: uuid.New(), Name: threadName(firstMessage), CreatedAt: s.now()}
	if err := s.threads.CreateThread(ctx, thread); err != nil {
		return Thread{}, apperrors.Wrap(apperrors.CodeStorage, "failed to create thread", err)
	}
	return thread, nil
}

func threadName(first string) string {
	const maxLen = 60
	runes := []rune(first)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "…"
	}
	return first
}

// trimHistory keeps the last limit messages without starting on a dangling tool reply.
func trimHistory(stored []StoredMessage, limit int) []chatgpt.Message {
	start := 0
	if len(stored) > limit {
		start = len(stored) - limit
	}
	for start < len(stored) && stored[start].Message.Role == chatgpt.RoleTool {
		start++
	}
	out := make([]chatgpt.Message, 0, len(stored)-start)
	for _, m := range stored[start:] {
		out = append(out, m.Message)
	}
	return out
}
