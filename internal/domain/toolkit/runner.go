package toolkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/metrics"
)

const defaultMaxRounds = 5

// ChatClient is the subset of the ChatGPT client the runner needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// Executor runs tools by name.
type Executor interface {
	Definitions() []chatgpt.Tool
	Execute(ctx context.Context, name string, args []byte) (Outcome, error)
}

// RunnerConfig controls the model call.
type RunnerConfig struct {
	Model       string
	Temperature float32
	MaxRounds   int
}

// ToolEvent is reported to the observer after each tool call.
type ToolEvent struct {
	Round   int              `json:"round"`
	Call    chatgpt.ToolCall `json:"call"`
	Outcome Outcome          `json:"outcome"`
}

// ToolObserver sees every tool result as it is produced. Returning an error aborts the run.
type ToolObserver func(ctx context.Context, event ToolEvent) error

// RunResult is what one conversation turn produced.
type RunResult struct {
	Messages  []chatgpt.Message  `json:"messages"`
	Reply     string             `json:"reply"`
	ToolCalls []ToolEvent        `json:"toolCalls"`
	Usage     metrics.TokenUsage `json:"usage"`
}

// Runner drives the model/tool loop until the model answers without tool calls.
type Runner struct {
	client   ChatClient
	tools    Executor
	cfg      RunnerConfig
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(cfg RunnerConfig, client ChatClient, tools Executor, recorder *metrics.Recorder, logger *slog.Logger) *Runner {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	return &Runner{
		client:   client,
		tools:    tools,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With("component", "toolkit.runner"),
	}
}

// Run sends history to the model and executes requested tools until a final reply.
// RunResult.Messages holds only the messages produced during this run.
func (r *Runner) Run(ctx context.Context, history []chatgpt.Message, observer ToolObserver) (RunResult, error) {
	var result RunResult
	conversation := append([]chatgpt.Message(nil), history...)
	defs := r.tools.Definitions()

	for round := 1; round <= r.cfg.MaxRounds; round++ {
		resp, err := r.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
			Model:       r.cfg.Model,
			Messages:    conversation,
			Temperature: r.cfg.Temperature,
			Tools:       defs,
		})
		if err != nil {
			return result, apperrors.Wrap(apperrors.CodeLLM, "chat completion failed", err)
		}
		usage := metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		result.Usage = result.Usage.Add(usage)
		r.recorder.Tokens(usage)
		if len(resp.Choices) == 0 {
			return result, apperrors.Wrap(apperrors.CodeLLM, "chat completion returned no choices", nil)
		}

		reply := resp.Choices[0].Message
		if reply.Role == "" {
			reply.Role = chatgpt.RoleAssistant
		}
		conversation = append(conversation, reply)
		result.Messages = append(result.Messages, reply)

		if len(reply.ToolCalls) == 0 {
			result.Reply = reply.Content
			return result, nil
		}

		for _, call := range reply.ToolCalls {
			event, msg, err := r.runTool(ctx, round, call)
			if err != nil {
				return result, err
			}
			conversation = append(conversation, msg)
			result.Messages = append(result.Messages, msg)
			result.ToolCalls = append(result.ToolCalls, event)
			if observer != nil {
				if err := observer(ctx, event); err != nil {
					return result, err
				}
			}
		}
	}
	return result, apperrors.Wrap(apperrors.CodeLLM, fmt.Sprintf("model did not finish within %d tool rounds", r.cfg.MaxRounds), nil)
}

func (r *Runner) runTool(ctx context.Context, round int, call chatgpt.ToolCall) (ToolEvent, chatgpt.Message, error) {
	name := call.Function.Name
	outcome, err := r.tools.Execute(ctx, name, []byte(call.Function.Arguments))
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			return ToolEvent{}, chatgpt.Message{}, err
		}
		r.logger.Warn("model requested unknown tool", "tool", name)
		outcome = Outcome{Tool: name, Result: map[string]any{"success": false, "error": "Unknown tool " + name}}
	}
	content, err := outcome.Content()
	if err != nil {
		return ToolEvent{}, chatgpt.Message{}, apperrors.Wrap(apperrors.CodeGeneration, "encode tool result", err)
	}
	msg := chatgpt.Message{
		Role:       chatgpt.RoleTool,
		Name:       name,
		Content:    content,
		ToolCallID: call.ID,
	}
	return ToolEvent{Round: round, Call: call, Outcome: outcome}, msg, nil
}
