package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/payload"
	"github.com/yanqian/flowdash/internal/domain/toolkit"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/metrics"
)

// Generation is the output of a SpecGenerator.
type Generation struct {
	Specification dashboard.Specification
	Mode          string
	Reply         string
	Transcript    []chatgpt.Message
	Usage         metrics.TokenUsage
}

// SpecGenerator turns a webhook payload into a dashboard specification.
type SpecGenerator interface {
	Mode() string
	Generate(ctx context.Context, clientID string, data payload.Value) (Generation, error)
}

// ToolRunner drives the model/tool loop.
type ToolRunner interface {
	Run(ctx context.Context, history []chatgpt.Message, observer toolkit.ToolObserver) (toolkit.RunResult, error)
}

// DirectGenerator builds the specification without a model.
type DirectGenerator struct {
	title string
}

// NewDirectGenerator constructs a DirectGenerator. An empty title uses the composed default.
func NewDirectGenerator(title string) *DirectGenerator {
	if title == "" {
		title = dashboard.DefaultComposedTitle
	}
	return &DirectGenerator{title: title}
}

// Mode implements SpecGenerator.
func (g *DirectGenerator) Mode() string { return ModeDirect }

// Generate implements SpecGenerator.
func (g *DirectGenerator) Generate(_ context.Context, _ string, data payload.Value) (Generation, error) {
	res := dashboard.ComposeValue(data, dashboard.ComposeOptions{
		Customizations: &dashboard.Customizations{
			Title:  g.title,
			Colors: &dashboard.Theme{Primary: dashboard.DefaultPrimaryColor, Secondary: dashboard.DefaultSecondaryColor},
		},
	})
	if !res.Success || res.Specification == nil {
		return Generation{}, apperrors.Wrap(apperrors.CodeGeneration, joinDetails(res.Error, res.Details), nil)
	}
	return Generation{Specification: *res.Specification, Mode: ModeDirect}, nil
}

// LLMGenerator asks the model to call the dashboard tools and keeps the
// specification produced by the last successful generating tool call.
type LLMGenerator struct {
	runner       ToolRunner
	systemPrompt string
	logger       *slog.Logger
}

// NewLLMGenerator constructs an LLMGenerator.
func NewLLMGenerator(runner ToolRunner, systemPrompt string, logger *slog.Logger) *LLMGenerator {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &LLMGenerator{
		runner:       runner,
		systemPrompt: systemPrompt,
		logger:       logger.With("component", "preview.llm_generator"),
	}
}

// Mode implements SpecGenerator.
func (g *LLMGenerator) Mode() string { return ModeLLM }

// Generate implements SpecGenerator.
func (g *LLMGenerator) Generate(ctx context.Context, clientID string, data payload.Value) (Generation, error) {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return Generation{}, apperrors.Wrap(apperrors.CodeInvalidInput, "encode webhook payload", err)
	}
	history := []chatgpt.Message{
		{Role: chatgpt.RoleSystem, Content: g.systemPrompt},
		{Role: chatgpt.RoleUser, Content: fmt.Sprintf("Webhook payload received for client %s:\n```json\n%s\n```", clientID, encoded)},
	}

	var captured *dashboard.Specification
	observer := func(_ context.Context, event toolkit.ToolEvent) error {
		if spec := capturedSpecification(event.Outcome); spec != nil {
			captured = spec
		}
		return nil
	}

	result, runErr := g.runner.Run(ctx, history, observer)
	transcript := append([]chatgpt.Message{history[1]}, result.Messages...)
	if captured == nil {
		if runErr != nil {
			return Generation{Transcript: transcript, Usage: result.Usage}, runErr
		}
		return Generation{Transcript: transcript, Usage: result.Usage},
			apperrors.Wrap(apperrors.CodeGeneration, "model did not produce a dashboard specification", nil)
	}
	if runErr != nil {
		g.logger.Warn("model run failed after a specification was produced", "clientId", clientID, "error", runErr)
	}
	return Generation{
		Specification: *captured,
		Mode:          ModeLLM,
		Reply:         result.Reply,
		Transcript:    transcript,
		Usage:         result.Usage,
	}, nil
}

func capturedSpecification(outcome toolkit.Outcome) *dashboard.Specification {
	if !outcome.Success {
		return nil
	}
	switch outcome.Tool {
	case toolkit.ToolGenerateSpecification:
		if res, ok := outcome.Result.(dashboard.GenerateResult); ok && res.Specification != nil {
			return res.Specification
		}
	case toolkit.ToolGenerateFromData:
		if res, ok := outcome.Result.(dashboard.ComposeResult); ok && res.Specification != nil {
			return res.Specification
		}
	}
	return nil
}

func joinDetails(msg, details string) string {
	if details == "" {
		return msg
	}
	return msg + ": " + details
}
