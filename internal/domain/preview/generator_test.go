package preview_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/preview"
	"github.com/yanqian/flowdash/internal/domain/toolkit"
	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/metrics"
)

type scriptedRunner struct {
	events []toolkit.ToolEvent
	err    error
	seen   []chatgpt.Message
}

func (r *scriptedRunner) Run(ctx context.Context, history []chatgpt.Message, observer toolkit.ToolObserver) (toolkit.RunResult, error) {
	r.seen = history
	result := toolkit.RunResult{
		Reply:    "Built a call dashboard.",
		Messages: []chatgpt.Message{{Role: chatgpt.RoleAssistant, Content: "Built a call dashboard."}},
		Usage:    metrics.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
	for _, event := range r.events {
		if err := observer(ctx, event); err != nil {
			return result, err
		}
	}
	return result, r.err
}

func generatedEvent(name string) toolkit.ToolEvent {
	spec := &dashboard.Specification{TemplateID: "t", TemplateName: name}
	return toolkit.ToolEvent{Outcome: toolkit.Outcome{
		Tool:    toolkit.ToolGenerateSpecification,
		Success: true,
		Result:  dashboard.GenerateResult{Success: true, Specification: spec},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLLMGeneratorCapturesLastSpecification(t *testing.T) {
	runner := &scriptedRunner{events: []toolkit.ToolEvent{
		{Outcome: toolkit.Outcome{Tool: toolkit.ToolAnalyzePayload, Success: true}},
		generatedEvent("First"),
		generatedEvent("Second"),
	}}
	gen := preview.NewLLMGenerator(runner, "", discardLogger())

	out, err := gen.Generate(context.Background(), "client-1", mustParse(t, `{"callId":"a"}`))
	require.NoError(t, err)
	require.Equal(t, preview.ModeLLM, out.Mode)
	require.Equal(t, "Second", out.Specification.TemplateName)
	require.EqualValues(t, 15, out.Usage.TotalTokens)

	require.Len(t, runner.seen, 2)
	require.Equal(t, chatgpt.RoleSystem, runner.seen[0].Role)
	require.Equal(t, preview.DefaultSystemPrompt, runner.seen[0].Content)
	require.Contains(t, runner.seen[1].Content, `"callId": "a"`)

	require.Len(t, out.Transcript, 2)
	require.Equal(t, chatgpt.RoleUser, out.Transcript[0].Role)
}

func TestLLMGeneratorCapturesComposedSpecification(t *testing.T) {
	spec := &dashboard.Specification{TemplateName: "Composed"}
	runner := &scriptedRunner{events: []toolkit.ToolEvent{{Outcome: toolkit.Outcome{
		Tool:    toolkit.ToolGenerateFromData,
		Success: true,
		Result:  dashboard.ComposeResult{Success: true, Specification: spec},
	}}}}
	out, err := preview.NewLLMGenerator(runner, "prompt", discardLogger()).Generate(context.Background(), "c", mustParse(t, `{}`))
	require.NoError(t, err)
	require.Equal(t, "Composed", out.Specification.TemplateName)
}

func TestLLMGeneratorWithoutSpecification(t *testing.T) {
	runner := &scriptedRunner{events: []toolkit.ToolEvent{{Outcome: toolkit.Outcome{
		Tool:    toolkit.ToolGenerateSpecification,
		Success: false,
		Result:  dashboard.GenerateResult{Error: "bad"},
	}}}}
	out, err := preview.NewLLMGenerator(runner, "", discardLogger()).Generate(context.Background(), "c", mustParse(t, `{"a":1}`))
	require.True(t, apperrors.IsCode(err, apperrors.CodeGeneration))
	require.NotEmpty(t, out.Transcript)
}

func TestLLMGeneratorKeepsSpecificationAfterRunError(t *testing.T) {
	runner := &scriptedRunner{
		events: []toolkit.ToolEvent{generatedEvent("Kept")},
		err:    apperrors.Wrap(apperrors.CodeLLM, "model did not finish", errors.New("rounds")),
	}
	out, err := preview.NewLLMGenerator(runner, "", discardLogger()).Generate(context.Background(), "c", mustParse(t, `{"a":1}`))
	require.NoError(t, err)
	require.Equal(t, "Kept", out.Specification.TemplateName)
}

func TestLLMGeneratorPropagatesRunError(t *testing.T) {
	runner := &scriptedRunner{err: apperrors.Wrap(apperrors.CodeLLM, "chat completion failed", nil)}
	_, err := preview.NewLLMGenerator(runner, "", discardLogger()).Generate(context.Background(), "c", mustParse(t, `{"a":1}`))
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
}

func TestDirectGeneratorUsesTitle(t *testing.T) {
	out, err := preview.NewDirectGenerator("Call Center").Generate(context.Background(), "c", mustParse(t, `{"duration":30}`))
	require.NoError(t, err)
	require.Equal(t, preview.ModeDirect, out.Mode)
	require.Equal(t, "Call Center", out.Specification.TemplateName)
	require.Equal(t, dashboard.DefaultPrimaryColor, out.Specification.Theme.Primary)

	_, err = preview.NewDirectGenerator("").Generate(context.Background(), "c", mustParse(t, `"text"`))
	require.True(t, apperrors.IsCode(err, apperrors.CodeGeneration))
}
