package toolkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
)

type stubChatClient struct {
	responses []chatgpt.ChatCompletionResponse
	err       error
	requests  []chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return chatgpt.ChatCompletionResponse{}, errors.New("no more responses")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func toolCallResponse(id, name, args string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{
			Role: chatgpt.RoleAssistant,
			ToolCalls: []chatgpt.ToolCall{{
				ID:       id,
				Type:     "function",
				Function: chatgpt.ToolCallDefinition{Name: name, Arguments: args},
			}},
		}}},
		Usage: chatgpt.Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12},
	}
}

func textResponse(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: chatgpt.RoleAssistant, Content: content}}},
		Usage:   chatgpt.Usage{PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25},
	}
}

func TestRunExecutesToolsUntilReply(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		toolCallResponse("call_1", ToolGenerateFromData, `{"jsonData":"{\"amount\":5}"}`),
		textResponse("Your dashboard is ready."),
	}}
	runner := NewRunner(RunnerConfig{Model: "gpt-4o-mini"}, client, newTestRegistry(t), nil, newTestLogger())

	var observed []ToolEvent
	res, err := runner.Run(context.Background(), []chatgpt.Message{
		{Role: chatgpt.RoleSystem, Content: "system"},
		{Role: chatgpt.RoleUser, Content: "build it"},
	}, func(_ context.Context, e ToolEvent) error {
		observed = append(observed, e)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Your dashboard is ready.", res.Reply)
	require.Len(t, res.Messages, 3)
	require.Equal(t, chatgpt.RoleTool, res.Messages[1].Role)
	require.Equal(t, "call_1", res.Messages[1].ToolCallID)
	require.Equal(t, ToolGenerateFromData, res.Messages[1].Name)
	require.Contains(t, res.Messages[1].Content, `"success":true`)
	require.Equal(t, 37, res.Usage.TotalTokens)

	require.Len(t, observed, 1)
	require.True(t, observed[0].Outcome.Success)
	require.Len(t, client.requests, 2)
	require.Len(t, client.requests[1].Messages, 4)
	require.Len(t, client.requests[0].Tools, 4)
}

func TestRunReportsUnknownToolToModel(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		toolCallResponse("c", "mystery", `{}`),
		textResponse("ok"),
	}}
	runner := NewRunner(RunnerConfig{}, client, newTestRegistry(t), nil, newTestLogger())

	res, err := runner.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Contains(t, res.Messages[1].Content, "Unknown tool mystery")
}

func TestRunStopsAfterMaxRounds(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		toolCallResponse("a", ToolAnalyzePayload, `{"payload":"{}"}`),
		toolCallResponse("b", ToolAnalyzePayload, `{"payload":"{}"}`),
	}}
	runner := NewRunner(RunnerConfig{MaxRounds: 2}, client, newTestRegistry(t), nil, newTestLogger())

	res, err := runner.Run(context.Background(), nil, nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
	require.Len(t, res.ToolCalls, 2)
}

func TestRunObserverErrorAborts(t *testing.T) {
	client := &stubChatClient{responses: []chatgpt.ChatCompletionResponse{
		toolCallResponse("a", ToolAnalyzePayload, `{"payload":"{}"}`),
		textResponse("never"),
	}}
	runner := NewRunner(RunnerConfig{}, client, newTestRegistry(t), nil, newTestLogger())

	stop := errors.New("stop")
	_, err := runner.Run(context.Background(), nil, func(context.Context, ToolEvent) error { return stop })
	require.ErrorIs(t, err, stop)
	require.Len(t, client.requests, 1)
}

func TestRunWrapsClientErrors(t *testing.T) {
	client := &stubChatClient{err: errors.New("boom")}
	runner := NewRunner(RunnerConfig{}, client, newTestRegistry(t), nil, newTestLogger())

	_, err := runner.Run(context.Background(), nil, nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
}
