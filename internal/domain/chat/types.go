package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	"github.com/yanqian/flowdash/pkg/metrics"
)

// DefaultSystemPrompt frames chat turns around the dashboard tools.
const DefaultSystemPrompt = `You help agencies design monitoring dashboards for their voice AI clients.
Use the dashboard tools to analyze webhook payloads, list templates and generate specifications.
Keep answers short and describe what each generated dashboard shows.`

// Config holds runtime knobs for the chat service.
type Config struct {
	SystemPrompt string
	HistoryLimit int
}

// Thread is a persisted conversation.
type Thread struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoredMessage is a chat message with its thread and timestamp.
type StoredMessage struct {
	ThreadID  uuid.UUID       `json:"threadId"`
	Message   chatgpt.Message `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Request is one user turn.
type Request struct {
	ThreadID string `json:"threadId"`
	Message  string `json:"message"`
}

// ToolCallSummary tells the client which tools ran during a turn.
type ToolCallSummary struct {
	Tool                string `json:"tool"`
	Success             bool   `json:"success"`
	ProgressTitle       string `json:"progressTitle"`
	ProgressDescription string `json:"progressDescription,omitempty"`
}

// Response is returned after the model answered.
type Response struct {
	ThreadID  string              `json:"threadId"`
	Reply     string              `json:"reply"`
	ToolCalls []ToolCallSummary   `json:"toolCalls"`
	Usage     *metrics.TokenUsage `json:"usage,omitempty"`
}

// HistoryResponse lists the visible messages of a thread.
type HistoryResponse struct {
	Thread   Thread          `json:"thread"`
	Messages []StoredMessage `json:"messages"`
}
