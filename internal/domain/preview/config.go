package preview

import "time"

// Generation modes.
const (
	ModeAuto   = "auto"
	ModeLLM    = "llm"
	ModeDirect = "direct"
)

// Config controls preview generation.
type Config struct {
	Mode             string
	SystemPrompt     string
	DefaultTitle     string
	MaxPayloadTokens int
	Timeout          time.Duration
	RecentLimit      int
}

const (
	defaultRecentLimit = 5
	defaultTimeout     = 90 * time.Second
)

// DefaultSystemPrompt steers the model toward the dashboard tools.
const DefaultSystemPrompt = `You build monitoring dashboards from webhook payloads sent by voice AI platforms.
Analyze the payload with analyze_webhook_payload, then call generate_dashboard_specification
with the resulting schema. If the payload is plain JSON data you may call
generate_dashboard_from_data instead. Reply with a one sentence summary of the dashboard.`
