package preview

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
	"github.com/yanqian/flowdash/internal/domain/payload"
)

// JobGeneratePreview is the queue job that turns a stored event into a preview.
const JobGeneratePreview = "generate_preview"

// WebhookEvent is one payload received for a client.
type WebhookEvent struct {
	ID         uuid.UUID     `json:"id"`
	ClientID   string        `json:"clientId"`
	Payload    payload.Value `json:"payload"`
	ReceivedAt time.Time     `json:"receivedAt"`
}

// EventStats summarizes the events stored for a client.
type EventStats struct {
	Count          int64
	LastReceivedAt *time.Time
}

// IngestResponse acknowledges a webhook.
type IngestResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	ClientID string    `json:"clientId"`
	EventID  uuid.UUID `json:"eventId"`
}

// RecentEventsResponse lists the latest events for a client.
type RecentEventsResponse struct {
	ClientID   string         `json:"clientId"`
	EventCount int64          `json:"eventCount"`
	Events     []WebhookEvent `json:"events"`
}

// StatusResponse tells the UI whether a client has data and a preview.
type StatusResponse struct {
	ClientID       string     `json:"clientId"`
	HasData        bool       `json:"hasData"`
	EventCount     int64      `json:"eventCount"`
	LastEventAt    *time.Time `json:"lastEventAt"`
	DashboardReady bool       `json:"dashboardReady"`
	PreviewURL     *string    `json:"previewUrl"`
}

// PasteRequest asks for a preview generated from pasted JSON.
type PasteRequest struct {
	ClientID    string        `json:"clientId"`
	WebhookData payload.Value `json:"webhookData"`
}

// PasteResponse is returned once the preview is stored.
type PasteResponse struct {
	Success        bool   `json:"success"`
	DashboardReady bool   `json:"dashboardReady"`
	PreviewURL     string `json:"previewUrl"`
	TemplateName   string `json:"templateName"`
	ClientID       string `json:"clientId"`
	Subdomain      string `json:"subdomain"`
}

// PreviewResponse wraps a stored preview specification.
type PreviewResponse struct {
	ID            string                  `json:"id"`
	Specification dashboard.Specification `json:"specification"`
}
