// Package mq holds the wire payloads shared between publishers and
// consumers. Changing a field here changes the contract for every service
// bound to the exchange.
package mq

import "time"

// EmailInboundPayload 收件 webhook 事件的 payload
type EmailInboundPayload struct {
	EventID    string    `json:"event_id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// EngagementCreatedPayload 新建 engagement 事件的 payload
type EngagementCreatedPayload struct {
	EngagementID string   `json:"engagement_id"`
	ClientID     string   `json:"client_id"`
	TypeID       string   `json:"type_id"`
	DueDate      string   `json:"due_date"` // yyyy-MM-dd
	AssignedTo   []string `json:"assigned_to"`
	CreatedBy    string   `json:"created_by"`
}

// EmailClassifiedPayload is emitted after the classification flow finishes,
// for downstream notification fan-out.
type EmailClassifiedPayload struct {
	EventID   string   `json:"event_id"`
	Category  string   `json:"category"`
	Summary   string   `json:"summary"`
	ClientID  string   `json:"client_id,omitempty"`
	VisibleTo []string `json:"visible_to"`
}
