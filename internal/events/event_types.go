package events

import (
	"time"

	"github.com/itops/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketCommentAdded    EventType = "ticket_comment_added"
	EventTicketAttachmentAdded EventType = "ticket_attachment_added"
	EventTicketDeleted         EventType = "ticket_deleted"
	EventTicketSLABreached     EventType = "ticket_sla_breached"
)

// Actor identifies who caused the event. A nil UserID means the system
// actor (scheduled jobs).
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Role   domain.Role `json:"role"`
}

// FieldChange mirrors one audit entry inside an event payload.
type FieldChange struct {
	Field    domain.AuditField `json:"field"`
	OldValue string            `json:"old_value"`
	NewValue string            `json:"new_value"`
}

// Event represents a domain event emitted by the lifecycle engine.
// Delivery is fire-and-forget: sinks log failures, the engine never
// blocks on or retries them.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	TicketID  string        `json:"ticket_id"`
	Actor     Actor         `json:"actor"`
	Changes   []FieldChange `json:"changes,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Payload   interface{}   `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ExternalKey string                `json:"external_key"`
	Priority    domain.TicketPriority `json:"priority"`
	Title       string                `json:"title"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	Internal    bool   `json:"internal"`
	BodyPreview string `json:"body_preview"`
}

// TicketAttachmentAddedPayload payload.
type TicketAttachmentAddedPayload struct {
	AttachmentID string `json:"attachment_id"`
	FileName     string `json:"file_name"`
	SizeBytes    int64  `json:"size_bytes"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	ExternalKey string          `json:"external_key"`
	State       domain.SLAState `json:"state"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
}
