package dto

import (
	"time"

	"github.com/itops/support-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	SLAHours    int                   `json:"sla_hours"`
}

// TransitionRequest asks for one lifecycle transition. expected_status
// is what the client last read; the server rejects the request with a
// conflict when it no longer matches.
type TransitionRequest struct {
	ExpectedStatus domain.TicketStatus    `json:"expected_status"`
	Status         domain.TicketStatus    `json:"status"`
	AssigneeID     *string                `json:"assignee_id"`
	Priority       *domain.TicketPriority `json:"priority"`
	ResolutionNote string                 `json:"resolution_note"`
	Reason         string                 `json:"reason"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// PriorityRequest payload.
type PriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// CommentRequest payload.
type CommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	ExternalKey string                `json:"external_key"`
	Title       string                `json:"title"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	RequesterID string                `json:"requester_id"`
	AssigneeID  *string               `json:"assignee_id"`
	SLAState    domain.SLAState       `json:"sla_state"`
	DueDate     *time.Time            `json:"due_date"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetail response.
type TicketDetail struct {
	TicketSummary
	Description    string     `json:"description"`
	ResolutionNote *string    `json:"resolution_note"`
	SLAHours       int        `json:"sla_hours"`
	Version        int64      `json:"version"`
	ClosedAt       *time.Time `json:"closed_at"`
}

// AuditEntryResponse is one ledger line.
type AuditEntryResponse struct {
	ID        int64             `json:"id"`
	ActorID   *string           `json:"actor_id"`
	ActorRole domain.Role       `json:"actor_role"`
	Field     domain.AuditField `json:"field"`
	OldValue  string            `json:"old_value"`
	NewValue  string            `json:"new_value"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// CommentResponse is one ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse is attachment metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(ticket *domain.Ticket, now time.Time) TicketSummary {
	return TicketSummary{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		Title:       ticket.Title,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		RequesterID: ticket.RequesterID,
		AssigneeID:  ticket.AssigneeID,
		SLAState:    ticket.SLAStateAt(now),
		DueDate:     ticket.DueDate,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket with full fields.
func NewTicketDetail(ticket *domain.Ticket, now time.Time) TicketDetail {
	return TicketDetail{
		TicketSummary:  NewTicketSummary(ticket, now),
		Description:    ticket.Description,
		ResolutionNote: ticket.ResolutionNote,
		SLAHours:       ticket.SLAHours,
		Version:        ticket.Version,
		ClosedAt:       ticket.ClosedAt,
	}
}

// NewAuditEntryResponse maps a ledger entry.
func NewAuditEntryResponse(entry *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        entry.ID,
		ActorID:   entry.ActorID,
		ActorRole: entry.ActorRole,
		Field:     entry.Field,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	}
}

// NewAttachmentResponse maps attachment metadata.
func NewAttachmentResponse(attachment *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         attachment.ID,
		FileName:   attachment.FileName,
		MimeType:   attachment.MimeType,
		SizeBytes:  attachment.SizeBytes,
		UploadedBy: attachment.UploadedBy,
		CreatedAt:  attachment.CreatedAt,
	}
}
