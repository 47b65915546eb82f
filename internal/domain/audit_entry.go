package domain

import "time"

// AuditField names the ticket field an audit entry records a change to.
type AuditField string

const (
	AuditFieldStatus         AuditField = "status"
	AuditFieldAssignee       AuditField = "assignee"
	AuditFieldPriority       AuditField = "priority"
	AuditFieldResolutionNote AuditField = "resolution_note"
)

// AuditEntry is one immutable record of one field change on one ticket.
// Entries are append-only: never updated or deleted once written. IDs
// are assigned sequentially by the store so insertion order breaks
// timestamp ties.
type AuditEntry struct {
	ID        int64
	TicketID  string
	ActorID   *string // nil for the system actor
	ActorRole Role
	Field     AuditField
	OldValue  string
	NewValue  string
	Note      string // resolve comment or reopen reason, when present
	CreatedAt time.Time
}
