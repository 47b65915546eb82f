package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is one of the defined values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is one of the defined values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// SLAState describes where a ticket stands against its due date.
type SLAState string

const (
	SLAMet      SLAState = "MET"
	SLAAtRisk   SLAState = "AT_RISK"
	SLABreached SLAState = "BREACHED"
)

// slaRiskWindow is how close to the due date a ticket may get before it
// counts as at risk.
const slaRiskWindow = 6 * time.Hour

// Ticket is the aggregate for support requests. Version increments on
// every write and backs the optimistic concurrency check.
type Ticket struct {
	ID             string
	ExternalKey    string
	RequesterID    string
	AssigneeID     *string
	Title          string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	ResolutionNote *string
	SLAHours       int
	DueDate        *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
}

// IsClosed reports whether the ticket is locked against non-admin edits.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// IsRequester reports whether the given user owns the ticket.
func (t *Ticket) IsRequester(userID string) bool {
	return userID != "" && t.RequesterID == userID
}

// IsAssignee reports whether the given user is the current assignee.
func (t *Ticket) IsAssignee(userID string) bool {
	return userID != "" && t.AssigneeID != nil && *t.AssigneeID == userID
}

// SLAStateAt computes the SLA state relative to now. Closed tickets are
// judged by when they were closed; tickets without a due date always
// count as met.
func (t *Ticket) SLAStateAt(now time.Time) SLAState {
	if t.DueDate == nil {
		return SLAMet
	}
	if t.Status == TicketStatusClosed || t.Status == TicketStatusResolved {
		if t.ClosedAt != nil && t.ClosedAt.After(*t.DueDate) {
			return SLABreached
		}
		return SLAMet
	}
	remaining := t.DueDate.Sub(now)
	switch {
	case remaining < 0:
		return SLABreached
	case remaining <= slaRiskWindow:
		return SLAAtRisk
	default:
		return SLAMet
	}
}
