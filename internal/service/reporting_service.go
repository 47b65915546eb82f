package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/repository"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// ReportingService aggregates ticket data for dashboards and exports.
// All operations are staff-only; the HTTP layer enforces the role gate
// and the service re-checks it.
type ReportingService struct {
	tickets repository.TicketRepository
	audit   repository.AuditRepository
	now     func() time.Time
}

func NewReportingService(tickets repository.TicketRepository, audit repository.AuditRepository, clock func() time.Time) *ReportingService {
	if clock == nil {
		clock = time.Now
	}
	return &ReportingService{tickets: tickets, audit: audit, now: clock}
}

// CountReport is one grouped aggregation.
type CountReport struct {
	GroupBy string           `json:"group_by"`
	Counts  map[string]int64 `json:"counts"`
}

// SLAOverview summarizes open-workload SLA health.
type SLAOverview struct {
	Met       int64 `json:"met"`
	AtRisk    int64 `json:"at_risk"`
	Breached  int64 `json:"breached"`
	NoSLA     int64 `json:"no_sla"`
	OpenTotal int64 `json:"open_total"`
}

// ActivityReport covers audit-ledger movement inside a window.
type ActivityReport struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	TicketsChanged int64     `json:"tickets_changed"`
	TicketsCreated int64     `json:"tickets_created"`
}

// Counts groups tickets by status, priority or assignee.
func (s *ReportingService) Counts(ctx context.Context, actor *domain.User, groupBy string, filter repository.TicketFilter) (*CountReport, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("reporting requires a staff role")
	}
	switch groupBy {
	case "status", "priority", "assignee":
	case "":
		groupBy = "status"
	default:
		return nil, apperrors.NewValidationError("unknown grouping", map[string]any{"group_by": groupBy})
	}
	counts, err := s.tickets.CountGrouped(ctx, groupBy, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &CountReport{GroupBy: groupBy, Counts: counts}, nil
}

// ChangedInPeriod reports ledger activity between from and to.
func (s *ReportingService) ChangedInPeriod(ctx context.Context, actor *domain.User, from, to time.Time) (*ActivityReport, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("reporting requires a staff role")
	}
	if !to.After(from) {
		return nil, apperrors.NewValidationError("period end must be after its start", nil)
	}
	changed, err := s.audit.CountTicketsChanged(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	created, err := s.tickets.CountCreatedSince(ctx, from)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ActivityReport{From: from, To: to, TicketsChanged: changed, TicketsCreated: created}, nil
}

// SLAHealth classifies every non-closed ticket against its due date.
func (s *ReportingService) SLAHealth(ctx context.Context, actor *domain.User) (*SLAOverview, error) {
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("reporting requires a staff role")
	}
	open, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusResolved,
		},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	overview := &SLAOverview{OpenTotal: int64(len(open))}
	for _, ticket := range open {
		if ticket.DueDate == nil {
			overview.NoSLA++
			continue
		}
		switch ticket.SLAStateAt(now) {
		case domain.SLAMet:
			overview.Met++
		case domain.SLAAtRisk:
			overview.AtRisk++
		case domain.SLABreached:
			overview.Breached++
		}
	}
	return overview, nil
}

// ExportCSV streams the filtered ticket list as CSV.
func (s *ReportingService) ExportCSV(ctx context.Context, actor *domain.User, filter repository.TicketFilter, w io.Writer) error {
	if !actor.Role.IsStaff() {
		return apperrors.NewForbidden("reporting requires a staff role")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return apperrors.MapError(err)
	}

	writer := csv.NewWriter(w)
	header := []string{
		"key", "title", "status", "priority", "requester_id", "assignee_id",
		"sla_hours", "due_date", "sla_state", "created_at", "updated_at",
	}
	if err := writer.Write(header); err != nil {
		return apperrors.NewStorageError(err)
	}
	now := s.now()
	for _, ticket := range tickets {
		due := ""
		if ticket.DueDate != nil {
			due = ticket.DueDate.Format(time.RFC3339)
		}
		record := []string{
			ticket.ExternalKey,
			ticket.Title,
			string(ticket.Status),
			string(ticket.Priority),
			ticket.RequesterID,
			derefOrEmpty(ticket.AssigneeID),
			strconv.Itoa(ticket.SLAHours),
			due,
			string(ticket.SLAStateAt(now)),
			ticket.CreatedAt.Format(time.RFC3339),
			ticket.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}
