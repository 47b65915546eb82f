package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/itops/support-portal/internal/config"
	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/events"
	"github.com/itops/support-portal/internal/observability"
	"github.com/itops/support-portal/internal/repository"
	"github.com/itops/support-portal/internal/storage"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// LifecycleService is the ticket lifecycle engine: it owns the state
// machine, consults the capability table once per action, and keeps the
// audit ledger consistent with every accepted mutation.
type LifecycleService struct {
	tickets    repository.TicketRepository
	audit      repository.AuditRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	uow        repository.UnitOfWork
	files      storage.FileStore
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.LifecycleConfig
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the engine.
type LifecycleDependencies struct {
	TicketRepo  repository.TicketRepository
	AuditRepo   repository.AuditRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	UnitOfWork  repository.UnitOfWork
	FileStore   storage.FileStore
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Config      config.LifecycleConfig
	Clock       func() time.Time
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		audit:      deps.AuditRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		uow:        deps.UnitOfWork,
		files:      deps.FileStore,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        deps.Config,
		now:        clock,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	SLAHours    int
}

// TransitionInput carries one requested lifecycle transition.
// ExpectedStatus is the status the caller read; the engine rejects the
// request with Conflict if the stored status has moved since.
type TransitionInput struct {
	TicketID       string
	ExpectedStatus domain.TicketStatus
	NewStatus      domain.TicketStatus
	AssigneeID     *string
	Priority       *domain.TicketPriority
	ResolutionNote string
	Reason         string
}

// transitionActions maps each permitted edge to the capability it
// requires. Absent edges are invalid; same-state requests are rejected
// before this table is consulted.
var transitionActions = map[domain.TicketStatus]map[domain.TicketStatus]Action{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress: ActionStart},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved: ActionResolve},
	domain.TicketStatusResolved: {
		domain.TicketStatusClosed: ActionClose,
		domain.TicketStatusOpen:   ActionReopenResolved,
	},
	domain.TicketStatusClosed: {domain.TicketStatusOpen: ActionReopenClosed},
}

// fieldChange is one pending audit record for an accepted mutation.
type fieldChange struct {
	field    domain.AuditField
	oldValue string
	newValue string
	note     string
}

// CreateTicket files a new ticket for the acting user. Tickets start
// OPEN with no assignee.
func (s *LifecycleService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if decision := Allow(actor.Role, nil, ActionCreate); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	slaHours := input.SLAHours
	if slaHours <= 0 {
		slaHours = s.cfg.DefaultSLAHours
	}

	now := s.now()
	due := now.Add(time.Duration(slaHours) * time.Hour)
	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(now),
		RequesterID: actor.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		SLAHours:    slaHours,
		DueDate:     &due,
	}

	err := s.uow.Do(ctx, func(repos repository.TxRepos) error {
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		return s.appendAudit(ctx, repos.Audit, actor, ticket.ID, fieldChange{
			field:    domain.AuditFieldStatus,
			newValue: string(domain.TicketStatusOpen),
		})
	})
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			ExternalKey: ticket.ExternalKey,
			Priority:    ticket.Priority,
			Title:       ticket.Title,
		},
	})
	return ticket, nil
}

// Transition applies one validated status change, bundled assignee and
// priority updates included. All side effects (ticket row, one audit
// entry per changed field) commit atomically; the notification event is
// emitted only after commit.
func (s *LifecycleService) Transition(ctx context.Context, actor *domain.User, input TransitionInput) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}

	from := ticket.Status
	to := input.NewStatus
	if !to.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": to})
	}
	if input.ExpectedStatus != "" && input.ExpectedStatus != from {
		s.recordOutcome(from, to, "conflict")
		return nil, apperrors.NewConflict("ticket status changed since read", map[string]any{
			"expected": input.ExpectedStatus,
			"actual":   from,
		})
	}
	if to == from {
		s.recordOutcome(from, to, "invalid")
		return nil, apperrors.NewInvalidTransition("ticket already in requested status", map[string]any{"status": from})
	}
	action, ok := transitionActions[from][to]
	if !ok {
		s.recordOutcome(from, to, "invalid")
		return nil, apperrors.NewInvalidTransition("transition not permitted", map[string]any{
			"from": from,
			"to":   to,
		})
	}

	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), action); !decision.Allowed {
		s.recordOutcome(from, to, "forbidden")
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	var changes []fieldChange
	now := s.now()

	switch action {
	case ActionStart:
		assigneeID, err := s.resolveStartAssignee(ctx, actor, input.AssigneeID)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fieldChange{
			field:    domain.AuditFieldAssignee,
			oldValue: derefOrEmpty(ticket.AssigneeID),
			newValue: assigneeID,
		})
		ticket.AssigneeID = &assigneeID

	case ActionResolve:
		note := strings.TrimSpace(input.ResolutionNote)
		if note == "" {
			return nil, apperrors.NewValidationError("resolution note is required", nil)
		}
		changes = append(changes, fieldChange{
			field:    domain.AuditFieldResolutionNote,
			oldValue: derefOrEmpty(ticket.ResolutionNote),
			newValue: note,
		})
		ticket.ResolutionNote = &note

	case ActionClose:
		ticket.ClosedAt = &now

	case ActionReopenResolved, ActionReopenClosed:
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			return nil, apperrors.NewValidationError("reopen reason is required", nil)
		}
		if ticket.ResolutionNote != nil {
			changes = append(changes, fieldChange{
				field:    domain.AuditFieldResolutionNote,
				oldValue: *ticket.ResolutionNote,
				note:     reason,
			})
		}
		ticket.ResolutionNote = nil
		ticket.ClosedAt = nil
	}

	statusChange := fieldChange{
		field:    domain.AuditFieldStatus,
		oldValue: string(from),
		newValue: string(to),
		note:     strings.TrimSpace(firstNonEmpty(input.Reason, input.ResolutionNote)),
	}
	changes = append([]fieldChange{statusChange}, changes...)
	ticket.Status = to

	if input.Priority != nil && *input.Priority != ticket.Priority {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionChangePriority); !decision.Allowed {
			s.recordOutcome(from, to, "forbidden")
			return nil, apperrors.NewForbidden(decision.Reason)
		}
		changes = append(changes, fieldChange{
			field:    domain.AuditFieldPriority,
			oldValue: string(ticket.Priority),
			newValue: string(*input.Priority),
		})
		ticket.Priority = *input.Priority
	}

	if err := s.commitChanges(ctx, actor, ticket, from, changes); err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			s.recordOutcome(from, to, "conflict")
		}
		return nil, err
	}
	s.recordOutcome(from, to, "accepted")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Changes:  eventChanges(changes),
	})
	return ticket, nil
}

// Assign sets or replaces the assignee without a status change. Only
// in-progress or resolved tickets may be reassigned; agents may only
// take tickets for themselves.
func (s *LifecycleService) Assign(ctx context.Context, actor *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() {
		return nil, apperrors.NewTicketLocked("closed tickets cannot be reassigned")
	}
	if ticket.Status == domain.TicketStatusOpen {
		return nil, apperrors.NewInvalidTransition("open tickets are assigned by starting them", map[string]any{"status": ticket.Status})
	}

	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionAssign); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	if actor.Role == domain.RoleAgent && assigneeID != actor.ID {
		return nil, apperrors.NewForbidden("agents may only assign tickets to themselves")
	}
	if ticket.IsAssignee(assigneeID) {
		return nil, apperrors.NewValidationError("ticket already assigned to this user", nil)
	}
	if err := s.validateAssignee(ctx, actor, assigneeID); err != nil {
		return nil, err
	}

	change := fieldChange{
		field:    domain.AuditFieldAssignee,
		oldValue: derefOrEmpty(ticket.AssigneeID),
		newValue: assigneeID,
	}
	ticket.AssigneeID = &assigneeID

	if err := s.commitChanges(ctx, actor, ticket, ticket.Status, []fieldChange{change}); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Changes:  eventChanges([]fieldChange{change}),
	})
	return ticket, nil
}

// ChangePriority adjusts the priority axis independently of the state
// machine. Closed tickets are locked for everyone.
func (s *LifecycleService) ChangePriority(ctx context.Context, actor *domain.User, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() {
		return nil, apperrors.NewTicketLocked("closed tickets cannot change priority")
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionChangePriority); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	if ticket.Priority == priority {
		return nil, apperrors.NewValidationError("ticket already has this priority", nil)
	}

	change := fieldChange{
		field:    domain.AuditFieldPriority,
		oldValue: string(ticket.Priority),
		newValue: string(priority),
	}
	ticket.Priority = priority

	if err := s.commitChanges(ctx, actor, ticket, ticket.Status, []fieldChange{change}); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Changes:  eventChanges([]fieldChange{change}),
	})
	return ticket, nil
}

// DeleteTicket removes a ticket with its attachments, comments and
// audit history. Admin only; file removal is best effort after commit.
func (s *LifecycleService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionDeleteTicket); !decision.Allowed {
		return apperrors.NewForbidden(decision.Reason)
	}

	var refs []string
	err = s.uow.Do(ctx, func(repos repository.TxRepos) error {
		attachments, err := repos.Attachments.ListByTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		for _, a := range attachments {
			refs = append(refs, a.ContentRef)
		}
		return repos.Tickets.Delete(ctx, ticketID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewStorageError(err)
	}

	if s.files != nil {
		for _, ref := range refs {
			if err := s.files.Remove(ctx, ref); err != nil {
				s.logger.Warn("orphaned attachment file", zap.String("ref", ref), zap.Error(err))
			}
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    eventActor(actor),
	})
	return nil
}

// GetTicket fetches a ticket the actor is allowed to view.
func (s *LifecycleService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionView); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	return ticket, nil
}

// ListTickets returns tickets scoped to what the actor may view:
// requesters see their own, agents see assigned plus unassigned,
// admins see everything the filter matches.
func (s *LifecycleService) ListTickets(ctx context.Context, actor *domain.User, filter repository.TicketFilter) ([]domain.Ticket, error) {
	switch actor.Role {
	case domain.RoleRequester:
		requesterID := actor.ID
		filter.RequesterID = &requesterID
		filter.VisibleToAgent = nil
	case domain.RoleAgent:
		agentID := actor.ID
		filter.VisibleToAgent = &agentID
	case domain.RoleAdmin:
		// unrestricted
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns the audit ledger for a ticket. Requesters see
// status and assignee entries on their own tickets; staff see all.
func (s *LifecycleService) ListHistory(ctx context.Context, actor *domain.User, ticketID string) ([]domain.AuditEntry, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionView); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	entries, err := s.audit.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.Role.IsStaff() {
		return entries, nil
	}
	visible := make([]domain.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Field == domain.AuditFieldStatus || entry.Field == domain.AuditFieldAssignee {
			visible = append(visible, entry)
		}
	}
	return visible, nil
}

// AddComment posts a comment. Internal comments require staff; closed
// tickets only accept comments from admins.
func (s *LifecycleService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string, internal bool) (*domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewTicketLocked("closed tickets do not accept comments")
	}
	action := ActionComment
	if internal {
		action = ActionInternalComment
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), action); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
		Internal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			Internal:    comment.Internal,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// ListComments returns a ticket's comments, hiding internal notes from
// requesters.
func (s *LifecycleService) ListComments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionView); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.Role.IsStaff() {
		return comments, nil
	}
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if !comment.Internal {
			visible = append(visible, comment)
		}
	}
	return visible, nil
}

func (s *LifecycleService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return ticket, nil
}

// commitChanges writes the mutated ticket and its audit entries in one
// transaction, guarding on the status the engine read. A stale guard
// surfaces as Conflict; any storage failure rolls everything back.
func (s *LifecycleService) commitChanges(ctx context.Context, actor *domain.User, ticket *domain.Ticket, expected domain.TicketStatus, changes []fieldChange) error {
	err := s.uow.Do(ctx, func(repos repository.TxRepos) error {
		if err := repos.Tickets.UpdateGuarded(ctx, ticket, expected); err != nil {
			return err
		}
		for _, change := range changes {
			if err := s.appendAudit(ctx, repos.Audit, actor, ticket.ID, change); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.NewConflict("ticket changed concurrently", map[string]any{"ticket_id": ticket.ID})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return apperrors.NewStorageError(err)
}

func (s *LifecycleService) appendAudit(ctx context.Context, audit repository.AuditRepository, actor *domain.User, ticketID string, change fieldChange) error {
	entry := &domain.AuditEntry{
		TicketID:  ticketID,
		ActorRole: actor.Role,
		Field:     change.field,
		OldValue:  change.oldValue,
		NewValue:  change.newValue,
		Note:      change.note,
	}
	if actor.ID != "" {
		actorID := actor.ID
		entry.ActorID = &actorID
	}
	if err := audit.Append(ctx, entry); err != nil {
		return err
	}
	s.metrics.RecordAuditAppend()
	return nil
}

// resolveStartAssignee picks and validates the assignee for an
// open -> in_progress transition. Agents default to themselves and may
// not hand the ticket to anyone else.
func (s *LifecycleService) resolveStartAssignee(ctx context.Context, actor *domain.User, requested *string) (string, error) {
	assigneeID := actor.ID
	if requested != nil && *requested != "" {
		assigneeID = *requested
	}
	if assigneeID == "" {
		return "", apperrors.NewValidationError("an assignee is required to start a ticket", nil)
	}
	if actor.Role == domain.RoleAgent && assigneeID != actor.ID {
		return "", apperrors.NewForbidden("agents may only assign tickets to themselves")
	}
	if err := s.validateAssignee(ctx, actor, assigneeID); err != nil {
		return "", err
	}
	return assigneeID, nil
}

func (s *LifecycleService) validateAssignee(ctx context.Context, actor *domain.User, assigneeID string) error {
	if assigneeID == actor.ID && actor.Role.IsStaff() {
		return nil
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return apperrors.NewStorageError(err)
	}
	if !assignee.Role.IsStaff() {
		return apperrors.NewValidationError("assignee must be an agent or admin", map[string]any{"user_id": assigneeID})
	}
	if !assignee.Active {
		return apperrors.NewConflict("assignee is suspended", map[string]any{"user_id": assigneeID})
	}
	return nil
}

func (s *LifecycleService) recordOutcome(from, to domain.TicketStatus, outcome string) {
	s.metrics.RecordTransition(string(from), string(to), outcome)
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.metrics.RecordEventPublished(string(event.Type))
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor *domain.User) events.Actor {
	out := events.Actor{Role: actor.Role}
	if actor.ID != "" {
		id := actor.ID
		out.UserID = &id
	}
	return out
}

func eventChanges(changes []fieldChange) []events.FieldChange {
	out := make([]events.FieldChange, 0, len(changes))
	for _, change := range changes {
		out = append(out, events.FieldChange{
			Field:    change.field,
			OldValue: change.oldValue,
			NewValue: change.newValue,
		})
	}
	return out
}

func generateTicketKey(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "IT-" + now.Format("200601") + "-" + suffix
}

func derefOrEmpty(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
