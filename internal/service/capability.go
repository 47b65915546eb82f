package service

import (
	"fmt"

	"github.com/itops/support-portal/internal/domain"
)

// Relationship describes how the acting user relates to a ticket.
type Relationship string

const (
	RelationRequester  Relationship = "REQUESTER"
	RelationAssignee   Relationship = "ASSIGNEE"
	RelationUnassigned Relationship = "UNASSIGNED"
	RelationAny        Relationship = "ANY"
)

// Action enumerates everything the engine can be asked to do.
type Action string

const (
	ActionCreate           Action = "create"
	ActionView             Action = "view"
	ActionComment          Action = "comment"
	ActionInternalComment  Action = "internal_comment"
	ActionStart            Action = "start"           // open -> in_progress
	ActionResolve          Action = "resolve"         // in_progress -> resolved
	ActionClose            Action = "close"           // resolved -> closed
	ActionReopenResolved   Action = "reopen_resolved" // resolved -> open
	ActionReopenClosed     Action = "reopen_closed"   // closed -> open
	ActionAssign           Action = "assign"
	ActionChangePriority   Action = "change_priority"
	ActionAttach           Action = "attach"
	ActionDeleteAttachment Action = "delete_attachment"
	ActionDeleteTicket     Action = "delete_ticket"
)

// Decision is the capability table's verdict, with a reason suitable
// for surfacing on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

type capKey struct {
	role   domain.Role
	action Action
}

// capabilityTable maps (role, action) to the ticket relationships the
// action is permitted under. This is the single authorization source
// for the lifecycle engine: every action is checked here exactly once,
// before any state is touched.
var capabilityTable = map[capKey][]Relationship{
	// Requesters act on their own tickets only.
	{domain.RoleRequester, ActionCreate}:         {RelationAny},
	{domain.RoleRequester, ActionView}:           {RelationRequester},
	{domain.RoleRequester, ActionComment}:        {RelationRequester},
	{domain.RoleRequester, ActionAttach}:         {RelationRequester},
	{domain.RoleRequester, ActionClose}:          {RelationRequester},
	{domain.RoleRequester, ActionReopenResolved}: {RelationRequester},

	// Agents work tickets assigned to them plus the unassigned queue.
	{domain.RoleAgent, ActionView}:            {RelationAssignee, RelationUnassigned},
	{domain.RoleAgent, ActionComment}:         {RelationAssignee, RelationUnassigned},
	{domain.RoleAgent, ActionInternalComment}: {RelationAssignee, RelationUnassigned},
	{domain.RoleAgent, ActionAttach}:          {RelationAssignee, RelationUnassigned},
	{domain.RoleAgent, ActionStart}:           {RelationAssignee, RelationUnassigned},
	{domain.RoleAgent, ActionResolve}:         {RelationAssignee},
	{domain.RoleAgent, ActionAssign}:          {RelationAssignee, RelationUnassigned},
	{domain.RoleAgent, ActionChangePriority}:  {RelationAny},

	// Admins may do everything regardless of relationship.
	{domain.RoleAdmin, ActionCreate}:           {RelationAny},
	{domain.RoleAdmin, ActionView}:             {RelationAny},
	{domain.RoleAdmin, ActionComment}:          {RelationAny},
	{domain.RoleAdmin, ActionInternalComment}:  {RelationAny},
	{domain.RoleAdmin, ActionStart}:            {RelationAny},
	{domain.RoleAdmin, ActionResolve}:          {RelationAny},
	{domain.RoleAdmin, ActionClose}:            {RelationAny},
	{domain.RoleAdmin, ActionReopenResolved}:   {RelationAny},
	{domain.RoleAdmin, ActionReopenClosed}:     {RelationAny},
	{domain.RoleAdmin, ActionAssign}:           {RelationAny},
	{domain.RoleAdmin, ActionChangePriority}:   {RelationAny},
	{domain.RoleAdmin, ActionAttach}:           {RelationAny},
	{domain.RoleAdmin, ActionDeleteAttachment}: {RelationAny},
	{domain.RoleAdmin, ActionDeleteTicket}:     {RelationAny},
}

// RelationshipsOf derives the actor's relationships to a ticket. A nil
// ticket (creation) yields no relationships; RelationAny always matches
// regardless.
func RelationshipsOf(actor *domain.User, ticket *domain.Ticket) []Relationship {
	if actor == nil || ticket == nil {
		return nil
	}
	var rels []Relationship
	if ticket.IsRequester(actor.ID) {
		rels = append(rels, RelationRequester)
	}
	if ticket.IsAssignee(actor.ID) {
		rels = append(rels, RelationAssignee)
	}
	if ticket.AssigneeID == nil {
		rels = append(rels, RelationUnassigned)
	}
	return rels
}

// Allow consults the capability table once for the given action.
func Allow(role domain.Role, rels []Relationship, action Action) Decision {
	allowed, ok := capabilityTable[capKey{role: role, action: action}]
	if !ok {
		return Decision{Reason: fmt.Sprintf("role %s may not %s", role, action)}
	}
	for _, want := range allowed {
		if want == RelationAny {
			return Decision{Allowed: true}
		}
		for _, have := range rels {
			if have == want {
				return Decision{Allowed: true}
			}
		}
	}
	return Decision{Reason: fmt.Sprintf("role %s may only %s tickets they are related to", role, action)}
}
