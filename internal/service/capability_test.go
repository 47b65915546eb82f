package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itops/support-portal/internal/domain"
)

func TestAllow(t *testing.T) {
	tests := []struct {
		name   string
		role   domain.Role
		rels   []Relationship
		action Action
		want   bool
	}{
		{"requester creates", domain.RoleRequester, nil, ActionCreate, true},
		{"requester views own", domain.RoleRequester, []Relationship{RelationRequester}, ActionView, true},
		{"requester views foreign", domain.RoleRequester, nil, ActionView, false},
		{"requester closes own", domain.RoleRequester, []Relationship{RelationRequester}, ActionClose, true},
		{"requester reopens own resolved", domain.RoleRequester, []Relationship{RelationRequester}, ActionReopenResolved, true},
		{"requester never reopens closed", domain.RoleRequester, []Relationship{RelationRequester}, ActionReopenClosed, false},
		{"requester never starts", domain.RoleRequester, []Relationship{RelationRequester}, ActionStart, false},
		{"requester never comments internally", domain.RoleRequester, []Relationship{RelationRequester}, ActionInternalComment, false},
		{"requester never changes priority", domain.RoleRequester, []Relationship{RelationRequester}, ActionChangePriority, false},

		{"agent starts unassigned", domain.RoleAgent, []Relationship{RelationUnassigned}, ActionStart, true},
		{"agent resolves own assignment", domain.RoleAgent, []Relationship{RelationAssignee}, ActionResolve, true},
		{"agent cannot resolve foreign assignment", domain.RoleAgent, nil, ActionResolve, false},
		{"agent cannot close", domain.RoleAgent, []Relationship{RelationAssignee}, ActionClose, false},
		{"agent changes priority anywhere", domain.RoleAgent, nil, ActionChangePriority, true},
		{"agent cannot delete tickets", domain.RoleAgent, []Relationship{RelationAssignee}, ActionDeleteTicket, false},
		{"agent cannot delete attachments", domain.RoleAgent, []Relationship{RelationAssignee}, ActionDeleteAttachment, false},

		{"admin reopens closed", domain.RoleAdmin, nil, ActionReopenClosed, true},
		{"admin deletes tickets", domain.RoleAdmin, nil, ActionDeleteTicket, true},
		{"admin assigns anywhere", domain.RoleAdmin, nil, ActionAssign, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Allow(tc.role, tc.rels, tc.action)
			assert.Equal(t, tc.want, decision.Allowed)
			if !tc.want {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestRelationshipsOf(t *testing.T) {
	requester := &domain.User{ID: "u1", Role: domain.RoleRequester}
	agent := &domain.User{ID: "u2", Role: domain.RoleAgent}
	agentID := agent.ID

	unassigned := &domain.Ticket{RequesterID: "u1"}
	assigned := &domain.Ticket{RequesterID: "u1", AssigneeID: &agentID}

	assert.ElementsMatch(t,
		[]Relationship{RelationRequester, RelationUnassigned},
		RelationshipsOf(requester, unassigned))
	assert.ElementsMatch(t,
		[]Relationship{RelationRequester},
		RelationshipsOf(requester, assigned))
	assert.ElementsMatch(t,
		[]Relationship{RelationAssignee},
		RelationshipsOf(agent, assigned))
	assert.Empty(t, RelationshipsOf(agent, &domain.Ticket{RequesterID: "u9", AssigneeID: stringPtr("u3")}))
	assert.Nil(t, RelationshipsOf(nil, assigned))
	assert.Nil(t, RelationshipsOf(requester, nil))
}

func stringPtr(s string) *string { return &s }
