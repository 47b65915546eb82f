package domain

import "time"

// Role enumerates what a user is allowed to be in the portal.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleAgent     Role = "AGENT"
	RoleAdmin     Role = "ADMIN"
)

// IsStaff reports whether the role belongs to the support side.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is the single identity model for requesters, agents and admins.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SystemActor is the synthetic identity used by scheduled jobs that
// call the lifecycle engine without a logged-in user. Its empty ID maps
// to a NULL actor in audit entries.
func SystemActor() *User {
	return &User{Name: "system", Role: RoleAdmin, Active: true}
}
