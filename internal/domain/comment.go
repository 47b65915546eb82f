package domain

import "time"

// Comment is a message on a ticket. Internal comments are visible to
// agents and admins only.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	Internal  bool
	CreatedAt time.Time
}
