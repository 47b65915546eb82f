package domain

import "time"

// Attachment records an uploaded file tied to a ticket. The file bytes
// live in the file store under ContentRef; rows cascade away with their
// ticket.
type Attachment struct {
	ID         string
	TicketID   string
	FileName   string
	ContentRef string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
}
