package domain

import "time"

// Comment is a discussion entry on a ticket, optionally carrying a file.
type Comment struct {
	ID             string
	TicketID       string
	UserID         string
	Body           string
	AttachmentPath *string
	AttachmentName *string
	CreatedAt      time.Time
}
