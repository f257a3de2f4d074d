package domain

import "time"

// Approval is an append-only audit entry for one sign-off stage. At most one
// record may exist per (ticket, role); the approvals table enforces this with
// a unique index.
type Approval struct {
	ID       string
	TicketID string
	UserID   string
	Role     Role
	// SignCodeHash is a bcrypt hash of the PIN supplied for this approval,
	// never the user's login credential.
	SignCodeHash string
	Note         *string
	ApprovedAt   time.Time
}
