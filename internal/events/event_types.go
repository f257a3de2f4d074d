package events

import (
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted          EventType = "ticket_submitted"
	EventStageApproved            EventType = "stage_approved"
	EventPriorityChanged          EventType = "priority_changed"
	EventDevelopmentStatusChanged EventType = "development_status_changed"
	EventTicketReleased           EventType = "ticket_released"
	EventUserVerified             EventType = "user_verified"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	Title        string                  `json:"title"`
	Organization domain.Organization     `json:"organization"`
	Category     *domain.ManagerCategory `json:"manager_category,omitempty"`
	Priority     domain.TicketPriority   `json:"priority"`
}

// StageApprovedPayload payload.
type StageApprovedPayload struct {
	OldStatus domain.ApprovalStatus `json:"old_status"`
	NewStatus domain.ApprovalStatus `json:"new_status"`
	Role      domain.Role           `json:"role"`
	Completed bool                  `json:"completed"`
}

// PriorityChangedPayload payload.
type PriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// DevelopmentStatusChangedPayload payload.
type DevelopmentStatusChangedPayload struct {
	OldStatus *domain.DevelopmentStatus `json:"old_status,omitempty"`
	NewStatus domain.DevelopmentStatus  `json:"new_status"`
}

// TicketReleasedPayload payload.
type TicketReleasedPayload struct {
	ReleaseNote   *string              `json:"release_note,omitempty"`
	ReleaseStatus domain.ReleaseStatus `json:"release_status"`
}

// UserVerifiedPayload payload.
type UserVerifiedPayload struct {
	VerifiedUserID string      `json:"verified_user_id"`
	Role           domain.Role `json:"role"`
}
