package service

import (
	"context"
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/events"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// MonitoringBuckets partitions development-phase tickets. The two buckets are
// mutually exclusive: a ticket moves between them purely by its development
// status changing, with no approval-chain transition.
type MonitoringBuckets struct {
	InProgress []domain.Ticket
	Completed  []domain.Ticket
}

// MonitoringService covers the post-approval development workflow.
type MonitoringService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	policy     PolicyProvider
}

// MonitoringDependencies bundles collaborators.
type MonitoringDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Policy     PolicyProvider
}

// NewMonitoringService constructs the service.
func NewMonitoringService(deps MonitoringDependencies) *MonitoringService {
	return &MonitoringService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
	}
}

// IsCompleted reports membership in the completed bucket: done, or approved_b
// with development at or past the release gate.
func IsCompleted(t *domain.Ticket) bool {
	if t.Status == domain.StatusDone {
		return true
	}
	return t.Status == domain.StatusApprovedB && t.ReadyForRelease()
}

// IsInProgress reports membership in the in-progress bucket: approved_b with
// development unset or below the release gate.
func IsInProgress(t *domain.Ticket) bool {
	if t.Status != domain.StatusApprovedB {
		return false
	}
	return t.DevelopmentStatus == nil || *t.DevelopmentStatus < domain.DevStatusReadyRelease
}

// Classify partitions tickets into the monitoring buckets. Tickets still in
// the sign-off phase fall into neither bucket.
func Classify(tickets []domain.Ticket) MonitoringBuckets {
	buckets := MonitoringBuckets{
		InProgress: []domain.Ticket{},
		Completed:  []domain.Ticket{},
	}
	for i := range tickets {
		switch {
		case IsInProgress(&tickets[i]):
			buckets.InProgress = append(buckets.InProgress, tickets[i])
		case IsCompleted(&tickets[i]):
			buckets.Completed = append(buckets.Completed, tickets[i])
		}
	}
	return buckets
}

// ListMonitoring returns both buckets scoped to the actor's visibility.
func (s *MonitoringService) ListMonitoring(ctx context.Context, actor *domain.User, limit, offset int) (*MonitoringBuckets, error) {
	base := repository.TicketFilter{Limit: limit, Offset: offset}
	if err := s.applyScope(&base, actor); err != nil {
		return nil, err
	}

	active := base
	active.ActiveDevelopment = true
	inProgress, err := s.tickets.ListWithFilter(ctx, active)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	done := base
	done.CompletedDevelopment = true
	completed, err := s.tickets.ListWithFilter(ctx, done)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &MonitoringBuckets{InProgress: inProgress, Completed: completed}, nil
}

// SetPriority changes a ticket's urgency. Only an admin or the Jangmed
// manager may do it, only once the ticket is in the development phase, and a
// completed ticket's priority is frozen while the lock policy is on.
func (s *MonitoringService) SetPriority(ctx context.Context, actor *domain.User, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if !canSetPriority(actor) {
		return nil, apperrors.NewForbidden("akses tidak diizinkan")
	}
	switch priority {
	case domain.PriorityNormal, domain.PriorityMedium, domain.PriorityUrgent:
	default:
		return nil, apperrors.NewValidationError("prioritas tidak dikenali", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Stage() != domain.StageDevelopment {
		return nil, apperrors.NewValidationError("pengajuan belum masuk tahap pengerjaan", nil)
	}
	if s.policy().LockCompletedPriority && IsCompleted(ticket) {
		return nil, apperrors.NewConflict("prioritas pengajuan selesai tidak dapat diubah", nil)
	}

	oldPriority := ticket.Priority
	if err := s.tickets.UpdatePriority(ctx, ticket.ID, priority); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Priority = priority

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventPriorityChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.PriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: priority,
		},
	})
	return ticket, nil
}

// SetDevelopmentStatus advances the build-progress axis. Admin only; the
// ticket must already be through the sign-off chain.
func (s *MonitoringService) SetDevelopmentStatus(ctx context.Context, actor *domain.User, ticketID string, status domain.DevelopmentStatus) (*domain.Ticket, error) {
	if !isAdmin(actor) {
		return nil, apperrors.NewForbidden("akses tidak diizinkan")
	}
	if status < domain.DevStatusAnalysis || status > domain.DevStatusReadyRelease {
		return nil, apperrors.NewValidationError("status pengerjaan tidak dikenali", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Stage() != domain.StageDevelopment {
		return nil, apperrors.NewValidationError("pengajuan belum masuk tahap pengerjaan", nil)
	}

	oldStatus := ticket.DevelopmentStatus
	if err := s.tickets.UpdateDevelopmentStatus(ctx, ticket.ID, status); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.DevelopmentStatus = &status

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventDevelopmentStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.DevelopmentStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return ticket, nil
}

// SetReleaseInfo records the release outcome once development reaches the
// gate, then closes the ticket out.
func (s *MonitoringService) SetReleaseInfo(ctx context.Context, actor *domain.User, ticketID string, status domain.ReleaseStatus) (*domain.Ticket, error) {
	if !isAdmin(actor) {
		return nil, apperrors.NewForbidden("akses tidak diizinkan")
	}
	if status != domain.ReleaseStatusUnused && status != domain.ReleaseStatusInUse {
		return nil, apperrors.NewValidationError("status rilis tidak dikenali", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ticket.ReadyForRelease() {
		return nil, apperrors.NewValidationError("pengerjaan belum siap rilis", nil)
	}

	now := time.Now()
	if err := s.tickets.UpdateRelease(ctx, ticket.ID, status, now, actor.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Status == domain.StatusApprovedB {
		if err := s.tickets.MarkDone(ctx, ticket.ID); err == nil {
			ticket.Status = domain.StatusDone
		}
	}
	ticket.ReleaseStatus = &status
	ticket.ReleaseDate = &now
	ticket.ReleaseSetBy = &actor.ID

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketReleased,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketReleasedPayload{
			ReleaseStatus: status,
		},
	})
	return ticket, nil
}

func (s *MonitoringService) applyScope(filter *repository.TicketFilter, actor *domain.User) error {
	role, ok := domain.RoleFromMixed(actor.Role)
	if !ok {
		return apperrors.NewForbidden("akses tidak diizinkan")
	}
	switch role {
	case domain.RoleRequester:
		filter.RequesterID = &actor.ID
	case domain.RoleManager:
		if actor.ManagerCategory == nil {
			// Empty predicate: match nothing.
			never := domain.ManagerCategory(-1)
			filter.ManagerCategory = &never
			return nil
		}
		filter.ManagerCategory = actor.ManagerCategory
	case domain.RoleDirectorA, domain.RoleDirectorB, domain.RoleAdmin:
		// Monitoring covers only post-approval tickets; director scoping does
		// not apply here.
	}
	return nil
}

func canSetPriority(actor *domain.User) bool {
	role, ok := domain.RoleFromMixed(actor.Role)
	if !ok {
		return false
	}
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return actor.ManagerCategory != nil && *actor.ManagerCategory == domain.CategoryJangmed
	default:
		return false
	}
}
