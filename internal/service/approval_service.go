package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/events"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// PolicyProvider supplies the current workflow policy. It is called on every
// decision so toggling a flag reroutes in-flight tickets without a restart.
type PolicyProvider func() domain.WorkflowPolicy

// ApprovalService runs the sign-off chain.
type ApprovalService struct {
	tickets    repository.TicketRepository
	approvals  repository.ApprovalRepository
	units      repository.UnitRepository
	dispatcher events.Dispatcher
	policy     PolicyProvider
}

// ApprovalDependencies bundles collaborators for the approval service.
type ApprovalDependencies struct {
	TicketRepo   repository.TicketRepository
	ApprovalRepo repository.ApprovalRepository
	UnitRepo     repository.UnitRepository
	Dispatcher   events.Dispatcher
	Policy       PolicyProvider
}

// ApproveInput describes an approval attempt.
type ApproveInput struct {
	TicketID string
	SignCode string
	Note     *string
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	return &ApprovalService{
		tickets:    deps.TicketRepo,
		approvals:  deps.ApprovalRepo,
		units:      deps.UnitRepo,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
	}
}

// Approve records one stage sign-off and advances the ticket. Validation is
// fail-fast and ordered: sign code presence, sign code match, role parse,
// manager category scope, terminal check, turn check, duplicate check. The
// final insert-plus-advance is atomic; races surface as conflicts.
func (s *ApprovalService) Approve(ctx context.Context, actor *domain.User, input ApproveInput) (*domain.Ticket, error) {
	if actor.SignCodeHash == nil || *actor.SignCodeHash == "" {
		return nil, apperrors.NewValidationError("kode tanda tangan belum dibuat", nil)
	}
	if err := auth.CompareSignCode(*actor.SignCodeHash, input.SignCode); err != nil {
		return nil, apperrors.NewValidationError("kode tanda tangan salah", nil)
	}
	role, ok := domain.RoleFromMixed(actor.Role)
	if !ok {
		return nil, apperrors.NewValidationError("peran pengguna tidak dikenali", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if role == domain.RoleManager {
		if actor.ManagerCategory == nil {
			return nil, apperrors.NewForbidden("akses tidak diizinkan pada tahap ini")
		}
		ticketCategory, err := s.resolveTicketCategory(ctx, ticket)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if ticketCategory == nil || *ticketCategory != *actor.ManagerCategory {
			return nil, apperrors.NewForbidden("akses tidak diizinkan pada tahap ini")
		}
	}

	policy := s.policy()
	expected, ok := domain.ExpectedRole(ticket, policy)
	if !ok {
		return nil, apperrors.NewConflict("pengajuan sudah selesai diproses", nil)
	}
	if expected != role {
		// Never reveals which role is expected.
		return nil, apperrors.NewForbidden("akses tidak diizinkan pada tahap ini")
	}

	exists, err := s.approvals.ExistsForRole(ctx, ticket.ID, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("persetujuan sudah tercatat", nil)
	}

	nextStatus, ok := domain.NextStatus(ticket, role, policy)
	if !ok {
		return nil, apperrors.NewForbidden("akses tidak diizinkan pada tahap ini")
	}

	approval := &domain.Approval{
		TicketID:     ticket.ID,
		UserID:       actor.ID,
		Role:         role,
		SignCodeHash: *actor.SignCodeHash,
		Note:         input.Note,
	}
	if err := s.approvals.RecordAndAdvance(ctx, approval, ticket.Status, nextStatus); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateApproval):
			return nil, apperrors.NewConflict("persetujuan sudah tercatat", nil)
		case errors.Is(err, repository.ErrStageConflict):
			return nil, apperrors.NewConflict("status pengajuan berubah, muat ulang halaman", nil)
		default:
			return nil, apperrors.MapError(err)
		}
	}

	oldStatus := ticket.Status
	ticket.Status = nextStatus

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventStageApproved,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: role},
		Payload: events.StageApprovedPayload{
			OldStatus: oldStatus,
			NewStatus: nextStatus,
			Role:      role,
			Completed: nextStatus == domain.StatusApprovedB,
		},
	})
	return ticket, nil
}

// ListApprovals returns the audit trail for a ticket.
func (s *ApprovalService) ListApprovals(ctx context.Context, ticketID string) ([]repository.ApprovalWithUser, error) {
	entries, err := s.approvals.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// resolveTicketCategory returns the ticket's routing category, falling back to
// the requester unit's category when the ticket never got one.
func (s *ApprovalService) resolveTicketCategory(ctx context.Context, ticket *domain.Ticket) (*domain.ManagerCategory, error) {
	if ticket.ManagerCategory != nil {
		return ticket.ManagerCategory, nil
	}
	if ticket.RequesterUnitID == nil {
		return nil, nil
	}
	unit, err := s.units.GetByID(ctx, *ticket.RequesterUnitID)
	if err != nil {
		return nil, err
	}
	return unit.ManagerCategory, nil
}

func isAdmin(actor *domain.User) bool {
	role, ok := domain.RoleFromMixed(actor.Role)
	return ok && role == domain.RoleAdmin
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
