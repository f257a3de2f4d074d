package service

import (
	"context"
	"strings"

	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/events"
	"github.com/Dwisantra/simpefov2/internal/repository"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// AttachmentRemover deletes stored attachment files. Satisfied by
// storage.AttachmentStore.
type AttachmentRemover interface {
	Remove(relPath string) error
}

// TicketService coordinates submission, visibility and admin edits.
type TicketService struct {
	tickets     repository.TicketRepository
	approvals   repository.ApprovalRepository
	comments    repository.CommentRepository
	units       repository.UnitRepository
	attachments AttachmentRemover
	dispatcher  events.Dispatcher
	policy      PolicyProvider
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ApprovalRepo repository.ApprovalRepository
	CommentRepo  repository.CommentRepository
	UnitRepo     repository.UnitRepository
	Attachments  AttachmentRemover
	Dispatcher   events.Dispatcher
	Policy       PolicyProvider
}

// SubmitInput describes a new feature request.
type SubmitInput struct {
	Title          string
	Description    string
	RequestTypes   []domain.RequestType
	Priority       domain.TicketPriority
	SignCode       string
	AttachmentPath *string
	AttachmentName *string
}

// TicketDetail is a ticket with its audit trail and discussion.
type TicketDetail struct {
	Ticket    *domain.Ticket
	Approvals []repository.ApprovalWithUser
	Comments  []repository.CommentWithUser
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		approvals:   deps.ApprovalRepo,
		comments:    deps.CommentRepo,
		units:       deps.UnitRepo,
		attachments: deps.Attachments,
		dispatcher:  deps.Dispatcher,
		policy:      deps.Policy,
	}
}

// SubmitTicket creates a ticket for a verified requester. Organization and
// manager category are snapshotted from the requester's unit at this point
// and never recomputed afterwards.
func (s *TicketService) SubmitTicket(ctx context.Context, actor *domain.User, input SubmitInput) (*domain.Ticket, error) {
	role, ok := domain.RoleFromMixed(actor.Role)
	if !ok || role != domain.RoleRequester {
		return nil, apperrors.NewForbidden("hanya pemohon yang dapat membuat pengajuan")
	}
	if !actor.IsVerified() {
		return nil, apperrors.NewForbidden("akun belum diverifikasi")
	}
	if actor.UnitID == nil {
		return nil, apperrors.NewValidationError("akun belum terhubung ke unit", nil)
	}
	if actor.SignCodeHash == nil || *actor.SignCodeHash == "" {
		return nil, apperrors.NewValidationError("kode tanda tangan belum dibuat", nil)
	}
	if err := auth.CompareSignCode(*actor.SignCodeHash, input.SignCode); err != nil {
		return nil, apperrors.NewValidationError("kode tanda tangan salah", nil)
	}

	unit, err := s.units.GetByID(ctx, *actor.UnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		RequesterID:     actor.ID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Status:          domain.StatusPending,
		RequestTypes:    input.RequestTypes,
		RequesterOrg:    actor.Organization,
		RequesterUnitID: actor.UnitID,
		ManagerCategory: unit.ManagerCategory,
		Priority:        input.Priority,
		AttachmentPath:  input.AttachmentPath,
		AttachmentName:  input.AttachmentName,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.PriorityNormal
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	// The requester signs their own submission; the row completes the audit
	// trail but does not advance the chain.
	submission := &domain.Approval{
		TicketID:     ticket.ID,
		UserID:       actor.ID,
		Role:         domain.RoleRequester,
		SignCodeHash: *actor.SignCodeHash,
	}
	if err := s.approvals.Create(ctx, submission); err != nil {
		return nil, apperrors.MapError(err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: domain.RoleRequester},
		Payload: events.TicketSubmittedPayload{
			Title:        ticket.Title,
			Organization: ticket.RequesterOrg,
			Category:     ticket.ManagerCategory,
			Priority:     ticket.Priority,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the actor within a workflow stage.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, stage domain.WorkflowStage, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{Limit: limit, Offset: offset}

	switch stage {
	case domain.StageDevelopment:
		filter.Statuses = []domain.ApprovalStatus{domain.StatusApprovedB, domain.StatusDone}
	default:
		filter.Statuses = []domain.ApprovalStatus{
			domain.StatusPending, domain.StatusApprovedManager, domain.StatusApprovedA,
		}
	}

	role, ok := domain.RoleFromMixed(actor.Role)
	if !ok {
		return nil, apperrors.NewForbidden("akses tidak diizinkan")
	}
	switch role {
	case domain.RoleRequester:
		filter.RequesterID = &actor.ID
	case domain.RoleManager:
		// A manager without a category sees nothing rather than everything.
		if actor.ManagerCategory == nil {
			return []domain.Ticket{}, nil
		}
		filter.ManagerCategory = actor.ManagerCategory
	case domain.RoleDirectorA:
		if s.policy().SkipDirectorAForWiradadi {
			org := domain.OrgWiradadi
			filter.ExcludeOrganization = &org
		}
	case domain.RoleDirectorB, domain.RoleAdmin:
		// Unrestricted.
	}

	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches one ticket with its approvals and comments, applying the
// same visibility rules as listing.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.checkAccess(ctx, actor, ticket); err != nil {
		return nil, err
	}

	approvals, err := s.approvals.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetail{Ticket: ticket, Approvals: approvals, Comments: comments}, nil
}

// UpdateTicket lets an admin correct title and description.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID, title, description string) (*domain.Ticket, error) {
	if !isAdmin(actor) {
		return nil, apperrors.NewForbidden("akses tidak diizinkan")
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, apperrors.NewValidationError("judul wajib diisi", nil)
	}
	if err := s.tickets.UpdateContent(ctx, ticketID, title, description); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// DeleteTicket removes a ticket and cleans up its attachment files, including
// those on comments. Approval and comment rows go with the ticket via
// foreign-key cascade.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	if !isAdmin(actor) {
		return apperrors.NewForbidden("akses tidak diizinkan")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	commentPaths, err := s.comments.AttachmentPaths(ctx, ticket.ID)
	if err != nil {
		return apperrors.MapError(err)
	}

	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}

	if s.attachments != nil {
		if ticket.AttachmentPath != nil {
			_ = s.attachments.Remove(*ticket.AttachmentPath)
		}
		for _, path := range commentPaths {
			_ = s.attachments.Remove(path)
		}
	}
	return nil
}

// AddComment appends a discussion entry for anyone who can see the ticket.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string, attachmentPath, attachmentName *string) (*domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.checkAccess(ctx, actor, ticket); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" && attachmentPath == nil {
		return nil, apperrors.NewValidationError("komentar tidak boleh kosong", nil)
	}

	comment := &domain.Comment{
		TicketID:       ticket.ID,
		UserID:         actor.ID,
		Body:           body,
		AttachmentPath: attachmentPath,
		AttachmentName: attachmentName,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// ResolveAttachment returns the stored path and download name for a ticket's
// attachment, after the usual visibility check.
func (s *TicketService) ResolveAttachment(ctx context.Context, actor *domain.User, ticketID string) (path, name string, err error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return "", "", apperrors.MapError(err)
	}
	if err := s.checkAccess(ctx, actor, ticket); err != nil {
		return "", "", err
	}
	if ticket.AttachmentPath == nil {
		return "", "", apperrors.NewNotFound("attachment", nil)
	}
	name = ""
	if ticket.AttachmentName != nil {
		name = *ticket.AttachmentName
	}
	return *ticket.AttachmentPath, name, nil
}

// checkAccess mirrors the listing scope for single-ticket reads.
func (s *TicketService) checkAccess(ctx context.Context, actor *domain.User, ticket *domain.Ticket) error {
	role, ok := domain.RoleFromMixed(actor.Role)
	if !ok {
		return apperrors.NewForbidden("akses tidak diizinkan")
	}
	switch role {
	case domain.RoleRequester:
		if ticket.RequesterID != actor.ID {
			return apperrors.NewForbidden("akses tidak diizinkan")
		}
	case domain.RoleManager:
		if actor.ManagerCategory == nil {
			return apperrors.NewForbidden("akses tidak diizinkan")
		}
		category, err := s.resolveCategory(ctx, ticket)
		if err != nil {
			return apperrors.MapError(err)
		}
		if category == nil || *category != *actor.ManagerCategory {
			return apperrors.NewForbidden("akses tidak diizinkan")
		}
	case domain.RoleDirectorA:
		if s.policy().SkipDirectorAForWiradadi && ticket.RequesterOrg == domain.OrgWiradadi {
			return apperrors.NewForbidden("akses tidak diizinkan")
		}
	case domain.RoleDirectorB, domain.RoleAdmin:
		// Unrestricted.
	}
	return nil
}

func (s *TicketService) resolveCategory(ctx context.Context, ticket *domain.Ticket) (*domain.ManagerCategory, error) {
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
