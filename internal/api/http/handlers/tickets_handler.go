package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/api/dto"
	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/service"
	"github.com/Dwisantra/simpefov2/internal/storage"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// TicketsHandler exposes the feature-request endpoints.
type TicketsHandler struct {
	tickets   *service.TicketService
	approvals *service.ApprovalService
	store     *storage.AttachmentStore
	policy    service.PolicyProvider
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, approvals *service.ApprovalService, store *storage.AttachmentStore, policy service.PolicyProvider) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, approvals: approvals, store: store, policy: policy}
}

// Submit handles POST /feature-requests. Accepts multipart form data with an
// optional attachment file.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Title == "" {
		return apperrors.NewValidationError("judul wajib diisi", nil)
	}

	input := service.SubmitInput{
		Title:        req.Title,
		Description:  req.Description,
		RequestTypes: parseRequestTypes(req.RequestTypes),
		Priority:     domain.TicketPriority(req.Priority),
		SignCode:     req.SignCode,
	}

	if file, err := c.FormFile("attachment"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		defer src.Close()
		path, err := h.store.Save(file.Filename, src)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		name := file.Filename
		input.AttachmentPath = &path
		input.AttachmentName = &name
	}

	ticket, err := h.tickets.SubmitTicket(c.Context(), principal.User, input)
	if err != nil {
		if input.AttachmentPath != nil {
			_ = h.store.Remove(*input.AttachmentPath)
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.FromTicket(ticket, h.policy()),
	})
}

// List handles GET /feature-requests?stage=submission|development.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	stage := domain.WorkflowStage(c.Query("stage", string(domain.StageSubmission)))
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	tickets, err := h.tickets.ListTickets(c.Context(), principal.User, stage, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets, h.policy())})
}

// Get handles GET /feature-requests/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	detail, err := h.tickets.GetTicket(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicketDetail(detail, h.policy())})
}

// Approve handles POST /feature-requests/:id/approve.
func (h *TicketsHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.approvals.Approve(c.Context(), principal.User, service.ApproveInput{
		TicketID: c.Params("id"),
		SignCode: req.SignCode,
		Note:     req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, h.policy())})
}

// AddComment handles POST /feature-requests/:id/comments with an optional
// multipart attachment.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	var attachmentPath, attachmentName *string
	if file, err := c.FormFile("attachment"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		defer src.Close()
		path, err := h.store.Save(file.Filename, src)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		name := file.Filename
		attachmentPath = &path
		attachmentName = &name
	}

	comment, err := h.tickets.AddComment(c.Context(), principal.User, c.Params("id"), req.Body, attachmentPath, attachmentName)
	if err != nil {
		if attachmentPath != nil {
			_ = h.store.Remove(*attachmentPath)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         comment.ID,
		"body":       comment.Body,
		"created_at": comment.CreatedAt,
	}})
}

// DownloadAttachment handles GET /feature-requests/:id/attachment.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	relPath, name, err := h.tickets.ResolveAttachment(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	fullPath, err := h.store.FullPath(relPath)
	if err != nil {
		return apperrors.NewNotFound("attachment", nil)
	}
	if name != "" {
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	}
	return c.SendFile(fullPath)
}

// Update handles PUT /feature-requests/:id (admin).
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.UpdateTicket(c.Context(), principal.User, c.Params("id"), req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, h.policy())})
}

// Delete handles DELETE /feature-requests/:id (admin).
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tickets.DeleteTicket(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseRequestTypes(values []string) []domain.RequestType {
	out := make([]domain.RequestType, 0, len(values))
	for _, v := range values {
		out = append(out, domain.RequestType(v))
	}
	return out
}
