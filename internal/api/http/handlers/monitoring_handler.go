package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/api/dto"
	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/export"
	"github.com/Dwisantra/simpefov2/internal/service"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// MonitoringHandler exposes the development-phase endpoints.
type MonitoringHandler struct {
	monitoring *service.MonitoringService
	policy     service.PolicyProvider
}

// NewMonitoringHandler constructs handler.
func NewMonitoringHandler(monitoring *service.MonitoringService, policy service.PolicyProvider) *MonitoringHandler {
	return &MonitoringHandler{monitoring: monitoring, policy: policy}
}

// List handles GET /monitoring.
func (h *MonitoringHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	buckets, err := h.monitoring.ListMonitoring(c.Context(), principal.User, limit, offset)
	if err != nil {
		return err
	}
	policy := h.policy()
	return c.JSON(fiber.Map{"data": dto.MonitoringResponse{
		InProgress: dto.FromTickets(buckets.InProgress, policy),
		Completed:  dto.FromTickets(buckets.Completed, policy),
	}})
}

// SetPriority handles PUT /monitoring/:id/priority.
func (h *MonitoringHandler) SetPriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.monitoring.SetPriority(c.Context(), principal.User, c.Params("id"), domain.TicketPriority(req.Priority))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, h.policy())})
}

// SetDevelopmentStatus handles PUT /monitoring/:id/development-status.
func (h *MonitoringHandler) SetDevelopmentStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.DevelopmentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.monitoring.SetDevelopmentStatus(c.Context(), principal.User, c.Params("id"), domain.DevelopmentStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, h.policy())})
}

// SetRelease handles PUT /monitoring/:id/release.
func (h *MonitoringHandler) SetRelease(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ReleaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.monitoring.SetReleaseInfo(c.Context(), principal.User, c.Params("id"), domain.ReleaseStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, h.policy())})
}

// Export handles GET /monitoring/export as an Excel download.
func (h *MonitoringHandler) Export(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	buckets, err := h.monitoring.ListMonitoring(c.Context(), principal.User, 1000, 0)
	if err != nil {
		return err
	}
	tickets := append(buckets.InProgress, buckets.Completed...)

	workbook, err := export.BuildTicketWorkbook(tickets, h.policy())
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+export.ExportFilename(time.Now())+`"`)
	return workbook.Write(c.Response().BodyWriter())
}
