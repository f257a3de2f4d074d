package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/api/dto"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/service"
)

// UnitsHandler exposes unit listing and admin CRUD.
type UnitsHandler struct {
	units *service.UnitService
}

// NewUnitsHandler constructs handler.
func NewUnitsHandler(units *service.UnitService) *UnitsHandler {
	return &UnitsHandler{units: units}
}

// ListActive handles GET /units. Public: the registration form needs it
// before any account exists.
func (h *UnitsHandler) ListActive(c *fiber.Ctx) error {
	units, err := h.units.ListActiveUnits(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUnits(units)})
}

// List handles GET /admin/units.
func (h *UnitsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	units, err := h.units.ListUnits(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUnits(units)})
}

// Create handles POST /admin/units.
func (h *UnitsHandler) Create(c *fiber.Ctx) error {
	var req dto.UnitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	unit, err := h.units.CreateUnit(c.Context(), unitInputFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromUnit(unit)})
}

// Update handles PUT /admin/units/:id.
func (h *UnitsHandler) Update(c *fiber.Ctx) error {
	var req dto.UnitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	unit, err := h.units.UpdateUnit(c.Context(), c.Params("id"), unitInputFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUnit(unit)})
}

// Delete handles DELETE /admin/units/:id.
func (h *UnitsHandler) Delete(c *fiber.Ctx) error {
	if err := h.units.DeleteUnit(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func unitInputFromRequest(req dto.UnitRequest) service.UnitInput {
	input := service.UnitInput{
		Name:         req.Name,
		Organization: domain.Organization(req.Organization),
		IsActive:     true,
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	if req.ManagerCategory != nil {
		category := domain.ManagerCategory(*req.ManagerCategory)
		input.ManagerCategory = &category
	}
	return input
}
