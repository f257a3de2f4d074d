package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/api/dto"
	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/service"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// AdminUsersHandler exposes the admin account-management endpoints.
type AdminUsersHandler struct {
	users *service.UserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users *service.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// List handles GET /admin/users.
func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	users, err := h.users.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUsers(users)})
}

// Get handles GET /admin/users/:id.
func (h *AdminUsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(user)})
}

// Update handles PUT /admin/users/:id.
func (h *AdminUsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	input := service.UserUpdateInput{
		Name:      req.Name,
		Phone:     req.Phone,
		UnitID:    req.UnitID,
		ClearUnit: req.ClearUnit,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}
	if req.ManagerCategory != nil {
		category := domain.ManagerCategory(*req.ManagerCategory)
		input.ManagerCategory = &category
	}
	if req.Organization != nil {
		org := domain.Organization(*req.Organization)
		input.Organization = &org
	}

	user, err := h.users.UpdateUser(c.Context(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(user)})
}

// Verify handles POST /admin/users/:id/verify.
func (h *AdminUsersHandler) Verify(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.users.VerifyUser(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUser(user)})
}
