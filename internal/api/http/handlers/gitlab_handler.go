package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/api/dto"
	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/service"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// GitlabHandler exposes the issue-sync endpoints.
type GitlabHandler struct {
	gitlab *service.GitlabService
	policy service.PolicyProvider
}

// NewGitlabHandler constructs handler.
func NewGitlabHandler(gitlab *service.GitlabService, policy service.PolicyProvider) *GitlabHandler {
	return &GitlabHandler{gitlab: gitlab, policy: policy}
}

// CreateIssue handles POST /feature-requests/:id/gitlab-issue (admin).
func (h *GitlabHandler) CreateIssue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := h.gitlab.CreateIssueForTicket(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket, h.policy())})
}

// Webhook handles POST /webhooks/gitlab. Authenticated by the shared webhook
// token header, not by a user session.
func (h *GitlabHandler) Webhook(c *fiber.Ctx) error {
	var payload service.WebhookIssue
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.gitlab.HandleWebhook(c.Context(), c.Get("X-Gitlab-Token"), payload); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "ok"})
}
