package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Dwisantra/simpefov2/internal/domain"
	apperrors "github.com/Dwisantra/simpefov2/pkg/util"
)

// RequireVerified rejects accounts that an admin has not verified yet.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsVerified() {
			return apperrors.NewForbidden("account not verified")
		}
		return c.Next()
	}
}

// RequireRole ensures the caller's role, parsed leniently, is one of the
// allowed roles. An unparseable role is an authorization failure, never a
// default.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		role, ok := domain.RoleFromMixed(principal.User.Role)
		if !ok {
			return apperrors.NewForbidden("not permitted")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[role]; !exists {
			return apperrors.NewForbidden("not permitted")
		}
		return c.Next()
	}
}

// RequireAdmin is shorthand for the admin-only guard.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
