package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/itops/support-portal/internal/domain"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// RequireRole ensures the acting user holds one of the allowed roles.
// Fine-grained decisions stay with the capability table; this only
// gates whole route groups.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := ActingUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireStaff shortcuts the agent-or-admin guard.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleAgent, domain.RoleAdmin)
}
