package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dhaqane/shop-backend/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// ran first and stored the role claim in the context.  Any other role, or
// none, is answered with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Guards bundles the two capability checks routes are composed from:
// Authenticated requires a valid token, Admin additionally requires the
// admin role.
type Guards struct {
	Authenticated []echo.MiddlewareFunc
	Admin         []echo.MiddlewareFunc
}

func NewGuards(secret string) Guards {
	auth := JWTAuth(secret)
	return Guards{
		Authenticated: []echo.MiddlewareFunc{auth},
		Admin:         []echo.MiddlewareFunc{auth, RequireRole(model.RoleAdmin)},
	}
}
