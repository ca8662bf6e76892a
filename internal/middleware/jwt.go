package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's identity claims into the request context.  Handlers
// read them back with UserID, Role and IsAdmin.  A missing token and an
// invalid one both answer 401, with different messages.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := utils.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, utils.ErrTokenMissing) {
					msg = "missing bearer token"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": msg})
			}
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextEmail, claims.Email)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}

// UserID returns the authenticated subject as an ObjectID.  ok is false
// when no identity was set or the subject is not a valid id.
func UserID(c echo.Context) (primitive.ObjectID, bool) {
	s, _ := c.Get(ContextUserID).(string)
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// Role returns the role claim, or "" for anonymous requests.
func Role(c echo.Context) string {
	r, _ := c.Get(ContextRole).(string)
	return r
}

func IsAdmin(c echo.Context) bool { return Role(c) == model.RoleAdmin }
