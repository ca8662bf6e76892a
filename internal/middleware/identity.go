package middleware

import "github.com/labstack/echo/v4"

// identityKey returns the caller's user id for rate limiting, or "anon"
// for requests that carry no verified identity.
func identityKey(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
