package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dhaqane/shop-backend/internal/handler"
)

// RegisterUsers registers account endpoints under /api/user.  Registration,
// login and the passcode flows are public; the rest need a token.
func RegisterUsers(api *echo.Group, u *handler.UserHandler, o Options) {
	g := api.Group("/user")
	g.POST("/createUser", u.Register, o.public()...)
	g.POST("/verifyOTP", u.VerifyOTP, o.public()...)
	g.POST("/GetUser", u.Login, o.public()...)
	g.POST("/forgotPassword", u.ForgotPassword, o.public()...)
	g.POST("/resetPassword", u.ResetPassword, o.public()...)

	g.GET("/me", u.Me, o.authenticated()...)
	// self-or-admin is checked in the handler
	g.PUT("/UpdateUser/:id", u.Update, o.authenticated()...)
	g.PATCH("/UpdateUser/:id", u.Update, o.authenticated()...)

	g.GET("/getAllUsers", u.List, o.admin()...)
	g.DELETE("/DeleteUser/:id", u.Delete, o.admin()...)
}
