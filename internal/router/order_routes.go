package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dhaqane/shop-backend/internal/handler"
)

// RegisterOrders registers order and shopping cart endpoints.  Every
// route needs a token; ownership checks live in the handlers.
func RegisterOrders(api *echo.Group, h *handler.OrderHandler, cart *handler.CartHandler, o Options) {
	ord := api.Group("/order")
	ord.POST("/createOrder", h.Create, o.authenticated()...)
	ord.GET("/getOrders", h.List, o.admin()...)
	ord.GET("/getAllOrders", h.List, o.admin()...)
	ord.GET("/getUserOrder/:id", h.ListForUser, o.authenticated()...)
	ord.GET("/getOrderById/:id", h.Get, o.authenticated()...)
	ord.PUT("/updateOrder/:id", h.Update, o.admin()...)
	ord.DELETE("/deleteOrderById/:id", h.Delete, o.admin()...)

	sh := api.Group("/shoping", o.authenticated()...)
	sh.POST("/createShoping", cart.Create)
	sh.GET("/getAllShopping", cart.List)
	sh.PUT("/updateShopping/:id", cart.Update)
	sh.DELETE("/DeleteShopping/:id", cart.Delete)
}
