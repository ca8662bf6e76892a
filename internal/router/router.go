package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dhaqane/shop-backend/internal/handler"
	"github.com/dhaqane/shop-backend/internal/middleware"
)

// Handlers bundles the handler sets the route tables are built from.
type Handlers struct {
	Health   *handler.HealthHandler
	Users    *handler.UserHandler
	Catalog  *handler.CatalogHandler
	Payments *handler.PaymentMethodHandler
	Content  *handler.ContentHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
}

// Options carries the middleware routes are composed with.  Cache wraps
// public catalog reads; Invalidate wraps catalog writes.  RateLimit runs
// after the guards so an authenticated caller is limited by user id.  Any
// of the three may be nil.  Metrics, when set, is served at /metrics.
type Options struct {
	Guards     middleware.Guards
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
	Metrics    http.Handler
}

// limited appends the rate limiter to mw.
func (o Options) limited(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := append([]echo.MiddlewareFunc{}, mw...)
	if o.RateLimit != nil {
		out = append(out, o.RateLimit)
	}
	return out
}

func (o Options) public() []echo.MiddlewareFunc { return o.limited() }

func (o Options) authenticated() []echo.MiddlewareFunc {
	return o.limited(o.Guards.Authenticated...)
}

func (o Options) admin() []echo.MiddlewareFunc { return o.limited(o.Guards.Admin...) }

func (o Options) cached() []echo.MiddlewareFunc {
	mw := o.public()
	if o.Cache != nil {
		mw = append(mw, o.Cache)
	}
	return mw
}

// adminWrite is the admin guard followed by cache invalidation.
func (o Options) adminWrite() []echo.MiddlewareFunc {
	mw := o.admin()
	if o.Invalidate != nil {
		mw = append(mw, o.Invalidate)
	}
	return mw
}

// RegisterRoutes wires every route table onto e.
func RegisterRoutes(e *echo.Echo, h Handlers, o Options) {
	e.GET("/healthz", h.Health.Health)
	if o.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(o.Metrics))
	}

	api := e.Group("/api")
	RegisterUsers(api, h.Users, o)
	RegisterCatalog(api, h.Catalog, h.Payments, o)
	RegisterContent(api, h.Content, o)
	RegisterOrders(api, h.Orders, h.Cart, o)
}
