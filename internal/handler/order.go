package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
	"github.com/dhaqane/shop-backend/internal/service"
)

// OrderPlacer runs the order workflow.
type OrderPlacer interface {
	Place(ctx context.Context, in service.PlaceOrderInput) (*model.Order, error)
}

// OrderStore is the read and admin side of the orders collection.
type OrderStore interface {
	FindAll(ctx context.Context) ([]model.OrderDetail, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]model.OrderDetail, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.OrderDetail, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.OrderPatch) (*model.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OrderHandler exposes order placement and order reads.
type OrderHandler struct {
	Workflow OrderPlacer
	Orders   OrderStore
}

func NewOrderHandler(w OrderPlacer, s OrderStore) *OrderHandler {
	return &OrderHandler{Workflow: w, Orders: s}
}

type createOrderReq struct {
	User     string              `json:"user"`
	Payment  string              `json:"payment"`
	Category string              `json:"category"`
	Products []service.LineInput `json:"products"`
	Total    *float64            `json:"total"`
	Note     string              `json:"note"`
	Phone    string              `json:"phone"`
}

// Create places an order.  The caller comes from the verified token; a
// body user naming someone else requires the admin role.
func (h *OrderHandler) Create(c echo.Context) error {
	caller, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "invalid token")
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	// The workflow enforces its own gateway timeout; only the client
	// disconnecting cancels it early.
	o, err := h.Workflow.Place(c.Request().Context(), service.PlaceOrderInput{
		Caller:        caller,
		CallerIsAdmin: middleware.IsAdmin(c),
		User:          req.User,
		Payment:       req.Payment,
		Category:      req.Category,
		Products:      req.Products,
		Total:         req.Total,
		Note:          req.Note,
		Phone:         req.Phone,
	})
	if err != nil {
		return orderError(c, err)
	}
	return created(c, "Order created successfully", o)
}

// orderError translates a workflow rejection into its HTTP answer.
func orderError(c echo.Context, err error) error {
	var verr *service.ValidationError
	var perr *service.PaymentError
	switch {
	case errors.As(err, &verr):
		if verr.NotFound {
			return fail(c, http.StatusNotFound, verr.Reason)
		}
		return fail(c, http.StatusBadRequest, verr.Reason)
	case errors.As(err, &perr):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "status": "failed", "message": perr.Reason})
	case errors.Is(err, service.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	}
	return internalError(c, "place order", err)
}

// List returns every order with its references resolved (admin).  The
// body is a bare array.
func (h *OrderHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	orders, err := h.Orders.FindAll(ctx)
	if err != nil {
		return internalError(c, "list orders", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// ListForUser returns the orders of user :id as a bare array.  Callers
// may read their own orders; admins may read anyone's.
func (h *OrderHandler) ListForUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "User not found")
	}
	caller, _ := middleware.UserID(c)
	if caller != id && !middleware.IsAdmin(c) {
		return fail(c, http.StatusForbidden, "forbidden")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	orders, err := h.Orders.FindByUser(ctx, id)
	if err != nil {
		return internalError(c, "list user orders", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get returns one populated order to its purchaser or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Order not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	o, err := h.Orders.FindByID(ctx, id)
	if err != nil {
		return storeError(c, "get order", err, repository.ErrOrderNotFound, "Order not found")
	}
	if !middleware.IsAdmin(c) {
		caller, _ := middleware.UserID(c)
		if o.User == nil || o.User.ID != caller {
			return fail(c, http.StatusForbidden, "forbidden")
		}
	}
	return list(c, o)
}

// Update applies an admin's partial update of status, note or phone.
func (h *OrderHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Order not found")
	}
	var p model.OrderPatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if p.Status != nil && !model.ValidOrderStatus(*p.Status) {
		return fail(c, http.StatusBadRequest, "invalid order status")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	o, err := h.Orders.Update(ctx, id, p)
	if err != nil {
		return storeError(c, "update order", err, repository.ErrOrderNotFound, "Order not found")
	}
	return success(c, "Order updated successfully", o)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Order not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Orders.Delete(ctx, id); err != nil {
		return storeError(c, "delete order", err, repository.ErrOrderNotFound, "Order not found")
	}
	return success(c, "Order deleted successfully", nil)
}
