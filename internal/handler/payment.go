package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
)

// PaymentMethodHandler manages the payment method reference data.
type PaymentMethodHandler struct {
	Methods PaymentMethodStore
}

type PaymentMethodStore interface {
	Create(ctx context.Context, m *model.PaymentMethod) error
	List(ctx context.Context) ([]model.PaymentMethod, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.PaymentMethodPatch) (*model.PaymentMethod, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

func NewPaymentMethodHandler(m PaymentMethodStore) *PaymentMethodHandler {
	return &PaymentMethodHandler{Methods: m}
}

type paymentMethodReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Create stores a method.  Type defaults to the lowercased name, so a
// method called "Cash" is the cash kind.
func (h *PaymentMethodHandler) Create(c echo.Context) error {
	var req paymentMethodReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if kind == "" {
		kind = strings.ToLower(req.Name)
	}
	by, _ := middleware.UserID(c)
	m := &model.PaymentMethod{Name: req.Name, Description: req.Description, Type: kind, CreatedBy: by}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Methods.Create(ctx, m); err != nil {
		return internalError(c, "create payment method", err)
	}
	return created(c, "Payment method created successfully", m)
}

func (h *PaymentMethodHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	ms, err := h.Methods.List(ctx)
	if err != nil {
		return internalError(c, "list payment methods", err)
	}
	return list(c, ms)
}

func (h *PaymentMethodHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Payment method not found")
	}
	var p model.PaymentMethodPatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if p.Type != nil {
		t := strings.ToLower(strings.TrimSpace(*p.Type))
		p.Type = &t
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Methods.Update(ctx, id, p)
	if err != nil {
		return storeError(c, "update payment method", err, repository.ErrPaymentNotFound, "Payment method not found")
	}
	return success(c, "Payment method updated successfully", m)
}

func (h *PaymentMethodHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Payment method not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Methods.Delete(ctx, id); err != nil {
		return storeError(c, "delete payment method", err, repository.ErrPaymentNotFound, "Payment method not found")
	}
	return success(c, "Payment method deleted successfully", nil)
}
