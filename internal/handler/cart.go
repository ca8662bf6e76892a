package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
)

// CartHandler manages shopping cart entries.  Every route is
// authenticated; entries belong to the token subject.
type CartHandler struct {
	Cart     CartStore
	Products ProductStore
}

// CartStore lists every entry when user is nil.
type CartStore interface {
	Create(ctx context.Context, it *model.CartItem) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.CartItem, error)
	List(ctx context.Context, user *primitive.ObjectID) ([]model.CartItem, error)
	SetQuantity(ctx context.Context, id primitive.ObjectID, qty int) (*model.CartItem, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

func NewCartHandler(cart CartStore, prods ProductStore) *CartHandler {
	return &CartHandler{Cart: cart, Products: prods}
}

type cartReq struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "invalid token")
	}
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return fail(c, http.StatusBadRequest, "quantity must be at least 1")
	}
	pid, err := primitive.ObjectIDFromHex(req.Product)
	if err != nil {
		return fail(c, http.StatusNotFound, "Product not found")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if _, err := h.Products.GetByID(ctx, pid); err != nil {
		return storeError(c, "get product", err, repository.ErrProductNotFound, "Product not found")
	}
	it := &model.CartItem{User: uid, Product: pid, Quantity: req.Quantity}
	if err := h.Cart.Create(ctx, it); err != nil {
		return internalError(c, "create cart item", err)
	}
	return created(c, "Added to cart", it)
}

// List returns the caller's entries; admins see every entry.
func (h *CartHandler) List(c echo.Context) error {
	var filter *primitive.ObjectID
	if !middleware.IsAdmin(c) {
		uid, ok := middleware.UserID(c)
		if !ok {
			return fail(c, http.StatusUnauthorized, "invalid token")
		}
		filter = &uid
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	items, err := h.Cart.List(ctx, filter)
	if err != nil {
		return internalError(c, "list cart", err)
	}
	return list(c, items)
}

// Update changes the quantity of one of the caller's entries.
func (h *CartHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Cart item not found")
	}
	var req quantityReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		return fail(c, http.StatusBadRequest, "quantity must be at least 1")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if done, err := h.checkOwner(ctx, c, id, false); done {
		return err
	}
	it, err := h.Cart.SetQuantity(ctx, id, req.Quantity)
	if err != nil {
		return storeError(c, "update cart item", err, repository.ErrCartItemNotFound, "Cart item not found")
	}
	return success(c, "Cart updated successfully", it)
}

// Delete removes an entry; the owner or an admin may do so.
func (h *CartHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Cart item not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if done, err := h.checkOwner(ctx, c, id, true); done {
		return err
	}
	if err := h.Cart.Delete(ctx, id); err != nil {
		return storeError(c, "delete cart item", err, repository.ErrCartItemNotFound, "Cart item not found")
	}
	return success(c, "Removed from cart", nil)
}

// checkOwner answers the request itself when the caller may not touch
// entry id; done reports whether it did.
func (h *CartHandler) checkOwner(ctx context.Context, c echo.Context, id primitive.ObjectID, adminOK bool) (bool, error) {
	it, err := h.Cart.GetByID(ctx, id)
	if err != nil {
		return true, storeError(c, "get cart item", err, repository.ErrCartItemNotFound, "Cart item not found")
	}
	uid, _ := middleware.UserID(c)
	if it.User == uid || (adminOK && middleware.IsAdmin(c)) {
		return false, nil
	}
	return true, fail(c, http.StatusForbidden, "forbidden")
}
