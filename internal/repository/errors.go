// Package repository holds the MongoDB access layer, one repository per
// collection.  The sentinel errors below let handlers and the order
// workflow tell failure kinds apart without inspecting driver errors.
package repository

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrPaymentNotFound  = errors.New("payment method not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrBannerNotFound   = errors.New("banner not found")
	ErrTitleNotFound    = errors.New("title not found")
)

// ErrDuplicate is returned when an insert or update violates a unique
// index (user email, category name).
var ErrDuplicate = errors.New("duplicate key")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")
