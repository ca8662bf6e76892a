package service

import "errors"

// ValidationError rejects an order before any payment is attempted.
// NotFound is set when a referenced document does not exist; Ref then
// names the reference (product, category, payment).
type ValidationError struct {
	Field    string
	Ref      string
	Reason   string
	NotFound bool
}

func (e *ValidationError) Error() string { return e.Reason }

// PaymentError rejects an order because the gateway declined the charge
// or its outcome could not be established.  Reason is safe to show the
// customer; for declines it is the gateway's message verbatim.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string { return e.Reason }

func (e *PaymentError) Unwrap() error { return e.Err }

// ErrForbidden is returned when a non-admin places an order on behalf of
// another user.
var ErrForbidden = errors.New("only admins may place orders for other users")

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func notFound(field, ref, reason string) *ValidationError {
	return &ValidationError{Field: field, Ref: ref, Reason: reason, NotFound: true}
}
