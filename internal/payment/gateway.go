// Package payment contains the adapters that charge a customer's mobile
// wallet.  The order workflow only sees the Gateway interface.
package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest is one attempt to collect Amount from the wallet behind
// Phone.  Reference ties the charge to the order being placed.
type ChargeRequest struct {
	Phone       string
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// Result is the gateway's verdict.  When Approved is false, Message
// carries the processor's reason verbatim.
type Result struct {
	Approved      bool
	Message       string
	TransactionID string
}

// Gateway charges a wallet synchronously.  An error means the outcome is
// unknown (transport failure, timeout, malformed reply); a decline is a
// Result with Approved false and a nil error.  Implementations do not
// retry.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Result, error)
}

// GatewayFunc adapts a plain function to Gateway.
type GatewayFunc func(ctx context.Context, req ChargeRequest) (Result, error)

func (f GatewayFunc) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	return f(ctx, req)
}

// Sandbox approves every charge without leaving the process.
type Sandbox struct{}

func (Sandbox) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{Approved: true, Message: "sandbox approved", TransactionID: "sandbox-" + uuid.NewString()}, nil
}
