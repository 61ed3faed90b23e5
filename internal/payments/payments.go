package payments

import (
	"context"
	"errors"
)

// ErrInvalidAmount indicates a charge was attempted for a non-positive amount.
var ErrInvalidAmount = errors.New("payment amount must be greater than zero")

// ChargeParams describes a one-time course purchase.
type ChargeParams struct {
	UserID      uint
	CourseID    uint
	AmountCents int64
	Currency    string
	Description string
}

// Receipt is returned by a provider after a successful charge. Reference is
// the provider-side identifier stored on the enrollment.
type Receipt struct {
	Reference   string
	AmountCents int64
	Currency    string
}

// Provider abstracts the payment vendor. The marketplace ships with a
// simulated provider; a real gateway plugs in behind the same interface.
type Provider interface {
	Charge(ctx context.Context, params ChargeParams) (*Receipt, error)
}
