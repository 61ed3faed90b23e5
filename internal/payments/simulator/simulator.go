// Package simulator provides a payment provider that approves every
// well-formed charge. It stands in for a real gateway in development and in
// tests; the enrollment flow does not know the difference.
package simulator

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Mohmk10/sencours-back-sub000/internal/payments"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
)

type Provider struct {
	currency string
}

func New(currency string) *Provider {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "xof"
	}
	return &Provider{currency: currency}
}

func (p *Provider) Charge(ctx context.Context, params payments.ChargeParams) (*payments.Receipt, error) {
	if params.AmountCents <= 0 {
		return nil, payments.ErrInvalidAmount
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = p.currency
	}

	reference := "sim_" + uuid.NewString()

	logger.Info("Simulated payment approved", map[string]interface{}{
		"user_id":      params.UserID,
		"course_id":    params.CourseID,
		"amount_cents": params.AmountCents,
		"currency":     currency,
		"reference":    reference,
	})

	return &payments.Receipt{
		Reference:   reference,
		AmountCents: params.AmountCents,
		Currency:    currency,
	}, nil
}
