package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain/model"
)

// PaymentGateway is the hex port for push-to-pay (STK) payments relayed by the backend.
type PaymentGateway interface {
	Name() string

	// InitiateSTKPush asks the provider to push a PIN prompt to phone and
	// returns the checkout request id used to poll for the outcome.
	InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal, planID int) (checkoutRequestID string, err error)

	// CheckSTKStatus returns the provider's current view of a checkout request.
	CheckSTKStatus(ctx context.Context, checkoutRequestID string) (*model.STKStatus, error)
}
