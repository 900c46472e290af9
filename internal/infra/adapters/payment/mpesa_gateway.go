// File: internal/infra/adapters/payment/mpesa_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/model"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/infra/backend"
)

var _ adapter.PaymentGateway = (*MpesaGateway)(nil)

// Caller is the subset of backend.Client the gateway needs.
type Caller interface {
	Call(ctx context.Context, method, endpoint string, in any) (*backend.Envelope, error)
}

// MpesaGateway drives M-Pesa STK push through the backend's payment
// endpoints. The client never talks to the provider directly.
type MpesaGateway struct {
	api Caller
}

func NewMpesaGateway(api Caller) (*MpesaGateway, error) {
	if api == nil {
		return nil, errors.New("backend client nil")
	}
	return &MpesaGateway{api: api}, nil
}

func (g *MpesaGateway) Name() string { return "mpesa" }

// InitiateSTKPush calls InitiateMpesaSTK. The amount goes out as a JSON
// number with exactly two decimals.
func (g *MpesaGateway) InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal, planID int) (string, error) {
	payload := struct {
		Phone  string      `json:"phone"`
		Amount json.Number `json:"amount"`
		PlanID int         `json:"planId"`
	}{
		Phone:  phone,
		Amount: json.Number(amount.StringFixed(2)),
		PlanID: planID,
	}
	env, err := g.api.Call(ctx, http.MethodPost, backend.EndpointInitiateSTK, payload)
	if err != nil {
		return "", err
	}
	if !env.Success {
		return "", &domain.ProviderRejection{Message: env.Message}
	}
	var out struct {
		CheckoutRequestID string `json:"CheckoutRequestID"`
	}
	if err := env.DecodeData(&out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.CheckoutRequestID) == "" {
		// nothing to poll; the user sees the generic retry message
		return "", fmt.Errorf("%w: success without checkout request id", domain.ErrInitiation)
	}
	return out.CheckoutRequestID, nil
}

// CheckSTKStatus calls CheckMpesaStatus. ResultCode may arrive as a string
// or a number; absent means the provider has not answered yet.
func (g *MpesaGateway) CheckSTKStatus(ctx context.Context, checkoutRequestID string) (*model.STKStatus, error) {
	payload := struct {
		CheckoutRequestID string `json:"checkoutRequestID"`
	}{CheckoutRequestID: checkoutRequestID}

	env, err := g.api.Call(ctx, http.MethodPost, backend.EndpointSTKStatus, payload)
	if err != nil {
		return nil, err
	}
	var out struct {
		ResultCode flexString `json:"ResultCode"`
		ResultDesc string     `json:"ResultDesc"`
	}
	if err := env.DecodeData(&out); err != nil {
		return nil, err
	}
	return &model.STKStatus{
		Success:    env.Success,
		ResultCode: string(out.ResultCode),
		ResultDesc: out.ResultDesc,
	}, nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
