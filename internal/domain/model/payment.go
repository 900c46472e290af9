package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"flixgo-client/internal/domain"
)

type AttemptState string

const (
	AttemptIdle                 AttemptState = "idle"
	AttemptInitiating           AttemptState = "initiating"
	AttemptAwaitingConfirmation AttemptState = "awaiting_confirmation" // STK push sent; polling status
	AttemptSucceeded            AttemptState = "succeeded"
	AttemptFailed               AttemptState = "failed"
	AttemptTimedOut             AttemptState = "timed_out"
)

// Terminal reports whether no further transition can happen.
func (s AttemptState) Terminal() bool {
	return s == AttemptSucceeded || s == AttemptFailed || s == AttemptTimedOut
}

// InFlight reports whether the attempt still occupies the checkout.
func (s AttemptState) InFlight() bool {
	return s == AttemptInitiating || s == AttemptAwaitingConfirmation
}

// Provider result codes returned by the status check.
const (
	ResultCodeSuccess = "0"
	ResultCodePending = "1037" // user has not entered the PIN yet
)

var phonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

// ValidatePhone accepts only Kenyan mobile-money numbers: 254, then 7 or 1,
// then eight digits.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: enter valid phone: 2547xxxxxxxx", domain.ErrValidation)
	}
	return nil
}

// PaymentAttempt is one STK push checkout, from submit to a terminal state.
// It lives in memory only.
type PaymentAttempt struct {
	ID                string          `json:"id"`
	PlanID            int             `json:"plan_id"`
	BillingCycle      BillingCycle    `json:"billing_cycle"`
	Phone             string          `json:"phone"`
	Amount            decimal.Decimal `json:"amount"`
	CheckoutRequestID string          `json:"checkout_request_id,omitempty"`
	AttemptCount      int             `json:"attempt_count"`
	State             AttemptState    `json:"state"`
	Message           string          `json:"message,omitempty"`
	RedirectTo        string          `json:"redirect_to,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// PollOutcome classifies one status check.
type PollOutcome string

const (
	PollPending           PollOutcome = "pending"
	PollConfirmed         PollOutcome = "confirmed"
	PollDefinitiveFailure PollOutcome = "definitive_failure"
)

// STKStatus is the provider status for a checkout request as relayed by the backend.
type STKStatus struct {
	Success    bool   // backend envelope flag
	ResultCode string // empty when the provider has not answered yet
	ResultDesc string
}

// ClassifyPoll maps a status check (or its error) to an outcome.
// Request errors are transient and count as pending. Any answered code
// other than the pending sentinel is final; "0" confirms only together
// with the envelope's success flag.
func ClassifyPoll(status *STKStatus, err error) PollOutcome {
	if err != nil || status == nil {
		return PollPending
	}
	switch status.ResultCode {
	case "", ResultCodePending:
		return PollPending
	case ResultCodeSuccess:
		if status.Success {
			return PollConfirmed
		}
		return PollDefinitiveFailure
	default:
		return PollDefinitiveFailure
	}
}
