package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("not authenticated")

	// Checkout errors
	ErrValidation      = errors.New("validation failed")
	ErrInitiation      = errors.New("payment initiation failed")
	ErrTransientPoll   = errors.New("payment status check failed")
	ErrProviderFailure = errors.New("payment rejected by provider")
	ErrPaymentTimeout  = errors.New("payment confirmation timed out")
	ErrAttemptInFlight = errors.New("a payment attempt is already in progress")
	ErrRateLimited     = errors.New("too many payment requests, try again later")

	// Playback errors
	ErrMediaLoad        = errors.New("media not available")
	ErrPlaybackRejected = errors.New("playback request rejected")
	ErrResourceBusy     = errors.New("media resource already owned by another session")
	ErrSessionClosed    = errors.New("session closed")
)

// ProviderRejection is returned when the payment provider (via the backend)
// answers an initiation with success=false. Message is safe to show to the user.
type ProviderRejection struct {
	Message string
}

func (e *ProviderRejection) Error() string {
	if e.Message == "" {
		return ErrInitiation.Error()
	}
	return ErrInitiation.Error() + ": " + e.Message
}

func (e *ProviderRejection) Unwrap() error { return ErrInitiation }
