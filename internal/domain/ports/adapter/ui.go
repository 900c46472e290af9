package adapter

import "context"

// Notifier shows short user-facing messages (toasts).
type Notifier interface {
	Info(ctx context.Context, msg string)
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Navigator changes the current view.
type Navigator interface {
	Navigate(ctx context.Context, path string)
	// Back returns to the previous view.
	Back(ctx context.Context)
}
