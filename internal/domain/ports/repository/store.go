package repository

import "context"

// Well-known store keys shared with other clients of the same account.
const (
	KeyToken         = "token"
	KeyCurrentPlanID = "currentPlanId"
)

// KeyValueStore is the durable string store the client keeps between runs
// (the browser's local storage in the web client). There is no locking:
// concurrent writers to one key resolve as last writer wins.
type KeyValueStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear drops every key (used on sign-out).
	Clear(ctx context.Context) error
}
