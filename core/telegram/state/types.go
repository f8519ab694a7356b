package state

import "context"

// Store persists one session document of type T per user.
//
// Get returns the zero T when no session exists. Update loads the current
// document (or the zero T), applies mutate and writes the result back, so
// successive updates merge. Delete drops the whole document.
type Store[T any] interface {
	Get(ctx context.Context, userID int64) (T, error)
	Update(ctx context.Context, userID int64, mutate func(*T)) error
	Delete(ctx context.Context, userID int64) error
}
