package user

import (
	"context"

	"userhub.org/internal/permission"
)

// Store is durable keyed storage for user records. Email uniqueness and
// the first-user determination are enforced here, not in the service:
// under concurrent registrations the store is the only place both can
// be decided atomically.
type Store interface {
	// Create persists u. The store decides atomically whether u is the
	// first account ever created and sets u.Flags via
	// permission.Initial(first, requested) in the same operation.
	// A duplicate email fails with ErrConflict and leaves the
	// bootstrap slot unclaimed.
	Create(ctx context.Context, u *User, requested permission.Flags) error

	// Get returns the record by id, ErrNotFound if absent.
	Get(ctx context.Context, id string) (User, error)

	// GetByEmail is the login lookup and the only read path that
	// surfaces the password hash.
	GetByEmail(ctx context.Context, email string) (User, error)

	// List returns records ordered by creation.
	List(ctx context.Context, limit, offset int) ([]User, error)

	// Update merges the given fields; ErrNotFound if id is absent.
	// It never touches Flags.
	Update(ctx context.Context, id string, upd StoreUpdate) error

	// SetFlags is the sole write path for the permission bitmask.
	SetFlags(ctx context.Context, id string, flags permission.Flags) error

	// Delete removes the record; ErrNotFound if already absent.
	Delete(ctx context.Context, id string) error

	// Count returns the live user count.
	Count(ctx context.Context) (int64, error)
}
