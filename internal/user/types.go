// Package user implements the account lifecycle: registration, login,
// profile updates, flag administration, deletion, and token refresh.
package user

import (
	"time"

	"userhub.org/internal/permission"
)

// User is the stored account record. PasswordHash never leaves the
// package; every read path except the login lookup strips it.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Flags        permission.Flags
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View is the client-facing projection of a User.
type View struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	FirstName string           `json:"firstName,omitempty"`
	LastName  string           `json:"lastName,omitempty"`
	Flags     permission.Flags `json:"permissionFlags"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// View strips the credential from the record.
func (u User) View() View {
	return View{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Flags:     u.Flags,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Registration is the input to Register. Flags is only honored for the
// first account ever created.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Flags     permission.Flags
}

// Update is the structured partial update accepted by the general
// profile path. The mutable field set is enumerated here; unknown keys
// are rejected at the HTTP boundary. Flags exists only so a disallowed
// change can be detected and refused; this path never applies it.
type Update struct {
	Password  *string
	FirstName *string
	LastName  *string
	Flags     *permission.Flags
}

// StoreUpdate carries the already-hashed mutable fields a store persists.
type StoreUpdate struct {
	PasswordHash *string
	FirstName    *string
	LastName     *string
}
