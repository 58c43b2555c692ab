package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"userhub.org/internal/permission"
	"userhub.org/internal/token"
)

// Service orchestrates the account lifecycle over a Store and the token
// service. It returns the package's typed errors; the HTTP layer is the
// single place that translates them into status codes.
type Service struct {
	store  Store
	tokens *token.Service
}

// NewService constructs the lifecycle service.
func NewService(store Store, tokens *token.Service) (*Service, error) {
	if store == nil {
		return nil, errors.New("user: store is required")
	}
	if tokens == nil {
		return nil, errors.New("user: token service is required")
	}
	return &Service{store: store, tokens: tokens}, nil
}

// Register creates an account and returns its id. The requested flags
// are honored only for the first account ever created; everyone else is
// forced to the default (the store applies the rule atomically).
func (s *Service) Register(ctx context.Context, reg Registration) (string, error) {
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reg.Password) == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return "", err
	}
	u := &User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
	}
	if err := s.store.Create(ctx, u, reg.Flags); err != nil {
		return "", err
	}
	return u.ID, nil
}

// Login verifies credentials and issues a token pair stamped with the
// stored flags. Unknown email and wrong password produce the same
// error so the response does not leak which one failed.
func (s *Service) Login(ctx context.Context, email, password string) (token.Pair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return token.Pair{}, ErrInvalidCredentials
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return token.Pair{}, ErrInvalidCredentials
	}
	return s.tokens.IssuePair(u.ID, u.Flags)
}

// Refresh verifies a refresh token, re-reads the subject's current
// flags from the store, and issues a brand-new pair. A flag change
// takes effect here even if the presented token predates it. The old
// pair is not invalidated; it simply runs out its own expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return token.Pair{}, err
	}
	u, err := s.store.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}
	return s.tokens.IssuePair(u.ID, u.Flags)
}

// Get returns the account with the credential stripped.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return View{}, ErrNotFound
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return u.View(), nil
}

// List enumerates accounts. Requires the CapListUsers capability.
func (s *Service) List(ctx context.Context, caller permission.Flags, limit, page int) ([]View, error) {
	if !permission.Authorize(caller, permission.CapListUsers) {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = 25
	}
	if page < 0 {
		page = 0
	}
	users, err := s.store.List(ctx, limit, limit*page)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

// Update merges the allow-listed mutable fields. A patch carrying a
// flags value is refused outright regardless of caller privilege; the
// bitmask changes only through SetFlags.
func (s *Service) Update(ctx context.Context, id string, upd Update) error {
	if upd.Flags != nil {
		return ErrFlagsImmutable
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	var stored StoreUpdate
	if upd.Password != nil {
		pw := strings.TrimSpace(*upd.Password)
		if pw == "" {
			return fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(pw)
		if err != nil {
			return err
		}
		stored.PasswordHash = &hash
	}
	if upd.FirstName != nil {
		name := strings.TrimSpace(*upd.FirstName)
		stored.FirstName = &name
	}
	if upd.LastName != nil {
		name := strings.TrimSpace(*upd.LastName)
		stored.LastName = &name
	}
	return s.store.Update(ctx, id, stored)
}

// SetFlags is the sole privileged path that changes the bitmask.
func (s *Service) SetFlags(ctx context.Context, id string, flags permission.Flags, caller permission.Flags) error {
	if !permission.Authorize(caller, permission.CapSetFlags) {
		return ErrForbidden
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.store.SetFlags(ctx, id, flags)
}

// Remove deletes the account. Deleting an already-absent id fails with
// ErrNotFound rather than succeeding silently.
func (s *Service) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.store.Delete(ctx, id)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}
