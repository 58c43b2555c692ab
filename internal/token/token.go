// Package token issues and verifies the access/refresh token pair. Both
// tokens are self-contained signed credentials; the server keeps no
// session state beyond the signing secret, so rotating that secret is
// the only revocation mechanism.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"userhub.org/internal/permission"
)

const (
	// KindAccess marks a short-lived token authorizing individual requests.
	KindAccess = "access"
	// KindRefresh marks a long-lived token used solely to obtain a new pair.
	KindRefresh = "refresh"
)

var (
	// ErrMalformed indicates the token failed the signature or structure check.
	ErrMalformed = errors.New("token: malformed token")
	// ErrExpired indicates the token is past its expiry.
	ErrExpired = errors.New("token: token expired")
	// ErrWrongKind indicates a valid token of the other kind was presented.
	ErrWrongKind = errors.New("token: wrong token kind")
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 14 * 24 * time.Hour
	defaultLeeway     = 5 * time.Second
)

// Claims are carried by both token kinds. Flags snapshot the subject's
// permission bitmask at issuance time.
type Claims struct {
	Kind  string           `json:"token_type"`
	Flags permission.Flags `json:"flags"`
	jwt.RegisteredClaims
}

// Pair bundles freshly issued credentials with their expirations.
type Pair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Service signs and verifies token pairs with a process-wide secret
// loaded once at startup. Read-only after construction.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// Option configures Service behavior.
type Option func(*Service) error

// WithIssuer sets the issuer claim stamped into and required from tokens.
func WithIssuer(issuer string) Option {
	return func(s *Service) error {
		s.issuer = strings.TrimSpace(issuer)
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a Service around the signing secret.
func NewService(secret string, opts ...Option) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token: signing secret is required")
	}
	svc := &Service{
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		leeway:     defaultLeeway,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// IssuePair signs a fresh access/refresh pair for the subject. Both
// tokens stamp the flags passed in, which must be the subject's current
// authoritative value.
func (s *Service) IssuePair(userID string, flags permission.Flags) (Pair, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Pair{}, errors.New("token: subject is required")
	}
	now := s.now().UTC()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.sign(userID, flags, KindAccess, now, accessExp)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(userID, flags, KindRefresh, now, refreshExp)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess checks an access token and returns its claims.
func (s *Service) VerifyAccess(raw string) (Claims, error) {
	return s.verify(raw, KindAccess)
}

// VerifyRefresh checks a refresh token and returns its claims.
func (s *Service) VerifyRefresh(raw string) (Claims, error) {
	return s.verify(raw, KindRefresh)
}

func (s *Service) sign(userID string, flags permission.Flags, kind string, now, exp time.Time) (string, error) {
	claims := Claims{
		Kind:  kind,
		Flags: flags,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) verify(raw, kind string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrMalformed
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformed
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithLeeway(s.leeway), jwt.WithIssuedAt())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrMalformed
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrMalformed
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrMalformed
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Claims{}, ErrMalformed
	}
	if claims.Kind != kind {
		return Claims{}, ErrWrongKind
	}
	return *claims, nil
}
