package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/kart-storefront/internal/apierr"
)

// Session is the authenticated identity kept in the session store.
type Session struct {
	Token  string
	UserID string
	Seller bool
}

// Authenticated reports whether the session carries a bearer token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// ExpiresAt returns the "exp" claim of the token when the token is a JWT that
// carries one. The signature is not verified: the server remains the
// authority, this only avoids sending a token that is known to be stale.
func (s Session) ExpiresAt() (time.Time, bool) {
	if s.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token has a known expiry before now.
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// Store persists the session between invocations. It is the Go counterpart of
// the browser's local storage slots for the token and the user id.
type Store interface {
	// Get returns the stored session. An absent session is the zero value,
	// not an error.
	Get(ctx context.Context) (Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Require loads the session and returns apierr.ErrAuthMissing when it has no
// token or the token has expired.
func Require(ctx context.Context, store Store, now time.Time) (Session, error) {
	s, err := store.Get(ctx)
	if err != nil {
		return Session{}, err
	}
	if !s.Authenticated() || s.Expired(now) {
		return Session{}, apierr.ErrAuthMissing
	}
	return s, nil
}
