// Package session keeps per-browser state in a signed cookie. The cookie value
// is an HS256 JWT signed with the application secret.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	issuer = "kerkoapp"
)

var (
	// ErrNoSecret is returned when a store is created without a signing key.
	ErrNoSecret = errors.New("session secret must not be empty")
)

type contextKey struct{}

type claims struct {
	Theme  string `json:"theme,omitempty"`
	UserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Session is the decoded state of one browser session.
type Session struct {
	values   claims
	modified bool
}

// Theme returns the stored theme, or "" when none was chosen yet.
func (s *Session) Theme() string {
	return s.values.Theme
}

// SetTheme stores theme.
func (s *Session) SetTheme(theme string) {
	if s.values.Theme != theme {
		s.values.Theme = theme
		s.modified = true
	}
}

// ToggleTheme switches dark to light and anything else to dark, returning
// the new theme.
func (s *Session) ToggleTheme() string {
	if s.Theme() == ThemeDark {
		s.SetTheme(ThemeLight)
	} else {
		s.SetTheme(ThemeDark)
	}
	return s.Theme()
}

// UserID returns the session's unique identifier, generating it on first use.
func (s *Session) UserID() string {
	if s.values.UserID == "" {
		s.values.UserID = uuid.NewString()
		s.modified = true
	}
	return s.values.UserID
}

// Modified reports whether the session must be written back.
func (s *Session) Modified() bool {
	return s.modified
}

// Options configures a Store.
type Options struct {
	CookieName string
	Secret     string
	Secure     bool
	Lifetime   time.Duration
}

// Store loads and saves sessions from cookies.
type Store struct {
	name     string
	key      []byte
	secure   bool
	lifetime time.Duration
	now      func() time.Time
}

// StoreOption configures optional Store behaviour.
type StoreOption func(*Store)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a cookie session store.
func NewStore(opts Options, extra ...StoreOption) (*Store, error) {
	if opts.Secret == "" {
		return nil, ErrNoSecret
	}
	name := opts.CookieName
	if name == "" {
		name = "session"
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = 31 * 24 * time.Hour
	}

	s := &Store{
		name:     name,
		key:      []byte(opts.Secret),
		secure:   opts.Secure,
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range extra {
		opt(s)
	}
	return s, nil
}

// Load decodes the session cookie of r. Missing, tampered or expired cookies
// yield an empty session.
func (s *Store) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	var c claims
	_, err = jwt.ParseWithClaims(cookie.Value, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return &Session{}
	}
	return &Session{values: c}
}

// Save writes the session cookie when the session was modified.
func (s *Store) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil || !sess.modified {
		return nil
	}

	now := s.now()
	expires := now.Add(s.lifetime)
	sess.values.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sess.values).SignedString(s.key)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	sess.modified = false
	return nil
}

// Middleware loads the session once per request and stores it in the context.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(r.Context(), s.Load(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewContext returns ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by Middleware, or an empty session.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(contextKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}
