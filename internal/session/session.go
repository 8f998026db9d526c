// Package session resolves the signed-in owner of a request and guards
// owner-facing handlers. Public submission routes never consult it.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrNoSession is returned when a request carries no usable session.
var ErrNoSession = errors.New("no session")

// Session identifies the authenticated owner of a request.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gate resolves the session for a request.
type Gate interface {
	Session(r *http.Request) (*Session, error)
}

// Claims is the access token payload. The owner id is the subject.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTGate reads an HS256 access token from a cookie or a bearer
// Authorization header.
type JWTGate struct {
	secret []byte
	cookie string
}

// NewJWTGate returns a gate verifying tokens with secret. With an empty
// secret every request is treated as signed out.
func NewJWTGate(secret, cookie string) *JWTGate {
	return &JWTGate{secret: []byte(secret), cookie: cookie}
}

func (g *JWTGate) Session(r *http.Request) (*Session, error) {
	if len(g.secret) == 0 {
		return nil, ErrNoSession
	}
	raw := g.token(r)
	if raw == "" {
		return nil, ErrNoSession
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrNoSession)
	}
	return &Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// token prefers the session cookie and falls back to a bearer header.
func (g *JWTGate) token(r *http.Request) string {
	if g.cookie != "" {
		if c, err := r.Cookie(g.cookie); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Sign issues an access token for userID valid for ttl.
func Sign(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Handler is an owner-facing handler. The session is always non-nil.
type Handler func(w http.ResponseWriter, r *http.Request, s *Session)

// Guard wraps owner-facing handlers with a session check.
type Guard struct {
	gate     Gate
	loginURL string
	log      *zap.Logger
}

func NewGuard(gate Gate, loginURL string, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{gate: gate, loginURL: loginURL, log: log}
}

// Protect calls h with the request's session, or redirects to the login page
// with the original path in "next" when there is none.
func (g *Guard) Protect(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := g.gate.Session(r)
		if err != nil {
			// A bare ErrNoSession is the ordinary signed-out case.
			if err != ErrNoSession { //nolint:errorlint
				g.log.Debug("session rejected", zap.String("path", r.URL.Path), zap.Error(err))
			}
			http.Redirect(w, r, g.LoginRedirect(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		h(w, r, s)
	}
}

// LoginRedirect returns the login URL with next set to the given path.
func (g *Guard) LoginRedirect(next string) string {
	u, err := url.Parse(g.loginURL)
	if err != nil {
		return g.loginURL
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}
