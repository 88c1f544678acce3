package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the identity returned by the login endpoint
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName prefers the name and falls back to the email
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session is the authenticated identity plus the bearer token
type Session struct {
	Token     string     `json:"token"`
	User      *User      `json:"user,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // decoded from the token when it is a JWT
}

// IsAuthenticated holds exactly when a token is present
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Expired reports whether the token carried an exp claim that has passed.
// Opaque tokens never expire from the client's point of view.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// TokenExpiry decodes the exp claim of a JWT without verifying it.
// The client has no key; the value is only used for display.
func TokenExpiry(token string) *time.Time {
	if token == "" {
		return nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time
	return &t
}
