// Package session holds the client-local portal session: the bearer token and
// the identity it was issued to. The session is read once per process
// lifecycle and passed into the gateway client explicitly; nothing else in
// the codebase reads ambient credential state.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn is returned when no session file exists.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is the persisted portal session.
type Session struct {
	Token   string    `json:"token"`
	UserID  int       `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	SavedAt time.Time `json:"saved_at"`
}

// File returns the session file path under dir.
func File(dir string) string {
	return filepath.Join(dir, "session.json")
}

// Load reads the session from dir. ErrNotLoggedIn when absent.
func Load(dir string) (*Session, error) {
	data, err := os.ReadFile(File(dir))
	if os.IsNotExist(err) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Token == "" {
		return nil, ErrNotLoggedIn
	}
	return &s, nil
}

// Save writes the session to dir, creating it if needed. The file is only
// readable by the owner since it carries the bearer token.
func Save(s *Session, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.SavedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(File(dir), data, 0o600)
}

// Clear removes the session file. Missing file is not an error.
func Clear(dir string) error {
	err := os.Remove(File(dir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ExpiresAt inspects the token's exp claim without verifying the signature;
// verification belongs to the gateway. The second return is false when the
// token is opaque or carries no expiry.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token's exp claim has passed. Opaque tokens are
// never reported expired; the gateway is the authority either way.
func (s *Session) Expired() bool {
	exp, ok := s.ExpiresAt()
	return ok && time.Now().After(exp)
}

// Subject returns the token's sub claim, or "" for opaque tokens.
func (s *Session) Subject() string {
	if s == nil || s.Token == "" {
		return ""
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
