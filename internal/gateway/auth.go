package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the signed-in identity returned alongside the token.
type AuthUser struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// LoginResult carries the bearer token and identity from POST /login.
type LoginResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// Login exchanges credentials for a bearer token. This is the one anonymous
// call; it bypasses the token check the authenticated paths enforce.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return LoginResult{}, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(data))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	var out LoginResult
	if err := c.do(req, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	var resp statusResponse
	return c.send(ctx, http.MethodPost, "/logout", nil, &resp)
}
