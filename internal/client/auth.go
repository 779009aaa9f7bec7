package client

import (
	"context"
	"errors"
	"net/http"
)

// Credentials identify a user at login and registration.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth talks to the unauthenticated /api/auth endpoints.
type Auth struct {
	t *transport
}

// NewAuth creates an auth client for the API at baseURL.
func NewAuth(baseURL string, opts ...Option) (*Auth, error) {
	t, err := newTransport(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &Auth{t: t}, nil
}

// Login exchanges credentials for a bearer token.
func (a *Auth) Login(ctx context.Context, creds Credentials) (string, error) {
	req, err := a.t.newJSONRequest(ctx, http.MethodPost, "/api/auth/login", creds)
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := a.t.do("login", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &TransportError{Op: "login", Err: errors.New("response carried no token")}
	}
	return resp.Token, nil
}

// Register creates an account. The caller logs in separately.
func (a *Auth) Register(ctx context.Context, creds Credentials) error {
	req, err := a.t.newJSONRequest(ctx, http.MethodPost, "/api/auth/register", creds)
	if err != nil {
		return err
	}
	return a.t.do("register", req, nil)
}

// Logout asks the server to revoke token.
func (a *Auth) Logout(ctx context.Context, token string) error {
	req, err := a.t.newJSONRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return a.t.do("logout", req, nil)
}
