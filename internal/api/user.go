package api

import (
	"context"
	"net/http"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

var _ auth.API = (*UserClient)(nil)

// UserClient talks to /api/users.
type UserClient struct {
	c *Client
}

// Login exchanges credentials for a session. It does not store it.
func (uc *UserClient) Login(ctx context.Context, cr auth.Credentials) (auth.Session, error) {
	req := jsonRequest(http.MethodPost, "/api/users/login", encodeCredentials(cr))
	req.public = true
	resp, err := uc.c.expect(ctx, req)
	if err != nil {
		return auth.Session{}, err
	}
	return decodeSession(resp.body)
}

// Register creates an account and returns the server's message.
func (uc *UserClient) Register(ctx context.Context, r auth.Registration) (string, error) {
	req := jsonRequest(http.MethodPost, "/api/users/register", encodeRegistration(r))
	req.public = true
	resp, err := uc.c.expect(ctx, req)
	if err != nil {
		return "", err
	}
	return decodeMessage(resp.body), nil
}

// Logout invalidates the token on the server.
func (uc *UserClient) Logout(ctx context.Context) error {
	_, err := uc.c.expect(ctx, jsonRequest(http.MethodPost, "/api/users/logout", nil))
	return err
}

// Deactivate deletes the account.
func (uc *UserClient) Deactivate(ctx context.Context, userID string) error {
	_, err := uc.c.expect(ctx, jsonRequest(http.MethodDelete, "/api/users/deactivate", encodeDeactivate(userID)))
	return err
}
