package api

import (
	"context"
	"net/http"

	"github.com/dori/boardly/internal/model"
)

// Registration is the sign-up payload
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials is the sign-in payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResult is the body of POST /auth/register
type SignUpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResult is the body of POST /auth/login
type LoginResult struct {
	Token   string     `json:"token"`
	User    model.User `json:"user"`
	Message string     `json:"message"`
}

// SignUp registers a new account. It does not establish a session.
func (c *Client) SignUp(ctx context.Context, r Registration) (*SignUpResult, error) {
	var out SignUpResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", r, schemaSignUp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn exchanges credentials for a token and user record
func (c *Client) SignIn(ctx context.Context, cr Credentials) (*LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", cr, schemaLogin, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
