package gateway

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DukeRupert/crmsclient/internal/domain"
)

// Auth endpoints
const (
	endpointLogin        = "userLogin"
	endpointLogout       = "userLogout"
	endpointAuthenticate = "userAuthentication"
)

const msgAuthenticated = "Authentication successfully"

// Auth is the authentication gateway.
type Auth struct {
	base
}

// NewAuth creates an authentication gateway.
func NewAuth(t Transport, logger *slog.Logger) *Auth {
	return &Auth{base: newBase(t, entityAuth, logger)}
}

type loginRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

type tokenRequest struct {
	Token string `json:"Token"`
}

// Login exchanges credentials for a token. Login succeeds only when the
// response carries a token; otherwise it returns EUNAUTHORIZED with the
// backend's message.
func (g *Auth) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	const op = "auth.login"

	env, err := g.call(ctx, op, endpointLogin, loginRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return "", err
	}
	if env.Token == "" {
		msg := env.Message
		if msg == "" {
			msg = "Login failed"
		}
		return "", domain.Unauthorized(op, msg)
	}
	return env.Token, nil
}

// Logout ends the server-side session.
func (g *Auth) Logout(ctx context.Context) error {
	_, err := g.call(ctx, "auth.logout", endpointLogout, nil)
	return err
}

// Authenticate checks a persisted token and returns the principal it
// belongs to. Anything other than an explicit success is EUNAUTHORIZED.
func (g *Auth) Authenticate(ctx context.Context, token string) (string, error) {
	const op = "auth.authenticate"

	env, err := g.call(ctx, op, endpointAuthenticate, tokenRequest{Token: token})
	if err != nil {
		return "", err
	}

	if name, ok := env.DataString(); ok && strings.TrimSpace(name) != "" {
		return name, nil
	}
	if env.Message == msgAuthenticated {
		return domain.DefaultPrincipal, nil
	}
	return "", domain.Unauthorized(op, "Session expired. Please log in again.")
}
