// Package auth turns user-supplied credentials into session store
// updates. Gateway methods never return raw errors to view code; every
// outcome is a Result with a displayable message.
package auth

import (
	"context"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/model"
	"healthcare-portal/internal/session"
	"healthcare-portal/pkg/logging"
)

// displayed messages, matching the portal's wording
const (
	msgLoginFailed     = "Invalid credentials. Please try again."
	msgRegisterFailed  = "Registration failed. Please try again."
	msgConsentRequired = "You must agree to the terms and conditions."
	msgFieldsRequired  = "Email and password are required."
	msgEmailTaken      = "Email already registered"
)

// Result reports one auth attempt. Error is set only when Success is
// false and is always safe to render.
type Result struct {
	Success bool
	Error   string
}

func failure(msg string) Result { return Result{Error: msg} }

type Gateway struct {
	api      *api.Client
	sessions *session.Store
	logger   *logging.Logger
}

func New(client *api.Client, sessions *session.Store, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{api: client, sessions: sessions, logger: logger}
}

// Login authenticates and updates the session store. The principal's
// email is the caller's input; the role comes from the backend.
func (g *Gateway) Login(ctx context.Context, email, password string) Result {
	if email == "" || password == "" {
		return failure(msgFieldsRequired)
	}

	resp, err := g.api.Login(ctx, email, password)
	if err != nil {
		if apiErr := api.AsError(err); apiErr != nil && apiErr.Message() != "" {
			return failure(apiErr.Message())
		}
		g.logger.Error("login failed", "error", err)
		return failure(msgLoginFailed)
	}

	g.sessions.SetAuthenticated(model.Principal{Email: email, Role: resp.Role}, resp.Token)
	return Result{Success: true}
}

// Register creates an account and, on success, logs in with the same
// credentials; registration alone yields no session. Missing consent is
// rejected locally, before any network round trip. Password length and
// confirm-password equality are the form's preconditions, not checked
// here.
func (g *Gateway) Register(ctx context.Context, email, password string, role model.Role, consentGiven bool) Result {
	if !consentGiven {
		return failure(msgConsentRequired)
	}

	if err := g.api.Register(ctx, email, password, role, consentGiven); err != nil {
		if apiErr := api.AsError(err); apiErr != nil {
			// field-keyed payload on email means a uniqueness conflict
			if apiErr.HasField("email") {
				return failure(msgEmailTaken)
			}
			if msg := apiErr.Message(); msg != "" {
				return failure(msg)
			}
		}
		g.logger.Error("register failed", "error", err)
		return failure(msgRegisterFailed)
	}

	return g.Login(ctx, email, password)
}

// Logout clears the session. Token invalidation on the backend is the
// backend's concern; no call is made.
func (g *Gateway) Logout() {
	g.sessions.Clear()
}
