package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/auth"
	"healthcare-portal/internal/model"
	"healthcare-portal/internal/portaltest"
	"healthcare-portal/internal/session"
	"healthcare-portal/pkg/logging"
)

func setup(t *testing.T) (*auth.Gateway, *session.Store, *portaltest.Backend) {
	t.Helper()
	gw, sessions, backend, _ := setupWithClient(t)
	return gw, sessions, backend
}

func setupWithClient(t *testing.T) (*auth.Gateway, *session.Store, *portaltest.Backend, *api.Client) {
	t.Helper()
	backend := portaltest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	logger := logging.New(os.Stderr, "error")
	sessions := session.New(t.TempDir(), logger)
	client := api.NewClient(srv.URL, sessions, api.WithLogger(logger))
	return auth.New(client, sessions, logger), sessions, backend, client
}

// ----- login -----

func TestLoginSuccess(t *testing.T) {
	gw, sessions, backend := setup(t)
	backend.AddUser("pat@test.com", "secret123", model.RolePatient)

	res := gw.Login(context.Background(), "pat@test.com", "secret123")
	if !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}

	s := sessions.Current()
	if s.State != session.StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State)
	}
	// email comes from the caller, role from the backend
	if s.Principal.Email != "pat@test.com" {
		t.Errorf("email: %q", s.Principal.Email)
	}
	if s.Principal.Role != model.RolePatient {
		t.Errorf("role: %q", s.Principal.Role)
	}
	if sessions.Token() == "" {
		t.Error("no credential attached")
	}
}

func TestLoginProviderRole(t *testing.T) {
	gw, sessions, backend := setup(t)
	backend.AddProvider("doc@test.com", "secret123", "Cardiology", "12 Main St", nil)

	res := gw.Login(context.Background(), "doc@test.com", "secret123")
	if !res.Success {
		t.Fatalf("login failed: %s", res.Error)
	}
	if sessions.Current().Principal.Role != model.RoleProvider {
		t.Errorf("role: %q", sessions.Current().Principal.Role)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	gw, sessions, backend := setup(t)
	backend.AddUser("pat@test.com", "secret123", model.RolePatient)

	res := gw.Login(context.Background(), "pat@test.com", "wrong")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Invalid credentials" {
		t.Errorf("error: %q", res.Error)
	}
	if sessions.Current().State == session.StateAuthenticated {
		t.Error("session authenticated after failed login")
	}
}

func TestLoginLocalValidation(t *testing.T) {
	gw, _, backend := setup(t)

	tests := []struct {
		name            string
		email, password string
	}{
		{"empty email", "", "secret123"},
		{"empty password", "pat@test.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := backend.Requests()
			res := gw.Login(context.Background(), tt.email, tt.password)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Error == "" {
				t.Error("no error message")
			}
			if backend.Requests() != before {
				t.Error("validation error reached the network")
			}
		})
	}
}

func TestLoginTransportErrorIsNormalized(t *testing.T) {
	logger := logging.New(os.Stderr, "error")
	sessions := session.New(t.TempDir(), logger)
	// nothing listens here; the dial fails
	client := api.NewClient("http://127.0.0.1:1", sessions, api.WithLogger(logger))
	gw := auth.New(client, sessions, logger)

	res := gw.Login(context.Background(), "pat@test.com", "secret123")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Invalid credentials. Please try again." {
		t.Errorf("raw transport error leaked: %q", res.Error)
	}
}

// ----- register -----

func TestRegisterAutoLogin(t *testing.T) {
	gw, sessions, _ := setup(t)

	res := gw.Register(context.Background(), "new@test.com", "secret123", model.RolePatient, true)
	if !res.Success {
		t.Fatalf("register failed: %s", res.Error)
	}

	s := sessions.Current()
	if s.State != session.StateAuthenticated {
		t.Fatal("registration did not log in")
	}
	if s.Principal.Email != "new@test.com" || s.Principal.Role != model.RolePatient {
		t.Errorf("principal: %+v", s.Principal)
	}
}

func TestRegisterWithoutConsentSkipsNetwork(t *testing.T) {
	gw, sessions, backend := setup(t)

	before := backend.Requests()
	res := gw.Register(context.Background(), "new@test.com", "secret123", model.RolePatient, false)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "You must agree to the terms and conditions." {
		t.Errorf("error: %q", res.Error)
	}
	if backend.Requests() != before {
		t.Error("consent rejection reached the network")
	}
	if sessions.Current().State == session.StateAuthenticated {
		t.Error("session authenticated without consent")
	}
}

func TestRegisterDuplicateEmailNormalized(t *testing.T) {
	gw, _, backend := setup(t)
	backend.AddUser("taken@test.com", "secret123", model.RolePatient)

	res := gw.Register(context.Background(), "taken@test.com", "other-pass", model.RolePatient, true)
	if res.Success {
		t.Fatal("expected failure")
	}
	// the field-keyed conflict payload maps to the fixed message
	if res.Error != "Email already registered" {
		t.Errorf("error: %q", res.Error)
	}
}

func TestRegisterOtherErrorsPassThrough(t *testing.T) {
	gw, _, _ := setup(t)

	// the backend rejects provider self-registration with a plain string
	res := gw.Register(context.Background(), "doc@test.com", "secret123", model.RoleProvider, true)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "Only patients can register. Doctors are pre-loaded in the system." {
		t.Errorf("error: %q", res.Error)
	}
}

// ----- logout and round trip -----

func TestLoginLogoutRestoreRoundTrip(t *testing.T) {
	backend := portaltest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	backend.AddUser("pat@test.com", "secret123", model.RolePatient)

	dir := t.TempDir()
	logger := logging.New(os.Stderr, "error")
	sessions := session.New(dir, logger)
	client := api.NewClient(srv.URL, sessions, api.WithLogger(logger))
	gw := auth.New(client, sessions, logger)

	if res := gw.Login(context.Background(), "pat@test.com", "secret123"); !res.Success {
		t.Fatalf("login: %s", res.Error)
	}
	gw.Logout()

	// simulate a reload: a fresh store over the same dir finds nothing
	restored := session.New(dir, logger)
	if s := restored.Restore(); s.State != session.StateAnonymous {
		t.Errorf("expected anonymous after logout+reload, got %s", s.State)
	}
}

func TestCredentialAttachedAfterLogin(t *testing.T) {
	gw, _, backend, client := setupWithClient(t)
	backend.AddUser("pat@test.com", "secret123", model.RolePatient)
	backend.AddProvider("doc@test.com", "secret123", "Dermatology", "", nil)

	if res := gw.Login(context.Background(), "pat@test.com", "secret123"); !res.Success {
		t.Fatalf("login: %s", res.Error)
	}

	// an authenticated endpoint now works; after logout it rejects us
	providers, err := client.ListProviders(context.Background())
	if err != nil {
		t.Fatalf("list providers: %v", err)
	}
	if len(providers) != 1 {
		t.Errorf("providers: %d", len(providers))
	}

	gw.Logout()
	if _, err := client.ListProviders(context.Background()); err == nil {
		t.Error("request succeeded without credential")
	} else if apiErr := api.AsError(err); apiErr == nil || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
