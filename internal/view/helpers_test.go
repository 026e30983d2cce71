package view_test

import (
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/model"
	"healthcare-portal/internal/portaltest"
	"healthcare-portal/pkg/logging"
)

type tokenSource string

func (s tokenSource) Token() string { return string(s) }

func testLogger() *logging.Logger {
	return logging.New(os.Stderr, "error")
}

func newBackend(t *testing.T) (*portaltest.Backend, string) {
	t.Helper()
	backend := portaltest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return backend, srv.URL
}

// patientClient seeds a patient account and returns a client carrying
// its credential.
func patientClient(t *testing.T, backend *portaltest.Backend, url, email string) *api.Client {
	t.Helper()
	backend.AddUser(email, "secret123", model.RolePatient)
	return clientFor(t, backend, url, email)
}

func clientFor(t *testing.T, backend *portaltest.Backend, url, email string) *api.Client {
	t.Helper()
	tok, err := backend.MintToken(email)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return api.NewClient(url, tokenSource(tok), api.WithLogger(testLogger()))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
