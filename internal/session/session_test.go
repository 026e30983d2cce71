package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"healthcare-portal/internal/model"
	"healthcare-portal/internal/session"
	"healthcare-portal/pkg/logging"
)

func newStore(t *testing.T) (*session.Store, string) {
	t.Helper()
	dir := t.TempDir()
	return session.New(dir, logging.New(os.Stderr, "error")), dir
}

// ----- restore -----

func TestRestoreNothingPersisted(t *testing.T) {
	st, _ := newStore(t)

	s := st.Restore()
	if s.State != session.StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State)
	}
	if st.Token() != "" {
		t.Error("token should be empty")
	}
}

func TestRestoreMalformedSessions(t *testing.T) {
	tests := []struct {
		name  string
		token string
		user  string
	}{
		{"unparsable principal", "tok-123", "{not json"},
		{"empty principal", "tok-123", "{}"},
		{"empty token", "", `{"email":"a@b.com","role":"patient"}`},
		{"principal missing entirely", "tok-123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, dir := newStore(t)
			if tt.token != "" {
				writeFile(t, dir, "token", tt.token)
			}
			if tt.user != "" {
				writeFile(t, dir, "user.json", tt.user)
			}

			s := st.Restore()
			if s.State != session.StateAnonymous {
				t.Fatalf("expected anonymous, got %s", s.State)
			}

			// malformed state is discarded, both entries together
			for _, name := range []string{"token", "user.json"} {
				if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
					t.Errorf("%s not removed", name)
				}
			}
		})
	}
}

func TestRestoreWellFormed(t *testing.T) {
	st, dir := newStore(t)
	writeFile(t, dir, "token", "tok-abc")
	writeFile(t, dir, "user.json", `{"email":"pat@test.com","role":"patient"}`)

	s := st.Restore()
	if s.State != session.StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State)
	}
	if s.Principal.Email != "pat@test.com" || s.Principal.Role != model.RolePatient {
		t.Errorf("principal: %+v", s.Principal)
	}
	if st.Token() != "tok-abc" {
		t.Errorf("token: %q", st.Token())
	}
}

// ----- persistence round trip -----

func TestSetAuthenticatedSurvivesRestart(t *testing.T) {
	st, dir := newStore(t)
	st.Restore()
	st.SetAuthenticated(model.Principal{Email: "doc@test.com", Role: model.RoleProvider}, "tok-xyz")

	// a fresh store over the same dir simulates a process restart
	st2 := session.New(dir, logging.New(os.Stderr, "error"))
	s := st2.Restore()
	if s.State != session.StateAuthenticated {
		t.Fatalf("expected authenticated after restart, got %s", s.State)
	}
	if s.Principal.Email != "doc@test.com" || s.Principal.Role != model.RoleProvider {
		t.Errorf("principal: %+v", s.Principal)
	}
	if st2.Token() != "tok-xyz" {
		t.Errorf("token: %q", st2.Token())
	}
}

func TestClearRemovesPersistedState(t *testing.T) {
	st, dir := newStore(t)
	st.SetAuthenticated(model.Principal{Email: "a@b.com", Role: model.RolePatient}, "tok")

	s := st.Clear()
	if s.State != session.StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State)
	}
	if st.Token() != "" {
		t.Error("token survived clear")
	}

	// reload sees nothing
	st2 := session.New(dir, logging.New(os.Stderr, "error"))
	if s := st2.Restore(); s.State != session.StateAnonymous {
		t.Errorf("expected anonymous after clear+restart, got %s", s.State)
	}
}

// ----- observability -----

func TestSubscribersSeeEveryTransition(t *testing.T) {
	st, _ := newStore(t)

	var states []session.State
	unsubscribe := st.Subscribe(func(s session.Session) {
		states = append(states, s.State)
	})

	st.Restore()
	st.SetAuthenticated(model.Principal{Email: "a@b.com", Role: model.RolePatient}, "tok")
	st.Clear()

	want := []session.State{
		session.StateLoading,
		session.StateAnonymous,
		session.StateAuthenticated,
		session.StateAnonymous,
	}
	if len(states) != len(want) {
		t.Fatalf("got %d transitions, want %d: %v", len(states), len(want), states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("transition %d: got %s, want %s", i, states[i], want[i])
		}
	}

	unsubscribe()
	st.SetAuthenticated(model.Principal{Email: "a@b.com", Role: model.RolePatient}, "tok")
	if len(states) != len(want) {
		t.Error("unsubscribed function still called")
	}
}

func TestCurrentSnapshotHasNoCredential(t *testing.T) {
	st, _ := newStore(t)
	st.SetAuthenticated(model.Principal{Email: "a@b.com", Role: model.RolePatient}, "secret-token")

	s := st.Current()
	if s.State != session.StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State)
	}
	// the credential is reachable only through Token()
	if st.Token() != "secret-token" {
		t.Errorf("token: %q", st.Token())
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
