package view

import (
	"context"
	"fmt"
	"io"

	"healthcare-portal/internal/auth"
	"healthcare-portal/internal/model"
)

// LoginView is the unauthenticated login screen.
type LoginView struct {
	Error string
}

func (v *LoginView) Name() string { return "login" }

func (v *LoginView) Render(w io.Writer) {
	fmt.Fprintln(w, "== Login ==")
	if v.Error != "" {
		fmt.Fprintf(w, "! %s\n", v.Error)
	}
	fmt.Fprintln(w, "Commands: login <email> <password> | register")
}

// Submit runs the login attempt and keeps the failure message for
// re-render.
func (v *LoginView) Submit(ctx context.Context, gw *auth.Gateway, email, password string) auth.Result {
	res := gw.Login(ctx, email, password)
	if !res.Success {
		v.Error = res.Error
	}
	return res
}

// RegisterForm carries the registration fields. Confirm-password
// equality and the minimum password length are enforced here, before
// the gateway is involved.
type RegisterForm struct {
	Email           string
	Password        string
	ConfirmPassword string
	Role            model.Role
	ConsentGiven    bool
}

func (f RegisterForm) validate() string {
	if f.Password != f.ConfirmPassword {
		return "Passwords do not match."
	}
	if len(f.Password) < 6 {
		return "Password must be at least 6 characters."
	}
	return ""
}

// RegisterView is the unauthenticated registration screen.
type RegisterView struct {
	Form  RegisterForm
	Error string
}

func (v *RegisterView) Name() string { return "register" }

func (v *RegisterView) Render(w io.Writer) {
	fmt.Fprintln(w, "== Register ==")
	if v.Error != "" {
		fmt.Fprintf(w, "! %s\n", v.Error)
	}
	fmt.Fprintln(w, "Commands: register <email> <password> <confirm> [patient|provider] [consent] | login")
}

// Submit validates the form locally, then hands off to the gateway,
// which auto-logs-in on success.
func (v *RegisterView) Submit(ctx context.Context, gw *auth.Gateway) auth.Result {
	if msg := v.Form.validate(); msg != "" {
		v.Error = msg
		return auth.Result{Error: msg}
	}
	role := v.Form.Role
	if role == "" {
		role = model.RolePatient
	}
	res := gw.Register(ctx, v.Form.Email, v.Form.Password, role, v.Form.ConsentGiven)
	if !res.Success {
		v.Error = res.Error
	}
	return res
}
