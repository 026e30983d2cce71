package view

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/model"
	"healthcare-portal/internal/session"
	"healthcare-portal/pkg/logging"
)

type loadingView struct{}

func (loadingView) Name() string       { return "loading" }
func (loadingView) Render(w io.Writer) { fmt.Fprintln(w, "Loading...") }

type patientScreen int

const (
	screenHome patientScreen = iota
	screenBooking
	screenMyAppointments
)

// Router chooses the active view from the session state and a local
// screen selector. There is no history stack and no URL: the role is
// dispatched once per session, then patient screens switch locally.
type Router struct {
	base     context.Context
	sessions *session.Store
	client   *api.Client
	logger   *logging.Logger

	mu           sync.Mutex
	registerMode bool
	screen       patientScreen

	login    *LoginView
	register *RegisterView
	home     *PatientHomeView
	booking  *BookingView
	myAppts  *MyAppointmentsView
	provider *ProviderDashboard

	viewCancel     context.CancelFunc
	providerCancel context.CancelFunc
	pollInterval   time.Duration
}

func NewRouter(ctx context.Context, sessions *session.Store, client *api.Client, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Router{
		base:     ctx,
		sessions: sessions,
		client:   client,
		logger:   logger,
		login:    &LoginView{},
		register: &RegisterView{Form: RegisterForm{Role: model.RolePatient}},
	}
	sessions.Subscribe(r.onSession)
	return r
}

// WithPollInterval overrides the provider dashboard refresh period.
func (r *Router) WithPollInterval(d time.Duration) *Router {
	r.mu.Lock()
	r.pollInterval = d
	r.mu.Unlock()
	return r
}

// onSession reacts to session transitions: it mounts the role-specific
// dashboard on login and tears everything down on logout.
func (r *Router) onSession(s session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch s.State {
	case session.StateAuthenticated:
		r.teardownLocked()
		r.screen = screenHome
		if s.Principal.Role == model.RoleProvider {
			r.provider = NewProviderDashboard(r.client, s.Principal, r.logger)
			if r.pollInterval > 0 {
				r.provider.WithInterval(r.pollInterval)
			}
			ctx, cancel := context.WithCancel(r.base)
			r.providerCancel = cancel
			go r.provider.Run(ctx)
		} else {
			r.home = &PatientHomeView{Principal: s.Principal}
		}
	case session.StateAnonymous:
		r.teardownLocked()
		r.registerMode = false
		r.login = &LoginView{}
		r.register = &RegisterView{Form: RegisterForm{Role: model.RolePatient}}
	}
}

// teardownLocked cancels the poll loop and any in-flight view work and
// drops the mounted views. Callers hold r.mu.
func (r *Router) teardownLocked() {
	if r.providerCancel != nil {
		r.providerCancel()
		r.providerCancel = nil
	}
	if r.viewCancel != nil {
		r.viewCancel()
		r.viewCancel = nil
	}
	r.provider = nil
	r.home = nil
	r.booking = nil
	r.myAppts = nil
}

// viewCtx tears down the previous patient screen's in-flight work and
// opens a context for the next one. Callers hold r.mu.
func (r *Router) viewCtx() context.Context {
	if r.viewCancel != nil {
		r.viewCancel()
	}
	ctx, cancel := context.WithCancel(r.base)
	r.viewCancel = cancel
	return ctx
}

// ShowLogin and ShowRegister toggle the two unauthenticated screens.
func (r *Router) ShowLogin() {
	r.mu.Lock()
	r.registerMode = false
	r.mu.Unlock()
}

func (r *Router) ShowRegister() {
	r.mu.Lock()
	r.registerMode = true
	r.mu.Unlock()
}

// ShowHome returns a patient to the landing screen.
func (r *Router) ShowHome() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.viewCancel != nil {
		r.viewCancel()
		r.viewCancel = nil
	}
	r.screen = screenHome
	r.booking = nil
	r.myAppts = nil
}

// ShowBooking mounts the booking screen and loads the provider list.
func (r *Router) ShowBooking() *BookingView {
	r.mu.Lock()
	ctx := r.viewCtx()
	r.screen = screenBooking
	r.booking = NewBookingView(r.client, r.logger)
	r.myAppts = nil
	v := r.booking
	r.mu.Unlock()

	v.Load(ctx)
	return v
}

// ShowMyAppointments mounts the patient list screen and loads it.
func (r *Router) ShowMyAppointments() *MyAppointmentsView {
	r.mu.Lock()
	ctx := r.viewCtx()
	r.screen = screenMyAppointments
	r.myAppts = NewMyAppointmentsView(r.client, r.logger)
	r.booking = nil
	v := r.myAppts
	r.mu.Unlock()

	v.Load(ctx)
	return v
}

// Login and Register expose the unauthenticated form views.
func (r *Router) Login() *LoginView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.login
}

func (r *Router) Register() *RegisterView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register
}

// Provider returns the mounted provider dashboard, or nil.
func (r *Router) Provider() *ProviderDashboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.provider
}

// Booking and MyAppointments return the mounted patient screens, or nil.
func (r *Router) Booking() *BookingView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booking
}

func (r *Router) MyAppointments() *MyAppointmentsView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.myAppts
}

// Active resolves the view to render for the current session state.
func (r *Router) Active() View {
	s := r.sessions.Current()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch s.State {
	case session.StateUninitialized, session.StateLoading:
		return loadingView{}
	case session.StateAnonymous:
		if r.registerMode {
			return r.register
		}
		return r.login
	}

	// authenticated: dispatch on role once
	switch s.Principal.Role {
	case model.RoleProvider:
		return r.provider
	default:
		switch r.screen {
		case screenBooking:
			return r.booking
		case screenMyAppointments:
			return r.myAppts
		default:
			return r.home
		}
	}
}
