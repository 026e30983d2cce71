// Package portaltest provides an in-process portal backend for tests.
// It implements the REST surface the client consumes (JWT bearer auth,
// bcrypt credential checks, role-scoped appointment listings) so client
// behavior can be exercised without a real deployment.
package portaltest

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"healthcare-portal/internal/model"
)

var errBadToken = errors.New("invalid token")

type user struct {
	id           string
	email        string
	passwordHash string
	role         model.Role
	consentGiven bool
}

type provider struct {
	email  string
	detail model.ProviderDetail
}

type Backend struct {
	secret string

	mu            sync.Mutex
	users         map[string]*user // by email
	providers     map[string]*provider
	providerOrder []string
	appointments  []model.Appointment
	requests      int
}

func New() *Backend {
	return &Backend{
		secret:    "portaltest-secret",
		users:     make(map[string]*user),
		providers: make(map[string]*provider),
	}
}

// AddUser seeds an account and returns its id.
func (b *Backend) AddUser(email, password string, role model.Role) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	b.mu.Lock()
	defer b.mu.Unlock()
	u := &user{
		id:           uuid.New().String(),
		email:        email,
		passwordHash: string(hash),
		role:         role,
		consentGiven: true,
	}
	b.users[email] = u
	return u.id
}

// AddProvider seeds a provider account plus its bookable detail record
// and returns the provider's user id.
func (b *Backend) AddProvider(email, password, specialty, clinicAddress string, hours map[string]string) string {
	id := b.AddUser(email, password, model.RoleProvider)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers[id] = &provider{
		email: email,
		detail: model.ProviderDetail{
			UserID:         id,
			Specialty:      specialty,
			ClinicAddress:  clinicAddress,
			AvailableHours: hours,
		},
	}
	b.providerOrder = append(b.providerOrder, id)
	return id
}

// SeedAppointment inserts an appointment directly, bypassing the create
// endpoint.
func (b *Backend) SeedAppointment(a model.Appointment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	b.appointments = append(b.appointments, a)
}

// Appointment returns the stored record by id.
func (b *Backend) Appointment(id string) (model.Appointment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return model.Appointment{}, false
}

// Requests reports the total number of HTTP requests served.
func (b *Backend) Requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

// MintToken issues a bearer token for a seeded user, for tests that
// need an authenticated session without going through login.
func (b *Backend) MintToken(email string) (string, error) {
	b.mu.Lock()
	u, ok := b.users[email]
	b.mu.Unlock()
	if !ok {
		return "", errBadToken
	}
	return b.makeToken(u)
}

type claims struct {
	UserID string     `json:"uid"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (b *Backend) makeToken(u *user) (string, error) {
	c := claims{
		UserID: u.id,
		Email:  u.email,
		Role:   u.role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(b.secret))
}

func (b *Backend) parseToken(raw string) (*claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return []byte(b.secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return nil, errBadToken
	}
	return c, nil
}

// Handler returns the backend's HTTP surface.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register/{$}", b.handleRegister)
	mux.HandleFunc("POST /api/auth/login/{$}", b.handleLogin)
	mux.HandleFunc("GET /api/providers/{$}", b.handleProviders)
	mux.HandleFunc("GET /api/appointments/doctor/{id}/{$}", b.handleProviderDetail)
	mux.HandleFunc("GET /api/appointments/{$}", b.handleListAppointments)
	mux.HandleFunc("POST /api/appointments/create/{$}", b.handleCreateAppointment)
	mux.HandleFunc("PUT /api/appointments/{id}/{$}", b.handleUpdateAppointment)
	mux.HandleFunc("DELETE /api/appointments/{id}/{$}", b.handleCancelAppointment)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests++
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, map[string]any{"error": payload})
}

// authenticate resolves the bearer token to a seeded user.
func (b *Backend) authenticate(w http.ResponseWriter, r *http.Request) (*user, bool) {
	raw := r.Header.Get("Authorization")
	if len(raw) < 8 || raw[:7] != "Bearer " {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	c, err := b.parseToken(raw[7:])
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	b.mu.Lock()
	u, ok := b.users[c.Email]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	return u, true
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string     `json:"email"`
		Password     string     `json:"password"`
		Role         model.Role `json:"role"`
		ConsentGiven bool       `json:"consent_given"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, map[string]string{"email": "This field is required."})
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, map[string]string{"password": "Ensure this field has at least 6 characters."})
		return
	}
	if req.Role != model.RolePatient {
		writeError(w, http.StatusForbidden, "Only patients can register. Doctors are pre-loaded in the system.")
		return
	}

	b.mu.Lock()
	_, exists := b.users[req.Email]
	b.mu.Unlock()
	if exists {
		// serializer-style field-keyed conflict
		writeError(w, http.StatusBadRequest, map[string]string{"email": "user with this email already exists."})
		return
	}

	b.AddUser(req.Email, req.Password, model.RolePatient)
	b.mu.Lock()
	b.users[req.Email].consentGiven = req.ConsentGiven
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	u, ok := b.users[req.Email]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tok, err := b.makeToken(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   tok,
		"role":    u.role,
		"message": "Login successful",
	})
}

func (b *Backend) handleProviders(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r); !ok {
		return
	}
	b.mu.Lock()
	out := make([]model.Provider, 0, len(b.providerOrder))
	for _, id := range b.providerOrder {
		d := b.providers[id].detail
		out = append(out, model.Provider{UserID: d.UserID, Specialty: d.Specialty, ClinicAddress: d.ClinicAddress})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"providers": out})
}

func (b *Backend) handleProviderDetail(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(w, r); !ok {
		return
	}
	b.mu.Lock()
	p, ok := b.providers[r.PathValue("id")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Provider not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctor": p.detail})
}

func (b *Backend) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	out := make([]model.Appointment, 0, len(b.appointments))
	for _, a := range b.appointments {
		if u.role == model.RoleProvider && a.ProviderEmail == u.email {
			out = append(out, a)
		}
		if u.role == model.RolePatient && a.PatientEmail == u.email {
			out = append(out, a)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (b *Backend) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}
	var req struct {
		ProviderID      string `json:"provider_id"`
		AppointmentDate string `json:"appointment_date"`
		Reason          string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id and appointment_date are required")
		return
	}
	when, err := time.Parse(time.RFC3339, req.AppointmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment_date")
		return
	}

	b.mu.Lock()
	p, ok := b.providers[req.ProviderID]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Provider not found")
		return
	}

	a := model.Appointment{
		ID:              uuid.New().String(),
		PatientID:       u.id,
		ProviderID:      req.ProviderID,
		PatientEmail:    u.email,
		ProviderEmail:   p.email,
		AppointmentDate: when,
		Status:          model.StatusPending,
		Reason:          req.Reason,
		CreatedAt:       time.Now().UTC(),
	}
	b.mu.Lock()
	b.appointments = append(b.appointments, a)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"appointment": a})
}

var validStatuses = map[model.Status]bool{
	model.StatusPending:   true,
	model.StatusConfirmed: true,
	model.StatusCompleted: true,
	model.StatusCancelled: true,
}

func (b *Backend) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}
	var req struct {
		Status model.Status `json:"status"`
		Notes  string       `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.appointments {
		if b.appointments[i].ID == id && b.appointments[i].ProviderEmail == u.email {
			b.appointments[i].Status = req.Status
			b.appointments[i].Notes = req.Notes
			b.appointments[i].UpdatedAt = time.Now().UTC()
			writeJSON(w, http.StatusOK, map[string]any{"appointment": b.appointments[i]})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Appointment not found")
}

func (b *Backend) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	u, ok := b.authenticate(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.appointments {
		if b.appointments[i].ID == id && b.appointments[i].PatientEmail == u.email {
			b.appointments[i].Status = model.StatusCancelled
			b.appointments[i].UpdatedAt = time.Now().UTC()
			writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment cancelled"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Appointment not found")
}
