// Package api is the REST client for the healthcare portal backend. It
// attaches the session's bearer credential to every request and
// normalizes backend error payloads; it keeps no cache of its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"healthcare-portal/internal/model"
	"healthcare-portal/pkg/logging"
)

// TokenSource yields the current bearer credential, or "" when the
// session is anonymous.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *logging.Logger
}

type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit caps outgoing requests per second. The default keeps the
// 30-second dashboard poll and interactive use well under any sane
// backend limit.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a portal API client. baseURL is the backend root,
// e.g. "http://localhost:8000".
func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do issues one JSON request. Bodies are marshalled from in, responses
// decoded into out when non-nil. Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api: rate limit wait: %w", err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error json.RawMessage `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		apiErr := &Error{StatusCode: resp.StatusCode, raw: payload.Error}
		c.logger.Debug("backend error", "method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message())
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s response: %w", path, err)
	}
	return nil
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string     `json:"token"`
	Role  model.Role `json:"role"`
}

// Login exchanges credentials for a fresh bearer token and role.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	in := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. Registration does not yield a usable
// session; callers log in afterwards.
func (c *Client) Register(ctx context.Context, email, password string, role model.Role, consentGiven bool) error {
	in := map[string]any{
		"email":         email,
		"password":      password,
		"role":          role,
		"consent_given": consentGiven,
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register/", in, nil)
}

// ListProviders returns provider summaries in backend order. Never nil.
func (c *Client) ListProviders(ctx context.Context) ([]model.Provider, error) {
	var out struct {
		Providers []model.Provider `json:"providers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/providers/", nil, &out); err != nil {
		return nil, err
	}
	if out.Providers == nil {
		out.Providers = []model.Provider{}
	}
	return out.Providers, nil
}

// GetProviderDetail fetches one provider's full record, including
// available hours. Absent hours come back as an empty mapping.
func (c *Client) GetProviderDetail(ctx context.Context, providerID string) (*model.ProviderDetail, error) {
	var out struct {
		Doctor model.ProviderDetail `json:"doctor"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/appointments/doctor/"+providerID+"/", nil, &out); err != nil {
		return nil, err
	}
	if out.Doctor.AvailableHours == nil {
		out.Doctor.AvailableHours = map[string]string{}
	}
	return &out.Doctor, nil
}

// ListAppointments returns the caller's appointments in backend order;
// the backend scopes the list by the authenticated role. Never nil.
func (c *Client) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	var out struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/appointments/", nil, &out); err != nil {
		return nil, err
	}
	if out.Appointments == nil {
		out.Appointments = []model.Appointment{}
	}
	return out.Appointments, nil
}

// CreateAppointment books with a provider. appointmentDate must already
// be the combined UTC instant string (see appointment.CombineDateTime).
func (c *Client) CreateAppointment(ctx context.Context, providerID, appointmentDate, reason string) (*model.Appointment, error) {
	in := map[string]string{
		"provider_id":      providerID,
		"appointment_date": appointmentDate,
		"reason":           reason,
	}
	var out struct {
		Appointment model.Appointment `json:"appointment"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/appointments/create/", in, &out); err != nil {
		return nil, err
	}
	return &out.Appointment, nil
}

// UpdateAppointment sets status and notes. Any status value may be sent
// regardless of the current one; enforcing a transition graph is the
// backend's business. Callers replace their local entry by id.
func (c *Client) UpdateAppointment(ctx context.Context, id string, status model.Status, notes string) (*model.Appointment, error) {
	in := map[string]string{
		"status": string(status),
		"notes":  notes,
	}
	var out struct {
		Appointment model.Appointment `json:"appointment"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/appointments/"+id+"/", in, &out); err != nil {
		return nil, err
	}
	return &out.Appointment, nil
}

// CancelAppointment cancels by id. On success callers rewrite the local
// entry's status to cancelled without re-fetching.
func (c *Client) CancelAppointment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/appointments/"+id+"/", nil, nil)
}
