package view

import (
	"context"
	"fmt"
	"io"
	"time"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/appointment"
	"healthcare-portal/internal/model"
	"healthcare-portal/pkg/logging"
)

// Booking view messages, matching the portal's wording.
const (
	msgBookingSuccess = "Appointment booked successfully! The doctor will confirm your appointment shortly."
	msgMissingFields  = "Please fill in all required fields"
	msgPastDate       = "Appointment date cannot be in the past"
	msgFetchDoctors   = "Failed to fetch doctors. Please try again."
	msgBookingFailed  = "Failed to book appointment. Please try again."
)

// BookingView is the patient booking screen. It is driven by a single
// goroutine (the command loop); like every dashboard view its list is
// local and never shared.
type BookingView struct {
	client *api.Client
	logger *logging.Logger
	now    func() time.Time

	Providers []model.Provider
	Detail    *model.ProviderDetail

	ProviderID string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	Reason     string

	Error   string
	Success string
	Loading bool
}

func NewBookingView(client *api.Client, logger *logging.Logger) *BookingView {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingView{client: client, logger: logger, now: time.Now}
}

func (v *BookingView) Name() string { return "booking" }

// Load fetches the provider list.
func (v *BookingView) Load(ctx context.Context) {
	v.Loading = true
	defer func() { v.Loading = false }()

	providers, err := v.client.ListProviders(ctx)
	if err != nil {
		v.logger.Error("provider fetch failed", "error", err)
		v.Error = msgFetchDoctors
		return
	}
	v.Providers = providers
	v.Error = ""
}

// SelectProvider records the choice and fetches the provider's detail.
// A detail fetch failure is logged but not surfaced; booking can
// proceed without it.
func (v *BookingView) SelectProvider(ctx context.Context, providerID string) {
	v.ProviderID = providerID
	v.Detail = nil

	d, err := v.client.GetProviderDetail(ctx, providerID)
	if err != nil {
		v.logger.Warn("provider detail fetch failed", "error", err, "provider_id", providerID)
		return
	}
	v.Detail = d
}

// Submit validates locally, combines date and time into a UTC instant,
// and books. Missing required fields never reach the network. On
// success the form resets and the success message is set.
func (v *BookingView) Submit(ctx context.Context) bool {
	// a new attempt always drops the previous success banner
	v.Success = ""
	if v.ProviderID == "" || v.Date == "" || v.Time == "" {
		v.Error = msgMissingFields
		return false
	}
	if v.Date < v.now().UTC().Format("2006-01-02") {
		v.Error = msgPastDate
		return false
	}

	instant, err := appointment.CombineDateTime(v.Date, v.Time)
	if err != nil {
		v.Error = msgMissingFields
		return false
	}

	v.Loading = true
	defer func() { v.Loading = false }()
	v.Error = ""

	if _, err := v.client.CreateAppointment(ctx, v.ProviderID, instant, v.Reason); err != nil {
		if apiErr := api.AsError(err); apiErr != nil && apiErr.Message() != "" {
			v.Error = apiErr.Message()
		} else {
			v.logger.Error("booking failed", "error", err)
			v.Error = msgBookingFailed
		}
		return false
	}

	v.Success = msgBookingSuccess
	v.ProviderID = ""
	v.Date = ""
	v.Time = ""
	v.Reason = ""
	return true
}

func (v *BookingView) Render(w io.Writer) {
	fmt.Fprintln(w, "== Book an Appointment ==")
	if v.Error != "" {
		fmt.Fprintf(w, "! %s\n", v.Error)
	}
	if v.Success != "" {
		fmt.Fprintf(w, "* %s\n", v.Success)
	}
	if v.Loading {
		fmt.Fprintln(w, "Loading...")
		return
	}

	fmt.Fprintln(w, "Doctors:")
	for _, p := range v.Providers {
		addr := p.ClinicAddress
		if addr == "" {
			addr = "Location not specified"
		}
		fmt.Fprintf(w, "  [%s] %s - %s\n", p.UserID, p.Specialty, addr)
	}

	if v.Detail != nil {
		fmt.Fprintln(w, "Doctor Information:")
		fmt.Fprintf(w, "  Specialty: %s\n", v.Detail.Specialty)
		fmt.Fprintf(w, "  Location: %s\n", v.Detail.ClinicAddress)
		fmt.Fprintln(w, "  Available Hours:")
		for day, hours := range v.Detail.AvailableHours {
			fmt.Fprintf(w, "    %s: %s\n", day, hours)
		}
	}

	fmt.Fprintln(w, "Commands: doctor <id> | date <YYYY-MM-DD> | time <HH:MM> | reason <text> | submit | home")
}
