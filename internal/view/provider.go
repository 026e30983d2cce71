package view

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/appointment"
	"healthcare-portal/internal/model"
	"healthcare-portal/pkg/logging"
)

const msgUpdateFailed = "Failed to update appointment. Please try again."

// defaultPollInterval matches the portal's 30-second dashboard refresh.
const defaultPollInterval = 30 * time.Second

// ProviderDashboard is the doctor's view: stats, upcoming and past
// appointments, and status updates. A background poll loop refreshes
// the list while the view is mounted; its list is guarded because the
// poll goroutine and the command loop both touch it.
type ProviderDashboard struct {
	client    *api.Client
	logger    *logging.Logger
	principal model.Principal
	interval  time.Duration
	now       func() time.Time

	mu           sync.Mutex
	appointments []model.Appointment
	errMsg       string
	loading      bool
}

func NewProviderDashboard(client *api.Client, principal model.Principal, logger *logging.Logger) *ProviderDashboard {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProviderDashboard{
		client:    client,
		logger:    logger,
		principal: principal,
		interval:  defaultPollInterval,
		now:       time.Now,
	}
}

func (d *ProviderDashboard) WithInterval(interval time.Duration) *ProviderDashboard {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

func (d *ProviderDashboard) Name() string { return "provider" }

// Run fetches immediately, then re-fetches on every tick until ctx is
// cancelled. Cancelling ctx is the view teardown: it stops the ticker
// and abandons any in-flight fetch.
func (d *ProviderDashboard) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	d.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Refresh(ctx)
		}
	}
}

// Refresh replaces the list with the latest fetch result; whichever
// fetch completes last wins.
func (d *ProviderDashboard) Refresh(ctx context.Context) {
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	appts, err := d.client.ListAppointments(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		if ctx.Err() != nil {
			// torn down mid-request; discard the result
			return
		}
		d.logger.Error("appointment fetch failed", "error", err)
		d.errMsg = msgFetchAppointments
		return
	}
	d.appointments = appts
	d.errMsg = ""
}

// Update sets an appointment's status and notes, then replaces the
// local entry by id. No transition graph is enforced client-side.
func (d *ProviderDashboard) Update(ctx context.Context, id string, status model.Status, notes string) bool {
	updated, err := d.client.UpdateAppointment(ctx, id, status, notes)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.logger.Error("appointment update failed", "error", err, "appointment_id", id)
		d.errMsg = msgUpdateFailed
		return false
	}
	d.appointments = appointment.ReplaceByID(d.appointments, *updated)
	return true
}

// Appointments returns a copy of the current list.
func (d *ProviderDashboard) Appointments() []model.Appointment {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Appointment, len(d.appointments))
	copy(out, d.appointments)
	return out
}

// Error returns the current inline error message, if any.
func (d *ProviderDashboard) Error() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errMsg
}

func (d *ProviderDashboard) Render(w io.Writer) {
	d.mu.Lock()
	appts := make([]model.Appointment, len(d.appointments))
	copy(appts, d.appointments)
	errMsg := d.errMsg
	loading := d.loading
	d.mu.Unlock()

	now := d.now()

	fmt.Fprintln(w, "== Doctor's Dashboard ==")
	fmt.Fprintf(w, "Signed in as %s\n", d.principal.Email)
	if errMsg != "" {
		fmt.Fprintf(w, "! %s\n", errMsg)
	}

	fmt.Fprintf(w, "Pending: %d  Confirmed: %d  Total: %d\n",
		appointment.CountByStatus(appts, model.StatusPending),
		appointment.CountByStatus(appts, model.StatusConfirmed),
		len(appts),
	)

	if loading {
		fmt.Fprintln(w, "Loading appointments...")
		return
	}

	if upcoming := appointment.Upcoming(appts, now); len(upcoming) > 0 {
		fmt.Fprintln(w, "Upcoming Appointments:")
		for _, a := range upcoming {
			d.renderCard(w, a, true)
		}
	}

	if past := appointment.Limit(appointment.Past(appts, now), appointment.PastDisplayLimit); len(past) > 0 {
		fmt.Fprintln(w, "Past Appointments:")
		for _, a := range past {
			d.renderCard(w, a, false)
		}
	}

	if len(appts) == 0 {
		fmt.Fprintln(w, "No appointments booked yet.")
	}

	fmt.Fprintln(w, "Commands: update <id> <status> [notes] | refresh | logout")
}

func (d *ProviderDashboard) renderCard(w io.Writer, a model.Appointment, updatable bool) {
	fmt.Fprintf(w, "  [%s] %s — %s\n", a.ID, displayStatus(a.Status), formatDate(a.AppointmentDate))
	fmt.Fprintf(w, "    Patient Email: %s\n", a.PatientEmail)
	if a.Reason != "" {
		fmt.Fprintf(w, "    Reason: %s\n", a.Reason)
	}
	if a.Notes != "" {
		fmt.Fprintf(w, "    Notes: %s\n", a.Notes)
	}
	if updatable {
		fmt.Fprintf(w, "    (update %s <status> [notes])\n", a.ID)
	}
}
