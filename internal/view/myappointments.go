package view

import (
	"context"
	"fmt"
	"io"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/appointment"
	"healthcare-portal/internal/model"
	"healthcare-portal/pkg/logging"
)

const (
	msgFetchAppointments = "Failed to fetch appointments. Please try again."
	msgCancelFailed      = "Failed to cancel appointment. Please try again."
)

// MyAppointmentsView is the patient's full appointment list. Unlike the
// provider dashboard it shows every entry, untruncated and in backend
// order.
type MyAppointmentsView struct {
	client *api.Client
	logger *logging.Logger

	Appointments []model.Appointment
	Error        string
	Loading      bool
}

func NewMyAppointmentsView(client *api.Client, logger *logging.Logger) *MyAppointmentsView {
	if logger == nil {
		logger = logging.Default()
	}
	return &MyAppointmentsView{client: client, logger: logger}
}

func (v *MyAppointmentsView) Name() string { return "myappointments" }

// Load fetches the patient's appointments; the latest completed fetch
// wins.
func (v *MyAppointmentsView) Load(ctx context.Context) {
	v.Loading = true
	defer func() { v.Loading = false }()

	appts, err := v.client.ListAppointments(ctx)
	if err != nil {
		v.logger.Error("appointment fetch failed", "error", err)
		v.Error = msgFetchAppointments
		return
	}
	v.Appointments = appts
	v.Error = ""
}

// CanCancel reports whether the cancel action is offered for an entry.
// Only pending appointments show it; the client call itself carries no
// precondition.
func (v *MyAppointmentsView) CanCancel(id string) bool {
	for _, a := range v.Appointments {
		if a.ID == id {
			return a.Status == model.StatusPending
		}
	}
	return false
}

// Cancel issues the cancel and, on success, rewrites the local entry to
// cancelled without re-fetching. A second cancel of the same entry
// changes nothing.
func (v *MyAppointmentsView) Cancel(ctx context.Context, id string) bool {
	if err := v.client.CancelAppointment(ctx, id); err != nil {
		v.logger.Error("cancel failed", "error", err, "appointment_id", id)
		v.Error = msgCancelFailed
		return false
	}
	v.Appointments = appointment.MarkCancelled(v.Appointments, id)
	return true
}

func (v *MyAppointmentsView) Render(w io.Writer) {
	fmt.Fprintln(w, "== My Appointments ==")
	if v.Error != "" {
		fmt.Fprintf(w, "! %s\n", v.Error)
	}
	if v.Loading {
		fmt.Fprintln(w, "Loading your appointments...")
		return
	}
	if len(v.Appointments) == 0 {
		fmt.Fprintln(w, "You don't have any appointments yet.")
		fmt.Fprintln(w, "Book your first appointment to get started!")
		return
	}

	for _, a := range v.Appointments {
		fmt.Fprintf(w, "[%s] %s — %s\n", a.ID, formatDate(a.AppointmentDate), displayStatus(a.Status))
		if a.Reason != "" {
			fmt.Fprintf(w, "  Reason: %s\n", a.Reason)
		}
		fmt.Fprintf(w, "  Provider Email: %s\n", a.ProviderEmail)
		if a.Notes != "" {
			fmt.Fprintf(w, "  Doctor's Notes: %s\n", a.Notes)
		}
		fmt.Fprintf(w, "  Booked on: %s\n", formatDate(a.CreatedAt))
		if a.Status == model.StatusPending {
			fmt.Fprintln(w, "  (cancellable: cancel " + a.ID + ")")
		}
	}
	fmt.Fprintln(w, "Commands: cancel <id> | home")
}
