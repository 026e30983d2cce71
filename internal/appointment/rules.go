// Package appointment implements the view-level derivation rules over
// appointment lists: the Upcoming/Past display buckets, status counts,
// and the local list rewrites that follow a mutation.
package appointment

import (
	"errors"
	"time"

	"healthcare-portal/internal/model"
)

// PastDisplayLimit caps the past list on the provider dashboard. The
// patient my-appointments view shows the full list.
const PastDisplayLimit = 5

var (
	ErrMissingFields = errors.New("appointment: provider, date and time are required")
	ErrBadDate       = errors.New("appointment: date must be YYYY-MM-DD")
	ErrBadTime       = errors.New("appointment: time must be HH:MM")
)

// Upcoming returns appointments strictly after now that are still
// pending or confirmed, preserving input order.
func Upcoming(list []model.Appointment, now time.Time) []model.Appointment {
	out := []model.Appointment{}
	for _, a := range list {
		if a.AppointmentDate.After(now) && (a.Status == model.StatusPending || a.Status == model.StatusConfirmed) {
			out = append(out, a)
		}
	}
	return out
}

// Past returns appointments at or before now, plus completed ones
// regardless of date. Upcoming and Past are deliberately not a
// partition: a cancelled appointment with a future date lands in
// neither bucket.
func Past(list []model.Appointment, now time.Time) []model.Appointment {
	out := []model.Appointment{}
	for _, a := range list {
		if !a.AppointmentDate.After(now) || a.Status == model.StatusCompleted {
			out = append(out, a)
		}
	}
	return out
}

// Limit truncates to the first n entries for display.
func Limit(list []model.Appointment, n int) []model.Appointment {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

// CountByStatus counts over the full list, independent of the
// Upcoming/Past split.
func CountByStatus(list []model.Appointment, status model.Status) int {
	n := 0
	for _, a := range list {
		if a.Status == status {
			n++
		}
	}
	return n
}

// ReplaceByID swaps in updated wherever ids match, in place.
func ReplaceByID(list []model.Appointment, updated model.Appointment) []model.Appointment {
	for i := range list {
		if list[i].ID == updated.ID {
			list[i] = updated
		}
	}
	return list
}

// MarkCancelled rewrites the matching entry's status to cancelled
// without a re-fetch. Cancelling an already-cancelled entry is a no-op;
// there is a single logical transition to cancelled.
func MarkCancelled(list []model.Appointment, id string) []model.Appointment {
	for i := range list {
		if list[i].ID == id {
			list[i].Status = model.StatusCancelled
		}
	}
	return list
}

// CombineDateTime joins a YYYY-MM-DD date and an HH:MM time into the
// single UTC instant string sent to the backend, e.g.
// "2025-06-01T14:30:00Z".
func CombineDateTime(date, clock string) (string, error) {
	if date == "" || clock == "" {
		return "", ErrMissingFields
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", ErrBadDate
	}
	if _, err := time.Parse("15:04", clock); err != nil {
		return "", ErrBadTime
	}
	return date + "T" + clock + ":00Z", nil
}
