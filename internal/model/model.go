package model

import "time"

type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
)

// Principal is the authenticated identity for the current session.
// Immutable once set; a role change requires re-authentication.
type Principal struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id,omitempty"`
	ProviderID      string    `json:"provider_id,omitempty"`
	PatientEmail    string    `json:"patient_email"`
	ProviderEmail   string    `json:"provider_email"`
	AppointmentDate time.Time `json:"appointment_date"`
	Status          Status    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Provider is the summary row returned by the provider listing.
type Provider struct {
	UserID        string `json:"user_id"`
	Specialty     string `json:"specialty"`
	ClinicAddress string `json:"clinic_address,omitempty"`
}

// ProviderDetail carries the full provider record shown during booking.
type ProviderDetail struct {
	UserID         string            `json:"user_id"`
	Specialty      string            `json:"specialty"`
	ClinicAddress  string            `json:"clinic_address,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	AvailableHours map[string]string `json:"available_hours,omitempty"`
}
