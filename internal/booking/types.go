// Package booking talks to the external scheduling integration through the
// bridge: event-type discovery and appointment booking on behalf of a bot owner.
package booking

import (
	"errors"
	"time"
)

var (
	// ErrNotConfigured means the user has no scheduling integration. It is a
	// normal condition, not a failure.
	ErrNotConfigured = errors.New("booking: integration not configured")
	// ErrTransport wraps every bridge failure: spawn, exit code, timeout, HTTP
	// status, malformed output or a worker-reported error.
	ErrTransport = errors.New("booking: bridge transport failure")
)

// EventType is a bookable meeting template of the scheduling system.
type EventType struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration"`
	SchedulingURL   string `json:"scheduling_url"`
	URI             string `json:"uri"`
}

// Participant is the invitee recorded on a booking.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Status classifies a booking attempt.
type Status string

const (
	StatusBooked        Status = "booked"
	StatusMissingFields Status = "missing_fields"
	StatusError         Status = "error"
)

// BookingResult is the typed outcome of BookAppointment. Error carries
// operator diagnostics and is never shown to visitors.
type BookingResult struct {
	Status        Status      `json:"status"`
	Message       string      `json:"message,omitempty"`
	BookingLink   string      `json:"booking_link,omitempty"`
	EventName     string      `json:"event_name,omitempty"`
	Participant   Participant `json:"participant"`
	PreferredTime string      `json:"preferred_time,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	MissingFields []string    `json:"missing_fields,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// Booked reports whether the worker confirmed the booking.
func (r BookingResult) Booked() bool {
	return r.Status == StatusBooked
}

// Credential is the per-user integration record owned by the integrations
// subsystem. The engine only reads it.
type Credential struct {
	UserID      string
	AccessToken string
	// BridgeURL routes bridge calls over HTTP when set.
	BridgeURL string
	UpdatedAt time.Time
}
