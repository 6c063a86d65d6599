package domain

import (
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"
)

type Status string

const (
	// StatusNone is the pseudo-state of a record that does not exist yet.
	StatusNone      Status = ""
	StatusBooked    Status = "booked"
	StatusReserved  Status = "reserved"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts only the closed set of persisted statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusBooked, StatusReserved, StatusExpired, StatusCancelled:
		return st, nil
	default:
		return StatusNone, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// IsActive reports whether the status holds capacity and counts as the requester's claim.
func (s Status) IsActive() bool {
	return s == StatusBooked || s == StatusReserved
}

func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusNone:     {StatusBooked, StatusReserved},
	StatusBooked:   {StatusReserved, StatusExpired, StatusCancelled},
	StatusReserved: {StatusExpired, StatusCancelled},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition is CanTransition as an error, for use by mutators.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, displayStatus(from), to)
	}
	return nil
}

func displayStatus(s Status) string {
	if s == StatusNone {
		return "none"
	}
	return string(s)
}

// Reservation is a requester's claim on a zone for a time window.
type Reservation struct {
	ID          string
	RequesterID string
	ZoneID      string
	FromTime    time.Time
	ToTime      time.Time
	Status      Status
	// ParkedAt is set when the record enters reserved and kept afterwards.
	ParkedAt  null.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Reservation) Window() Window {
	return Window{From: r.FromTime, To: r.ToTime}
}
