package domain

import "errors"

var (
	ErrMissingField        = errors.New("missing required fields")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrPreBookNotFuture    = errors.New("pre-bookings must be for future time, use reserve for immediate reservations")
	ErrReserveNotPresent   = errors.New("reservations must start now or earlier, use prebook for future time windows")
	ErrWindowEnded         = errors.New("reservation window has already ended")
	ErrZoneNameRequired    = errors.New("zone name required")
	ErrInvalidCapacity     = errors.New("capacity must be at least 1")
	ErrInvalidStatus       = errors.New("invalid reservation status")
	ErrZoneNotFound        = errors.New("zone not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrActiveClaimExists       = errors.New("you already have an active pre-booking or reservation in this zone")
	ErrActiveReservationExists = errors.New("you already have an active reservation in this zone, only one active action per zone allowed")
	ErrZoneFullForWindow       = errors.New("zone is fully booked for this time range")
	ErrZoneFull                = errors.New("zone is fully booked, no available spots")
	ErrWindowMismatch          = errors.New("your reservation time must overlap your pre-booking time window")
	ErrZoneAlreadyExists       = errors.New("zone already exists")
	ErrConcurrentUpdate        = errors.New("reservation changed concurrently, retry")

	ErrNotCancellable    = errors.New("cannot cancel reservation with status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Kind is the caller-facing classification of an error.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindInternal     Kind = "internal"
)

var classes = []struct {
	err  error
	kind Kind
	code string
}{
	{ErrMissingField, KindInvalidInput, "missing_required_field"},
	{ErrInvalidID, KindInvalidInput, "invalid_id"},
	{ErrInvalidTimeRange, KindInvalidInput, "invalid_time_range"},
	{ErrPreBookNotFuture, KindInvalidInput, "prebook_not_future"},
	{ErrReserveNotPresent, KindInvalidInput, "reserve_not_present"},
	{ErrWindowEnded, KindInvalidInput, "window_ended"},
	{ErrZoneNameRequired, KindInvalidInput, "zone_name_required"},
	{ErrInvalidCapacity, KindInvalidInput, "invalid_capacity"},
	{ErrInvalidStatus, KindInvalidInput, "invalid_status"},
	{ErrZoneNotFound, KindNotFound, "zone_not_found"},
	{ErrReservationNotFound, KindNotFound, "reservation_not_found"},
	{ErrActiveClaimExists, KindConflict, "active_claim_exists"},
	{ErrActiveReservationExists, KindConflict, "active_reservation_exists"},
	{ErrZoneFullForWindow, KindConflict, "zone_full_for_window"},
	{ErrZoneFull, KindConflict, "zone_full"},
	{ErrWindowMismatch, KindConflict, "window_mismatch"},
	{ErrZoneAlreadyExists, KindConflict, "zone_already_exists"},
	{ErrConcurrentUpdate, KindConflict, "concurrent_update"},
	{ErrNotCancellable, KindInvalidState, "not_cancellable"},
	{ErrInvalidTransition, KindInvalidState, "invalid_transition"},
}

// CodeInternal is the machine code of every unclassified error.
const CodeInternal = "internal_error"

// KindOf classifies err. Errors that wrap none of the domain sentinels are Internal.
func KindOf(err error) Kind {
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c.kind
		}
	}
	return KindInternal
}

// CodeOf returns the stable machine code for err.
func CodeOf(err error) string {
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// MessageOf returns the caller-facing text for err. Storage detail never leaks.
func MessageOf(err error) string {
	switch {
	case KindOf(err) == KindInternal:
		return "internal error"
	case errors.Is(err, ErrConcurrentUpdate):
		return ErrConcurrentUpdate.Error()
	}
	return err.Error()
}
