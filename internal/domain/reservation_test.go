package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := map[[2]Status]bool{
		{StatusNone, StatusBooked}:        true,
		{StatusNone, StatusReserved}:      true,
		{StatusBooked, StatusReserved}:    true,
		{StatusBooked, StatusExpired}:     true,
		{StatusBooked, StatusCancelled}:   true,
		{StatusReserved, StatusExpired}:   true,
		{StatusReserved, StatusCancelled}: true,
	}
	all := []Status{StatusNone, StatusBooked, StatusReserved, StatusExpired, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%q, %q): expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestValidateTransition_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	for _, from := range []Status{StatusExpired, StatusCancelled} {
		for _, to := range []Status{StatusBooked, StatusReserved, StatusExpired, StatusCancelled} {
			err := ValidateTransition(from, to)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition for %s -> %s, got %v", from, to, err)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	st, err := ParseStatus("reserved")
	if err != nil || st != StatusReserved {
		t.Fatalf("expected reserved, got %q (%v)", st, err)
	}
	if _, err := ParseStatus("rejected"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := ParseStatus(""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for empty status, got %v", err)
	}
}

func TestCountOverlapping(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	records := []Reservation{
		{ID: "a", Status: StatusReserved, FromTime: base, ToTime: base.Add(time.Hour)},
		{ID: "b", Status: StatusBooked, FromTime: base.Add(30 * time.Minute), ToTime: base.Add(2 * time.Hour)},
		{ID: "c", Status: StatusCancelled, FromTime: base, ToTime: base.Add(time.Hour)},
		{ID: "d", Status: StatusBooked, FromTime: base.Add(time.Hour), ToTime: base.Add(2 * time.Hour)},
	}
	w := Window{From: base, To: base.Add(time.Hour)}

	if got := CountOverlapping(records, w, ""); got != 2 {
		t.Fatalf("expected 2 overlapping, got %d", got)
	}
	if got := CountOverlapping(records, w, "a"); got != 1 {
		t.Fatalf("expected 1 overlapping with exclusion, got %d", got)
	}

	counts := CountByStatus(records)
	if counts.Booked != 2 || counts.Reserved != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if got := OverallAvailable(3, counts); got != 0 {
		t.Fatalf("expected 0 overall available, got %d", got)
	}
	if !WindowAdmissible(0, 1) || WindowAdmissible(1, 1) {
		t.Fatalf("expected admissible iff overlapping < capacity")
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Kind
	}{
		{ErrInvalidTimeRange, KindInvalidInput},
		{ErrZoneNotFound, KindNotFound},
		{ErrZoneFull, KindConflict},
		{ErrConcurrentUpdate, KindConflict},
		{ValidateTransition(StatusExpired, StatusCancelled), KindInvalidState},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Fatalf("KindOf(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestCodeAndMessageOf(t *testing.T) {
	t.Parallel()

	joined := errors.Join(ErrConcurrentUpdate, errors.New("ERROR: could not serialize access (SQLSTATE 40001)"))
	if CodeOf(joined) != "concurrent_update" {
		t.Fatalf("unexpected code %q", CodeOf(joined))
	}
	if MessageOf(joined) != ErrConcurrentUpdate.Error() {
		t.Fatalf("expected storage detail hidden, got %q", MessageOf(joined))
	}

	notCancellable := fmt.Errorf("%w: %s", ErrNotCancellable, StatusExpired)
	if CodeOf(notCancellable) != "not_cancellable" {
		t.Fatalf("unexpected code %q", CodeOf(notCancellable))
	}
	if MessageOf(notCancellable) != "cannot cancel reservation with status: expired" {
		t.Fatalf("unexpected message %q", MessageOf(notCancellable))
	}

	boom := fmt.Errorf("create reservation: %w", errors.New("connection reset"))
	if CodeOf(boom) != CodeInternal || MessageOf(boom) != "internal error" {
		t.Fatalf("expected opaque internal error, got %q %q", CodeOf(boom), MessageOf(boom))
	}
}
