package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/clock"
	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"gopkg.in/guregu/null.v4"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetZoneForUpdate(ctx context.Context, zoneID string) (domain.Zone, error)
	FindActiveClaim(ctx context.Context, requesterID, zoneID string) (*domain.Reservation, error)
	CountOverlapping(ctx context.Context, zoneID string, w domain.Window, excludeID string) (int, error)
	CountActiveByStatus(ctx context.Context, zoneID string) (domain.StatusCounts, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	ConvertToReserved(ctx context.Context, id string, w domain.Window, parkedAt time.Time) error
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error
}

type AdmissionService struct {
	repo  ReservationRepository
	clock clock.Clock
}

func NewAdmissionService(repo ReservationRepository, clk clock.Clock) *AdmissionService {
	return &AdmissionService{
		repo:  repo,
		clock: clk,
	}
}

type AdmissionInput struct {
	RequesterID string
	ZoneID      string
	FromTime    time.Time
	ToTime      time.Time
}

func (in AdmissionInput) validate() (domain.Window, error) {
	if in.RequesterID == "" || in.ZoneID == "" || in.FromTime.IsZero() || in.ToTime.IsZero() {
		return domain.Window{}, domain.ErrMissingField
	}
	if err := validateID(in.ZoneID); err != nil {
		return domain.Window{}, err
	}
	return domain.NewWindow(in.FromTime, in.ToTime)
}

// Outcome tells callers how an admission request was satisfied.
type Outcome string

const (
	OutcomeBooked    Outcome = "booked"
	OutcomeCreated   Outcome = "created"
	OutcomeConverted Outcome = "converted"
	OutcomeExisting  Outcome = "existing"
)

type AdmissionResult struct {
	Reservation domain.Reservation
	Outcome     Outcome
}

// Created reports whether a new record was inserted.
func (r AdmissionResult) Created() bool {
	return r.Outcome == OutcomeBooked || r.Outcome == OutcomeCreated
}

func (r AdmissionResult) Message() string {
	switch r.Outcome {
	case OutcomeBooked:
		return "Pre-booking confirmed. Your reservation will activate at the scheduled time."
	case OutcomeCreated:
		return "Reservation confirmed. Parking is active and counted as reserved."
	case OutcomeConverted:
		return "Pre-booking converted to active reservation."
	case OutcomeExisting:
		return "You already have an active reservation for this time slot."
	default:
		return ""
	}
}

// PreBook claims a strictly future window as a booked record.
func (s *AdmissionService) PreBook(ctx context.Context, in AdmissionInput) (AdmissionResult, error) {
	window, err := in.validate()
	if err != nil {
		return AdmissionResult{}, err
	}

	now := s.clock.Now()
	if !window.From.After(now) {
		return AdmissionResult{}, domain.ErrPreBookNotFuture
	}
	if err := domain.ValidateTransition(domain.StatusNone, domain.StatusBooked); err != nil {
		return AdmissionResult{}, err
	}

	var result AdmissionResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		zone, err := s.repo.GetZoneForUpdate(txCtx, in.ZoneID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindActiveClaim(txCtx, in.RequesterID, in.ZoneID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrActiveClaimExists
		}

		overlapping, err := s.repo.CountOverlapping(txCtx, in.ZoneID, window, "")
		if err != nil {
			return err
		}
		if !domain.WindowAdmissible(overlapping, zone.Capacity) {
			return domain.ErrZoneFullForWindow
		}

		counts, err := s.repo.CountActiveByStatus(txCtx, in.ZoneID)
		if err != nil {
			return err
		}
		if domain.OverallAvailable(zone.Capacity, counts) <= 0 {
			return domain.ErrZoneFull
		}

		r := domain.Reservation{
			ID:          newID(),
			RequesterID: in.RequesterID,
			ZoneID:      in.ZoneID,
			FromTime:    window.From,
			ToTime:      window.To,
			Status:      domain.StatusBooked,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		// A concurrent insert for the same requester and zone surfaces here as ErrActiveClaimExists.
		if err := s.repo.CreateReservation(txCtx, r); err != nil {
			return err
		}

		result = AdmissionResult{Reservation: r, Outcome: OutcomeBooked}
		return nil
	})
	if err != nil {
		return AdmissionResult{}, err
	}
	return result, nil
}

// Reserve checks the requester in now, either fresh or by converting their pre-booking.
func (s *AdmissionService) Reserve(ctx context.Context, in AdmissionInput) (AdmissionResult, error) {
	window, err := in.validate()
	if err != nil {
		return AdmissionResult{}, err
	}

	now := s.clock.Now()
	if window.From.After(now) {
		return AdmissionResult{}, domain.ErrReserveNotPresent
	}

	var result AdmissionResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		zone, err := s.repo.GetZoneForUpdate(txCtx, in.ZoneID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindActiveClaim(txCtx, in.RequesterID, in.ZoneID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			result, err = s.reserveNew(txCtx, zone, in, window, now)
		case existing.Status == domain.StatusBooked:
			result, err = s.convertBooking(txCtx, zone, *existing, window, now)
		case existing.Status == domain.StatusReserved:
			if !existing.Window().Equal(window) {
				return domain.ErrActiveReservationExists
			}
			result = AdmissionResult{Reservation: *existing, Outcome: OutcomeExisting}
		default:
			return fmt.Errorf("active claim %s has status %q", existing.ID, existing.Status)
		}
		return err
	})
	if err != nil {
		return AdmissionResult{}, err
	}
	return result, nil
}

func (s *AdmissionService) reserveNew(ctx context.Context, zone domain.Zone, in AdmissionInput, window domain.Window, now time.Time) (AdmissionResult, error) {
	if err := domain.ValidateTransition(domain.StatusNone, domain.StatusReserved); err != nil {
		return AdmissionResult{}, err
	}

	overlapping, err := s.repo.CountOverlapping(ctx, zone.ID, window, "")
	if err != nil {
		return AdmissionResult{}, err
	}
	if !domain.WindowAdmissible(overlapping, zone.Capacity) {
		return AdmissionResult{}, domain.ErrZoneFullForWindow
	}

	r := domain.Reservation{
		ID:          newID(),
		RequesterID: in.RequesterID,
		ZoneID:      zone.ID,
		FromTime:    window.From,
		ToTime:      window.To,
		Status:      domain.StatusReserved,
		ParkedAt:    null.TimeFrom(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateReservation(ctx, r); err != nil {
		return AdmissionResult{}, err
	}
	return AdmissionResult{Reservation: r, Outcome: OutcomeCreated}, nil
}

func (s *AdmissionService) convertBooking(ctx context.Context, zone domain.Zone, booking domain.Reservation, window domain.Window, now time.Time) (AdmissionResult, error) {
	if err := domain.ValidateTransition(booking.Status, domain.StatusReserved); err != nil {
		return AdmissionResult{}, err
	}
	// A booking is only taken over by someone checking in now.
	if !window.Contains(now) {
		return AdmissionResult{}, domain.ErrWindowEnded
	}
	if !window.Overlaps(booking.Window()) {
		return AdmissionResult{}, domain.ErrWindowMismatch
	}

	overlapping, err := s.repo.CountOverlapping(ctx, zone.ID, window, booking.ID)
	if err != nil {
		return AdmissionResult{}, err
	}
	if !domain.WindowAdmissible(overlapping, zone.Capacity) {
		return AdmissionResult{}, domain.ErrZoneFullForWindow
	}

	if err := s.repo.ConvertToReserved(ctx, booking.ID, window, now); err != nil {
		return AdmissionResult{}, err
	}

	booking.Status = domain.StatusReserved
	booking.FromTime = window.From
	booking.ToTime = window.To
	booking.ParkedAt = null.TimeFrom(now)
	booking.UpdatedAt = now
	return AdmissionResult{Reservation: booking, Outcome: OutcomeConverted}, nil
}

// Cancel withdraws an active claim. Terminal records are left untouched.
func (s *AdmissionService) Cancel(ctx context.Context, reservationID string) (domain.Reservation, error) {
	if err := validateID(reservationID); err != nil {
		return domain.Reservation{}, err
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !r.Status.IsActive() {
			return fmt.Errorf("%w: %s", domain.ErrNotCancellable, r.Status)
		}
		if err := domain.ValidateTransition(r.Status, domain.StatusCancelled); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(txCtx, r.ID, r.Status, domain.StatusCancelled, now); err != nil {
			return err
		}

		r.Status = domain.StatusCancelled
		r.UpdatedAt = now
		result = r
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}
