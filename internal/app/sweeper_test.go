package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/clock"
	"github.com/AGmitmanipal/BACKEND/internal/domain"
)

func TestExpirySweeper_RunExpirySweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.Reservation{
		{ID: "lapsed-booked", RequesterID: "u1", ZoneID: zoneA, FromTime: now.Add(-3 * time.Hour), ToTime: now.Add(-2 * time.Hour), Status: domain.StatusBooked},
		{ID: "lapsed-reserved", RequesterID: "u2", ZoneID: zoneA, FromTime: now.Add(-2 * time.Hour), ToTime: now.Add(-time.Minute), Status: domain.StatusReserved},
		{ID: "ends-now", RequesterID: "u3", ZoneID: zoneA, FromTime: now.Add(-time.Hour), ToTime: now, Status: domain.StatusReserved},
		{ID: "running", RequesterID: "u4", ZoneID: zoneA, FromTime: now.Add(-time.Hour), ToTime: now.Add(time.Hour), Status: domain.StatusReserved},
		{ID: "cancelled", RequesterID: "u5", ZoneID: zoneA, FromTime: now.Add(-3 * time.Hour), ToTime: now.Add(-2 * time.Hour), Status: domain.StatusCancelled},
	}
	repo := newFakeLedger([]domain.Zone{{ID: zoneA, Capacity: 2}}, records)
	sweeper := NewExpirySweeper(repo, clock.NewFixed(now), log.New(&bytes.Buffer{}, "", 0))

	res, err := sweeper.RunExpirySweep(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Expired != 2 {
		t.Fatalf("expected 2 expired, got %d", res.Expired)
	}

	want := map[string]domain.Status{
		"lapsed-booked":   domain.StatusExpired,
		"lapsed-reserved": domain.StatusExpired,
		"ends-now":        domain.StatusReserved,
		"running":         domain.StatusReserved,
		"cancelled":       domain.StatusCancelled,
	}
	for id, status := range want {
		got, _ := repo.byID(id)
		if got.Status != status {
			t.Fatalf("%s: expected %s, got %s", id, status, got.Status)
		}
	}

	res, err = sweeper.RunExpirySweep(context.Background(), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Expired != 1 {
		t.Fatalf("expected only ends-now to expire on the next tick, got %d", res.Expired)
	}
	got, _ := repo.byID("cancelled")
	if got.Status != domain.StatusCancelled {
		t.Fatalf("expected terminal record untouched, got %s", got.Status)
	}
}

func TestExpirySweeper_FreesCapacity(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeLedger([]domain.Zone{{ID: zoneA, Capacity: 1}}, []domain.Reservation{
		{ID: "old", RequesterID: "u1", ZoneID: zoneA, FromTime: now.Add(-2 * time.Hour), ToTime: now.Add(-time.Hour), Status: domain.StatusBooked},
	})
	admission := NewAdmissionService(repo, clock.NewFixed(now))
	sweeper := NewExpirySweeper(repo, clock.NewFixed(now), log.New(&bytes.Buffer{}, "", 0))

	in := AdmissionInput{RequesterID: "u2", ZoneID: zoneA, FromTime: now.Add(time.Hour), ToTime: now.Add(2 * time.Hour)}
	if _, err := admission.PreBook(context.Background(), in); err != domain.ErrZoneFull {
		t.Fatalf("expected ErrZoneFull before sweep, got %v", err)
	}

	if _, err := sweeper.RunExpirySweep(context.Background(), now); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := admission.PreBook(context.Background(), in); err != nil {
		t.Fatalf("expected pre-book to succeed after sweep, got %v", err)
	}
}

func TestExpirySweeper_FailedSweepRollsBack(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := &failingSweepRepo{
		fakeLedger: newFakeLedger(nil, []domain.Reservation{
			{ID: "r-1", ZoneID: zoneA, FromTime: now.Add(-2 * time.Hour), ToTime: now.Add(-time.Hour), Status: domain.StatusBooked},
		}),
		err: errors.New("connection reset"),
	}
	buf := &bytes.Buffer{}
	sweeper := NewExpirySweeper(repo, clock.NewFixed(now), log.New(buf, "", 0))

	sweeper.tick(context.Background())

	if !strings.Contains(buf.String(), "sweep failed: connection reset") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
	got, _ := repo.byID("r-1")
	if got.Status != domain.StatusBooked {
		t.Fatalf("expected record rolled back, got %s", got.Status)
	}
}

func TestExpirySweeper_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeLedger(nil, []domain.Reservation{
		{ID: "r-1", ZoneID: zoneA, FromTime: now.Add(-2 * time.Hour), ToTime: now.Add(-time.Hour), Status: domain.StatusReserved},
	})
	buf := &syncBuffer{}
	sweeper := NewExpirySweeper(repo, clock.NewFixed(now), log.New(buf, "", 0), WithSweepInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if got, _ := repo.byID("r-1"); got.Status == domain.StatusExpired {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected record to be expired by the running sweeper")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected sweeper to stop after cancel")
	}
	if !strings.Contains(buf.String(), "sweep expired=1") {
		t.Fatalf("expected expired count in log, got %q", buf.String())
	}
}

// failingSweepRepo expires rows and then fails, so the fake rollback must undo them.
type failingSweepRepo struct {
	*fakeLedger
	err error
}

func (f *failingSweepRepo) ExpireReservations(ctx context.Context, ids []string, now time.Time) (int, error) {
	if _, err := f.fakeLedger.ExpireReservations(ctx, ids, now); err != nil {
		return 0, err
	}
	return 0, f.err
}
