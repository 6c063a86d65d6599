package app

import (
	"context"
	"sync"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"gopkg.in/guregu/null.v4"
)

// fakeLedger is an in-memory ledger. WithTx serializes callers and restores the
// previous records when fn fails.
type fakeLedger struct {
	mu      sync.Mutex
	zones   map[string]domain.Zone
	records []domain.Reservation

	createErr error
}

func newFakeLedger(zones []domain.Zone, records []domain.Reservation) *fakeLedger {
	z := make(map[string]domain.Zone, len(zones))
	for _, zone := range zones {
		z[zone.ID] = zone
	}
	return &fakeLedger{
		zones:   z,
		records: append([]domain.Reservation{}, records...),
	}
}

func (f *fakeLedger) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := append([]domain.Reservation{}, f.records...)
	if err := fn(ctx); err != nil {
		f.records = snapshot
		return err
	}
	return nil
}

func (f *fakeLedger) GetZoneForUpdate(_ context.Context, zoneID string) (domain.Zone, error) {
	zone, ok := f.zones[zoneID]
	if !ok {
		return domain.Zone{}, domain.ErrZoneNotFound
	}
	return zone, nil
}

func (f *fakeLedger) FindActiveClaim(_ context.Context, requesterID, zoneID string) (*domain.Reservation, error) {
	for i := range f.records {
		r := f.records[i]
		if r.RequesterID == requesterID && r.ZoneID == zoneID && r.Status.IsActive() {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) CountOverlapping(_ context.Context, zoneID string, w domain.Window, excludeID string) (int, error) {
	return domain.CountOverlapping(f.inZone(zoneID), w, excludeID), nil
}

func (f *fakeLedger) CountActiveByStatus(_ context.Context, zoneID string) (domain.StatusCounts, error) {
	return domain.CountByStatus(f.inZone(zoneID)), nil
}

func (f *fakeLedger) CreateReservation(_ context.Context, r domain.Reservation) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.records {
		if existing.RequesterID == r.RequesterID && existing.ZoneID == r.ZoneID && existing.Status.IsActive() {
			return domain.ErrActiveClaimExists
		}
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeLedger) ConvertToReserved(_ context.Context, id string, w domain.Window, parkedAt time.Time) error {
	for i := range f.records {
		if f.records[i].ID != id {
			continue
		}
		if f.records[i].Status != domain.StatusBooked {
			return domain.ErrConcurrentUpdate
		}
		f.records[i].Status = domain.StatusReserved
		f.records[i].FromTime = w.From
		f.records[i].ToTime = w.To
		f.records[i].ParkedAt = null.TimeFrom(parkedAt)
		f.records[i].UpdatedAt = parkedAt
		return nil
	}
	return domain.ErrReservationNotFound
}

func (f *fakeLedger) GetReservationForUpdate(_ context.Context, id string) (domain.Reservation, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrReservationNotFound
}

func (f *fakeLedger) UpdateStatus(_ context.Context, id string, from, to domain.Status, at time.Time) error {
	for i := range f.records {
		if f.records[i].ID != id {
			continue
		}
		if f.records[i].Status != from {
			return domain.ErrConcurrentUpdate
		}
		f.records[i].Status = to
		f.records[i].UpdatedAt = at
		return nil
	}
	return domain.ErrReservationNotFound
}

func (f *fakeLedger) ListLapsedForUpdate(_ context.Context, now time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.records {
		if r.Status.IsActive() && r.ToTime.Before(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) ExpireReservations(_ context.Context, ids []string, now time.Time) (int, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	n := 0
	for i := range f.records {
		r := &f.records[i]
		if _, ok := want[r.ID]; !ok {
			continue
		}
		if r.Status.IsActive() && r.ToTime.Before(now) {
			r.Status = domain.StatusExpired
			r.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) ListByRequester(_ context.Context, requesterID string) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Reservation
	for _, r := range f.records {
		if r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) byID(id string) (domain.Reservation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reservation{}, false
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeLedger) inZone(zoneID string) []domain.Reservation {
	var out []domain.Reservation
	for _, r := range f.records {
		if r.ZoneID == zoneID {
			out = append(out, r)
		}
	}
	return out
}

const (
	zoneA = "a0000000-0000-4000-8000-000000000001"
	zoneB = "b0000000-0000-4000-8000-000000000002"
)
