package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"gopkg.in/guregu/null.v4"
)

// staticRow feeds scanReservation fixed column values in select order.
type staticRow struct {
	values []any
}

func (r staticRow) Scan(dest ...any) error {
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *null.Time:
			*p = r.values[i].(null.Time)
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func reservationRow(status string) staticRow {
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	return staticRow{values: []any{
		"00000000-0000-0000-0000-000000000001",
		"user-1",
		"00000000-0000-0000-0000-000000000002",
		at,
		at.Add(time.Hour),
		status,
		null.Time{},
		at,
		at,
	}}
}

func TestScanReservation(t *testing.T) {
	t.Parallel()

	t.Run("known status normalises window to UTC", func(t *testing.T) {
		res, err := scanReservation(reservationRow("booked"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Status != domain.StatusBooked {
			t.Fatalf("expected booked, got %s", res.Status)
		}
		if res.FromTime.Location() != time.UTC || res.ToTime.Location() != time.UTC {
			t.Fatalf("expected UTC window, got %v - %v", res.FromTime, res.ToTime)
		}
	})

	t.Run("unknown stored status is internal", func(t *testing.T) {
		_, err := scanReservation(reservationRow("no_show"))
		if err == nil {
			t.Fatalf("expected error for unknown status")
		}
		if errors.Is(err, domain.ErrInvalidStatus) {
			t.Fatalf("expected stored status error not to read as caller input, got %v", err)
		}
		if kind := domain.KindOf(err); kind != domain.KindInternal {
			t.Fatalf("expected internal kind, got %s", kind)
		}
	})
}
