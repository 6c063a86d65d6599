package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `id, requester_id, zone_id, from_time, to_time, status, parked_at, created_at, updated_at`

// activeClaimConstraint is the partial unique index allowing one booked or reserved record per requester and zone.
const activeClaimConstraint = "reservations_one_active_claim"

type ReservationRepository struct {
	pool       *pgxpool.Pool
	txAttempts int
}

type ReservationRepositoryOption func(*ReservationRepository)

// WithTxAttempts caps how many times a transaction is rerun after a serialization failure.
func WithTxAttempts(n int) ReservationRepositoryOption {
	return func(r *ReservationRepository) {
		if n > 0 {
			r.txAttempts = n
		}
	}
}

func NewReservationRepository(pool *pgxpool.Pool, opts ...ReservationRepositoryOption) *ReservationRepository {
	r := &ReservationRepository{pool: pool, txAttempts: defaultTxAttempts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, r.txAttempts, fn)
}

// GetZoneForUpdate locks the zone row; every admission into the zone queues behind it.
func (r *ReservationRepository) GetZoneForUpdate(ctx context.Context, zoneID string) (domain.Zone, error) {
	const query = `SELECT id, name, capacity FROM zones WHERE id = $1 FOR UPDATE`
	var z domain.Zone
	err := conn(ctx, r.pool).QueryRow(ctx, query, zoneID).Scan(&z.ID, &z.Name, &z.Capacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Zone{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Zone{}, domain.ErrZoneNotFound
		}
		return domain.Zone{}, fmt.Errorf("get zone for update: %w", err)
	}
	return z, nil
}

func (r *ReservationRepository) FindActiveClaim(ctx context.Context, requesterID, zoneID string) (*domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations
WHERE requester_id = $1 AND zone_id = $2 AND status IN ('booked', 'reserved')
FOR UPDATE`

	res, err := scanReservation(conn(ctx, r.pool).QueryRow(ctx, query, requesterID, zoneID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active claim: %w", err)
	}
	return &res, nil
}

func (r *ReservationRepository) CountOverlapping(ctx context.Context, zoneID string, w domain.Window, excludeID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM reservations
WHERE zone_id = $1
  AND status IN ('booked', 'reserved')
  AND from_time < $3
  AND to_time > $2
  AND ($4 = '' OR id::text <> $4)`

	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, zoneID, w.From, w.To, excludeID).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count overlapping: %w", err)
	}
	return n, nil
}

func (r *ReservationRepository) CountActiveByStatus(ctx context.Context, zoneID string) (domain.StatusCounts, error) {
	const query = `
SELECT
	COUNT(*) FILTER (WHERE status = 'booked'),
	COUNT(*) FILTER (WHERE status = 'reserved')
FROM reservations
WHERE zone_id = $1 AND status IN ('booked', 'reserved')`

	var c domain.StatusCounts
	if err := conn(ctx, r.pool).QueryRow(ctx, query, zoneID).Scan(&c.Booked, &c.Reserved); err != nil {
		if isInvalidUUID(err) {
			return domain.StatusCounts{}, domain.ErrInvalidID
		}
		return domain.StatusCounts{}, fmt.Errorf("count active by status: %w", err)
	}
	return c, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, requester_id, zone_id, from_time, to_time, status, parked_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := conn(ctx, r.pool).Exec(ctx, stmt,
		res.ID,
		res.RequesterID,
		res.ZoneID,
		res.FromTime,
		res.ToTime,
		string(res.Status),
		res.ParkedAt,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && constraintName(err) == activeClaimConstraint {
			return domain.ErrActiveClaimExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrZoneNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// ConvertToReserved only touches a record that is still booked.
func (r *ReservationRepository) ConvertToReserved(ctx context.Context, id string, w domain.Window, parkedAt time.Time) error {
	const stmt = `
UPDATE reservations
SET status = 'reserved', from_time = $2, to_time = $3, parked_at = $4, updated_at = $4
WHERE id = $1 AND status = 'booked'`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, id, w.From, w.To, parkedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("convert reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

	res, err := scanReservation(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation for update: %w", err)
	}
	return res, nil
}

// UpdateStatus moves a record from one status to another, failing if it has moved on already.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error {
	const stmt = `UPDATE reservations SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, id, string(from), string(to), at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

// ListLapsedForUpdate locks lapsed active rows in id order.
func (r *ReservationRepository) ListLapsedForUpdate(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations
WHERE status IN ('booked', 'reserved') AND to_time < $1
ORDER BY id
FOR UPDATE`

	rows, err := conn(ctx, r.pool).Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list lapsed reservations: %w", err)
	}
	return collectReservations(rows)
}

// ExpireReservations re-checks the lapse predicate so rows that changed since they were read stay put.
func (r *ReservationRepository) ExpireReservations(ctx context.Context, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const stmt = `
UPDATE reservations
SET status = 'expired', updated_at = $2
WHERE id = ANY($1::uuid[])
  AND status IN ('booked', 'reserved')
  AND to_time < $2`

	tag, err := conn(ctx, r.pool).Exec(ctx, stmt, ids, now)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations
WHERE requester_id = $1
ORDER BY to_time DESC`

	rows, err := conn(ctx, r.pool).Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collectReservations(rows)
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res    domain.Reservation
		status string
	)
	if err := row.Scan(
		&res.ID,
		&res.RequesterID,
		&res.ZoneID,
		&res.FromTime,
		&res.ToTime,
		&status,
		&res.ParkedAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return domain.Reservation{}, err
	}

	st, err := domain.ParseStatus(status)
	if err != nil {
		// Statuses outside the closed set mean a corrupt row.
		return domain.Reservation{}, fmt.Errorf("scan reservation %s: unknown stored status %q", res.ID, status)
	}
	res.Status = st
	res.FromTime = res.FromTime.UTC()
	res.ToTime = res.ToTime.UTC()
	return res, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return out, nil
}
