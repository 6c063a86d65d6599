package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ZoneRepository is the zone registry.
type ZoneRepository struct {
	pool *pgxpool.Pool
}

func NewZoneRepository(pool *pgxpool.Pool) *ZoneRepository {
	return &ZoneRepository{pool: pool}
}

func (r *ZoneRepository) CreateZone(ctx context.Context, zone domain.Zone) error {
	const stmt = `
INSERT INTO zones (id, name, capacity)
VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, stmt, zone.ID, zone.Name, zone.Capacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrZoneAlreadyExists
		}
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (r *ZoneRepository) GetZone(ctx context.Context, zoneID string) (domain.Zone, error) {
	const query = `SELECT id, name, capacity FROM zones WHERE id = $1`
	var z domain.Zone
	if err := r.pool.QueryRow(ctx, query, zoneID).Scan(&z.ID, &z.Name, &z.Capacity); err != nil {
		if isInvalidUUID(err) {
			return domain.Zone{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Zone{}, domain.ErrZoneNotFound
		}
		return domain.Zone{}, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

func (r *ZoneRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	const query = `
SELECT id, name, capacity
FROM zones
ORDER BY created_at ASC, name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var zone domain.Zone
		if err := rows.Scan(&zone.ID, &zone.Name, &zone.Capacity); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate zones: %w", rows.Err())
	}
	return zones, nil
}

// ZoneNames resolves display names for the given ids; unknown ids are absent from the result.
func (r *ZoneRepository) ZoneNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM zones WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("zone names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan zone name: %w", err)
		}
		names[id] = name
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate zone names: %w", rows.Err())
	}
	return names, nil
}
