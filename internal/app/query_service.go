package app

import (
	"context"
	"log"
	"sort"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
)

type ReservationLister interface {
	ListByRequester(ctx context.Context, requesterID string) ([]domain.Reservation, error)
}

type ZoneNameResolver interface {
	ZoneNames(ctx context.Context, ids []string) (map[string]string, error)
}

// ZoneNameCache is optional. Lookup returns only the hits.
type ZoneNameCache interface {
	Lookup(ctx context.Context, ids []string) (map[string]string, error)
	Store(ctx context.Context, names map[string]string) error
}

type ReservationQueryService struct {
	reservations ReservationLister
	zones        ZoneNameResolver
	cache        ZoneNameCache
	logger       *log.Logger
}

func NewReservationQueryService(reservations ReservationLister, zones ZoneNameResolver, logger *log.Logger, opts ...QueryServiceOption) *ReservationQueryService {
	if logger == nil {
		logger = log.Default()
	}
	s := &ReservationQueryService{
		reservations: reservations,
		zones:        zones,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type QueryServiceOption func(*ReservationQueryService)

func WithZoneNameCache(cache ZoneNameCache) QueryServiceOption {
	return func(s *ReservationQueryService) {
		s.cache = cache
	}
}

type ReservationView struct {
	domain.Reservation
	ZoneName string
}

// ListReservationsForRequester returns the requester's records, latest window end first.
func (s *ReservationQueryService) ListReservationsForRequester(ctx context.Context, requesterID string) ([]ReservationView, error) {
	if requesterID == "" {
		return nil, domain.ErrMissingField
	}

	records, err := s.reservations.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ToTime.After(records[j].ToTime)
	})

	names, err := s.zoneNames(ctx, records)
	if err != nil {
		return nil, err
	}

	views := make([]ReservationView, 0, len(records))
	for _, r := range records {
		name, ok := names[r.ZoneID]
		if !ok {
			name = domain.UnknownZoneName
		}
		views = append(views, ReservationView{Reservation: r, ZoneName: name})
	}
	return views, nil
}

func (s *ReservationQueryService) zoneNames(ctx context.Context, records []domain.Reservation) (map[string]string, error) {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ZoneID]; ok {
			continue
		}
		seen[r.ZoneID] = struct{}{}
		ids = append(ids, r.ZoneID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	names := make(map[string]string, len(ids))
	missing := ids
	if s.cache != nil {
		hits, err := s.cache.Lookup(ctx, ids)
		if err != nil {
			s.logger.Printf("WARN: zone name cache lookup failed: %v", err)
		}
		for id, name := range hits {
			names[id] = name
		}
		missing = make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := names[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return names, nil
	}

	resolved, err := s.zones.ZoneNames(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, name := range resolved {
		names[id] = name
	}
	if s.cache != nil && len(resolved) > 0 {
		if err := s.cache.Store(ctx, resolved); err != nil {
			s.logger.Printf("WARN: zone name cache store failed: %v", err)
		}
	}
	return names, nil
}
