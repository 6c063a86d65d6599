package app

import (
	"context"
	"strings"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
)

type ZoneRepository interface {
	CreateZone(ctx context.Context, zone domain.Zone) error
	GetZone(ctx context.Context, zoneID string) (domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
}

// ZoneService manages the zone registry the admission path reads from.
type ZoneService struct {
	repo ZoneRepository
}

func NewZoneService(repo ZoneRepository) *ZoneService {
	return &ZoneService{repo: repo}
}

type CreateZoneInput struct {
	Name     string
	Capacity int
}

func (s *ZoneService) CreateZone(ctx context.Context, in CreateZoneInput) (domain.Zone, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Zone{}, domain.ErrZoneNameRequired
	}
	if in.Capacity < 1 {
		return domain.Zone{}, domain.ErrInvalidCapacity
	}

	zone := domain.Zone{
		ID:       newID(),
		Name:     name,
		Capacity: in.Capacity,
	}
	if err := s.repo.CreateZone(ctx, zone); err != nil {
		return domain.Zone{}, err
	}
	return zone, nil
}

func (s *ZoneService) GetZone(ctx context.Context, zoneID string) (domain.Zone, error) {
	if err := validateID(zoneID); err != nil {
		return domain.Zone{}, err
	}
	return s.repo.GetZone(ctx, zoneID)
}

func (s *ZoneService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	return s.repo.ListZones(ctx)
}
