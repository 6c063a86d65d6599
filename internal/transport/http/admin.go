package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/AGmitmanipal/BACKEND/internal/app"
	"github.com/AGmitmanipal/BACKEND/internal/domain"
)

// ZoneAdmin is the minimal interface needed for admin zone endpoints.
type ZoneAdmin interface {
	CreateZone(ctx context.Context, in app.CreateZoneInput) (domain.Zone, error)
	GetZone(ctx context.Context, zoneID string) (domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)
}

// HandleAdminZones returns an HTTP handler for admin zone creation/listing.
func HandleAdminZones(svc ZoneAdmin, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			zones, err := svc.ListZones(r.Context())
			if err != nil {
				writeDomainError(w, logger, r, err)
				return
			}
			resp := make([]zoneResponse, 0, len(zones))
			for _, zone := range zones {
				resp = append(resp, toZoneResponse(zone))
			}
			writeJSON(w, http.StatusOK, resp)
			return
		case http.MethodPost:
			var req createZoneRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			zone, err := svc.CreateZone(r.Context(), app.CreateZoneInput{
				Name:     req.Name,
				Capacity: req.Capacity,
			})
			if err != nil {
				writeDomainError(w, logger, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, toZoneResponse(zone))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleAdminZone returns an HTTP handler for GET /admin/zones/{id}.
func HandleAdminZone(svc ZoneAdmin, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zoneID, ok := parseAdminZonePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		zone, err := svc.GetZone(r.Context(), zoneID)
		if err != nil {
			writeDomainError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toZoneResponse(zone))
	}
}

func parseAdminZonePath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "admin" || parts[1] != "zones" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type createZoneRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type zoneResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func toZoneResponse(z domain.Zone) zoneResponse {
	return zoneResponse{ID: z.ID, Name: z.Name, Capacity: z.Capacity}
}
