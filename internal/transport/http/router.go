package http

import (
	"log"
	"net/http"

	"github.com/AGmitmanipal/BACKEND/internal/auth"
)

// Dependencies are the services and middleware collaborators behind the API.
type Dependencies struct {
	Admission    Admission
	Reservations ReservationLister
	Zones        ZoneAdmin
	// Verifier may be nil, in which case identity comes from request headers.
	Verifier IdentityVerifier
	// Limiter may be nil to disable rate limiting.
	Limiter     Limiter
	Health      []Pinger
	CORSOrigins []string
	Logger      *log.Logger
}

// NewHandler builds the full API handler: routes, identity, rate limiting,
// CORS and request logging.
func NewHandler(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	user := func(h http.Handler) http.Handler {
		return Authenticate(deps.Verifier, RateLimit(deps.Limiter, h))
	}
	admin := func(h http.Handler) http.Handler {
		return Authenticate(deps.Verifier, RequireRole(auth.RoleAdmin, h))
	}

	mux := http.NewServeMux()
	mux.Handle("/health", HandleHealth(deps.Health...))
	mux.Handle("/prebook", user(HandlePreBook(deps.Admission, logger)))
	mux.Handle("/reserve", user(HandleReserve(deps.Admission, logger)))
	mux.Handle("/reserve/", user(HandleCancelReservation(deps.Admission, logger)))
	mux.Handle("/reservations", user(HandleListReservations(deps.Reservations, logger)))
	mux.Handle("/admin/zones", admin(HandleAdminZones(deps.Zones, logger)))
	mux.Handle("/admin/zones/", admin(HandleAdminZone(deps.Zones, logger)))
	mux.Handle("/", NotFoundHandler())

	return RequestLogger(CORS(deps.CORSOrigins, mux), logger)
}
