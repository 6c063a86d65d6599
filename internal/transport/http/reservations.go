package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AGmitmanipal/BACKEND/internal/app"
	"github.com/AGmitmanipal/BACKEND/internal/auth"
	"github.com/AGmitmanipal/BACKEND/internal/domain"
)

// Admission is the minimal interface needed by the pre-book, reserve and cancel endpoints.
type Admission interface {
	PreBook(ctx context.Context, in app.AdmissionInput) (app.AdmissionResult, error)
	Reserve(ctx context.Context, in app.AdmissionInput) (app.AdmissionResult, error)
	Cancel(ctx context.Context, reservationID string) (domain.Reservation, error)
}

// ReservationLister is the minimal interface needed to list a requester's reservations.
type ReservationLister interface {
	ListReservationsForRequester(ctx context.Context, requesterID string) ([]app.ReservationView, error)
}

const cancelledMessage = "Cancelled successfully"

// HandlePreBook returns an HTTP handler for POST /prebook.
func HandlePreBook(svc Admission, logger *log.Logger) http.HandlerFunc {
	return handleAdmission(svc.PreBook, logger)
}

// HandleReserve returns an HTTP handler for POST /reserve.
func HandleReserve(svc Admission, logger *log.Logger) http.HandlerFunc {
	return handleAdmission(svc.Reserve, logger)
}

func handleAdmission(admit func(context.Context, app.AdmissionInput) (app.AdmissionResult, error), logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		id, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		var req admissionRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		in, code, msg := req.toInput(id.RequesterID)
		if code != "" {
			writeError(w, http.StatusBadRequest, code, msg)
			return
		}

		res, err := admit(r.Context(), in)
		if err != nil {
			writeDomainError(w, logger, r, err)
			return
		}

		status := http.StatusOK
		if res.Created() {
			status = http.StatusCreated
		}
		writeJSON(w, status, admissionResponse{
			reservationResponse: toReservationResponse(res.Reservation),
			Message:             res.Message(),
		})
	}
}

// HandleCancelReservation returns an HTTP handler for DELETE /reserve/{id}.
func HandleCancelReservation(svc Admission, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservationID, ok := parseReservationPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if _, ok := auth.FromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		res, err := svc.Cancel(r.Context(), reservationID)
		if err != nil {
			writeDomainError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cancelResponse{
			ID:      res.ID,
			Status:  string(res.Status),
			Message: cancelledMessage,
		})
	}
}

// HandleListReservations returns an HTTP handler for GET /reservations.
func HandleListReservations(svc ReservationLister, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		id, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}

		views, err := svc.ListReservationsForRequester(r.Context(), id.RequesterID)
		if err != nil {
			writeDomainError(w, logger, r, err)
			return
		}

		resp := make([]listedReservationResponse, 0, len(views))
		for _, v := range views {
			resp = append(resp, listedReservationResponse{
				reservationResponse: toReservationResponse(v.Reservation),
				ZoneName:            v.ZoneName,
				CreatedAt:           v.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseReservationPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "reserve" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type admissionRequest struct {
	ZoneID   string `json:"zone_id"`
	FromTime string `json:"from_time"`
	ToTime   string `json:"to_time"`
}

func (r admissionRequest) toInput(requesterID string) (app.AdmissionInput, string, string) {
	if r.ZoneID == "" || r.FromTime == "" || r.ToTime == "" {
		return app.AdmissionInput{}, codeMissingRequiredField, "zone_id, from_time and to_time are required"
	}
	from, err := time.Parse(time.RFC3339, r.FromTime)
	if err != nil {
		return app.AdmissionInput{}, codeInvalidTimeFormat, "invalid from_time format"
	}
	to, err := time.Parse(time.RFC3339, r.ToTime)
	if err != nil {
		return app.AdmissionInput{}, codeInvalidTimeFormat, "invalid to_time format"
	}
	return app.AdmissionInput{
		RequesterID: requesterID,
		ZoneID:      r.ZoneID,
		FromTime:    from,
		ToTime:      to,
	}, "", ""
}

type reservationResponse struct {
	ID       string     `json:"id"`
	ZoneID   string     `json:"zone_id"`
	FromTime time.Time  `json:"from_time"`
	ToTime   time.Time  `json:"to_time"`
	Status   string     `json:"status"`
	ParkedAt *time.Time `json:"parked_at,omitempty"`
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:       r.ID,
		ZoneID:   r.ZoneID,
		FromTime: r.FromTime,
		ToTime:   r.ToTime,
		Status:   string(r.Status),
		ParkedAt: r.ParkedAt.Ptr(),
	}
}

type admissionResponse struct {
	reservationResponse
	Message string `json:"message"`
}

type cancelResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type listedReservationResponse struct {
	reservationResponse
	ZoneName  string    `json:"zone_name"`
	CreatedAt time.Time `json:"created_at"`
}
