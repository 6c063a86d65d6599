package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/AGmitmanipal/BACKEND/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidTimeFormat    = "invalid_time_format"
	codeUnauthenticated      = "unauthenticated"
	codeForbidden            = "forbidden"
	codeRateLimited          = "rate_limited"
	codeUnavailable          = "unavailable"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	if rec, ok := w.(errorCodeRecorder); ok {
		rec.recordErrorCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service error onto the response. Internal errors are
// logged and surfaced without detail.
func writeDomainError(w http.ResponseWriter, logger *log.Logger, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		if logger == nil {
			logger = log.Default()
		}
		logger.Printf("internal error method=%s path=%s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, statusForKind(kind), domain.CodeOf(err), domain.MessageOf(err))
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
