package http

import (
	"context"
	"log"
	"net/http"
	"time"
)

type requestTraceKey struct{}

// requestTrace collects what inner handlers learn about a request so the
// access log line can report it once the response is written.
type requestTrace struct {
	requester string
	code      string
}

// RequestLogger logs one line per request with the resolved requester, the
// error code of a failed response and latency.
func RequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		trace := &requestTrace{}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, trace: trace}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestTraceKey{}, trace)))

		logger.Printf(
			"request method=%s path=%s status=%d code=%s requester=%s duration=%s",
			r.Method,
			r.URL.Path,
			rec.status,
			orDash(trace.code),
			orDash(trace.requester),
			time.Since(start),
		)
	})
}

// noteRequester records the authenticated requester for the access log.
func noteRequester(ctx context.Context, requesterID string) {
	if trace, ok := ctx.Value(requestTraceKey{}).(*requestTrace); ok {
		trace.requester = requesterID
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	trace  *requestTrace
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) recordErrorCode(code string) {
	r.trace.code = code
}

type errorCodeRecorder interface {
	recordErrorCode(code string)
}
