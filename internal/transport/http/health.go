package http

import (
	"context"
	stdhttp "net/http"
	"time"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth reports liveness, answering 503 when any dependency fails to respond.
func HandleHealth(deps ...Pinger) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				writeError(w, stdhttp.StatusServiceUnavailable, codeUnavailable, "dependency unavailable")
				return
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
