package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/epharmacy/locator-web/internal/errors"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	// Nothing more to do if the client connection is gone.
	_, _ = io.WriteString(w, healthResponse)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// readyHandler reports 200 when the client state store answers a ping within
// two seconds and 503 otherwise.
func readyHandler(store Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			healthHandler(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			WriteAppError(w, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "client state store unavailable"))
			return
		}
		healthHandler(w, r)
	}
}
