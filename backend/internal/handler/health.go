package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/itchan-dev/eventboard/shared/logger"
)

// Health is a liveness probe endpoint.
// Returns 200 OK while the process serves requests at all.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ready is a readiness probe endpoint.
// Returns 200 OK once the database answers and, when the blob store can be
// pinged, the blob store too.
// Returns 503 Service Unavailable naming the first dependency that failed.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	// Probes are polled often, keep them short
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		logger.Log.Warn("readiness: database ping failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("database unavailable"))
		return
	}

	// Only stores with a cheap reachability check take part
	if pinger, ok := h.blobs.(HealthChecker); ok {
		if err := pinger.Ping(ctx); err != nil {
			logger.Log.Warn("readiness: blob store ping failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("blob store unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
