package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/itchan-dev/eventboard/shared/utils"
)

// RateLimitByIP allows requestsPerMinute per client IP and endpoint.
// Rejected requests get a JSON 429.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Log.Warn("rate limit exceeded", "path", r.URL.Path, "remote", r.RemoteAddr)
			utils.WriteMessage(w, http.StatusTooManyRequests, "Rate limit exceeded, try again later")
		}),
	)
}
