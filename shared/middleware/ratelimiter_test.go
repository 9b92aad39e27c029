package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitByIP(t *testing.T) {
	logger.Silence()
	handler := RateLimitByIP(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))

	// a different client has its own budget
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}
