package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"media-gateway/internal/media"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerIP(t *testing.T) {
	l := NewRateLimiter(0.001, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "buckets are per client")
}

func TestRateLimiterDisabled(t *testing.T) {
	var nilLimiter *RateLimiter
	assert.True(t, nilLimiter.Allow("10.0.0.1"))

	l := NewRateLimiter(0, 1)
	for range 10 {
		assert.True(t, l.Allow("10.0.0.1"))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ws, err := media.NewWorkspace(filepath.Join(t.TempDir(), "media_gateway"))
	require.NoError(t, err)
	svc := media.NewService(&stubEngine{}, ws, "test-agent")
	r := NewRouter(Deps{Service: svc, Limiter: NewRateLimiter(0.001, 1)})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/info", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.10:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// Unlimited routes are untouched, and job routes are absent without a store.
	assert.Equal(t, http.StatusOK, get(r, "/").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/jobs").Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(media.KindValidation))
	assert.Equal(t, http.StatusBadRequest, statusFor(media.KindUpstream))
	assert.Equal(t, http.StatusBadRequest, statusFor(media.KindTraversal))
	assert.Equal(t, http.StatusNotFound, statusFor(media.KindNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(media.KindInternal))
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "clip.mp4", escapePath("clip.mp4"))
	assert.Equal(t, "0b9c/clip%20one.mp4", escapePath("0b9c/clip one.mp4"))
}
