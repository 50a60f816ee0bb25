package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/codechat-ai/codebase-chat/pkg/logger"
)

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Logging(log)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()

	assert.Equal(t, "request completed", entry.Message)
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/models", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.NotEmpty(t, fields["correlation_id"])

	// Identity is established downstream of this middleware, so the
	// request log must not carry a user field at all.
	_, present := fields["user_id"]
	assert.False(t, present)

	// The generated correlation ID is echoed back to the client.
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestLoggingPreservesFlusher(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	var flushable bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
	})
	handler := Logging(log)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, flushable)
}
