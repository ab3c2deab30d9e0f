package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/pkg/logger"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogging_RecordsAuthenticatedIdentity(t *testing.T) {
	log, logs := observedLogger()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Logging(log)(Auth(testSecret)(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "identity-9", model.RoleFounder, testSecret))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "identity-9", fields["identity_id"])
	assert.NotEmpty(t, fields["correlation_id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestLogging_PropagatesCorrelationID(t *testing.T) {
	log, _ := observedLogger()

	var inner string
	handler := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "corr-42", inner)
	assert.Equal(t, "corr-42", rec.Header().Get("X-Correlation-ID"))
}
