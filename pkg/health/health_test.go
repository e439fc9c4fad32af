package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(ctx context.Context) error { return nil }

func failing(msg string) Checker {
	return func(ctx context.Context) error { return errors.New(msg) }
}

func serveReadiness(t *testing.T, h *Handler) (int, Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysUp(t *testing.T) {
	h := NewHandler()

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadinessHandler_AllDependenciesUp(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", passing)
	h.RegisterNonCritical("kafka", passing)
	h.RegisterNonCritical("redis", passing)

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
	assert.Equal(t, StatusUp, resp.Checks["kafka"].Status)
}

func TestReadinessHandler_PostgresDown_NotReady(t *testing.T) {
	// Without Postgres no request can be served, so the pod must drop out of
	// the load balancer.
	h := NewHandler()
	h.RegisterCritical("postgres", failing("connection refused"))
	h.RegisterNonCritical("kafka", passing)

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, StatusDown, resp.Checks["postgres"].Status)
	assert.True(t, resp.Checks["postgres"].Critical)
	assert.Equal(t, "connection refused", resp.Checks["postgres"].Error)
}

func TestReadinessHandler_KafkaDown_DegradedButReady(t *testing.T) {
	// Events and cache are best-effort: the API keeps serving without them,
	// so readiness stays 200 and only the status flips to degraded.
	h := NewHandler()
	h.RegisterCritical("postgres", passing)
	h.RegisterNonCritical("kafka", failing("broker unreachable"))
	h.RegisterNonCritical("redis", failing("connection reset"))

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
	assert.Equal(t, StatusDown, resp.Checks["kafka"].Status)
	assert.False(t, resp.Checks["kafka"].Critical)
	assert.Equal(t, StatusDown, resp.Checks["redis"].Status)
}

func TestReadinessHandler_CriticalFailureWins(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", failing("db down"))
	h.RegisterNonCritical("redis", failing("redis down"))

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
}

func TestReadinessHandler_NoChecksRegistered(t *testing.T) {
	code, resp := serveReadiness(t, NewHandler())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
}

func TestRegister_DefaultsToCritical(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", failing("down"))

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, resp.Checks["postgres"].Critical)
}

func TestRegister_LastRegistrationWins(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", failing("stale checker"))
	h.Register("postgres", passing)

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
}
