package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/playnest/marketplace/pkg/logger"
)

// captureHandlerLog runs one request through RequestLogger with a handler
// that logs a single line via the context logger, and returns that line
// decoded.
func captureHandlerLog(t *testing.T, prepare func(*http.Request) *http.Request) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	base := logger.NewWithWriter("marketplace", "info", &buf)

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("review stored")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/p-1/reviews", nil)
	if prepare != nil {
		req = prepare(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotZero(t, buf.Len(), "the handler's log line should have been written")
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRequestLogger_CarriesCorrelationID(t *testing.T) {
	out := captureHandlerLog(t, func(r *http.Request) *http.Request {
		// RequestLogging runs first in the chain and seeds the context.
		return r.WithContext(logger.WithCorrelationID(r.Context(), "req-review-9"))
	})

	assert.Equal(t, "req-review-9", out["correlation_id"])
	assert.Equal(t, "marketplace", out["service"])
}

func TestRequestLogger_UserIDSources(t *testing.T) {
	t.Run("from auth claims", func(t *testing.T) {
		out := captureHandlerLog(t, func(r *http.Request) *http.Request {
			return r.WithContext(context.WithValue(r.Context(), userIDKey, "buyer-42"))
		})
		assert.Equal(t, "buyer-42", out["user_id"])
	})

	t.Run("from the edge proxy header", func(t *testing.T) {
		out := captureHandlerLog(t, func(r *http.Request) *http.Request {
			r.Header.Set("X-User-ID", "buyer-via-header")
			return r
		})
		assert.Equal(t, "buyer-via-header", out["user_id"])
	})

	t.Run("claims beat the header", func(t *testing.T) {
		out := captureHandlerLog(t, func(r *http.Request) *http.Request {
			r.Header.Set("X-User-ID", "spoofed")
			return r.WithContext(context.WithValue(r.Context(), userIDKey, "buyer-42"))
		})
		assert.Equal(t, "buyer-42", out["user_id"])
	})

	t.Run("anonymous request omits the field", func(t *testing.T) {
		out := captureHandlerLog(t, nil)
		assert.NotContains(t, out, "user_id")
	})
}

func TestRequestLogger_CarriesTraceIdentity(t *testing.T) {
	out := captureHandlerLog(t, func(r *http.Request) *http.Request {
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		require.NoError(t, err)
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		return r.WithContext(trace.ContextWithSpanContext(r.Context(), sc))
	})

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestRequestLogger_AlwaysStoresLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("marketplace", "info", &buf)

	var sawLogger bool
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logger.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/r-1", nil))
	assert.True(t, sawLogger)
}
