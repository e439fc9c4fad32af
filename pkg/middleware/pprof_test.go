package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveAllowlisted(t *testing.T, cidrs []string, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	handler := IPAllowlist(cidrs, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIPAllowlist(t *testing.T) {
	officeNets := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

	tests := []struct {
		name       string
		cidrs      []string
		remoteAddr string
		want       int
	}{
		{"loopback allowed", []string{"127.0.0.0/8"}, "127.0.0.1:41822", http.StatusOK},
		{"outside the range", []string{"10.0.0.0/8"}, "192.168.1.1:41822", http.StatusForbidden},
		{"first office net", officeNets, "10.1.2.3:1234", http.StatusOK},
		{"second office net", officeNets, "172.16.5.5:1234", http.StatusOK},
		{"third office net", officeNets, "192.168.1.1:1234", http.StatusOK},
		{"public address", officeNets, "8.8.8.8:1234", http.StatusForbidden},
		{"ipv6 loopback", []string{"::1/128"}, "[::1]:1234", http.StatusOK},
		{"addr without port", []string{"127.0.0.0/8"}, "127.0.0.1", http.StatusOK},
		{"empty list denies everyone", nil, "127.0.0.1:1234", http.StatusForbidden},
		{"malformed entry skipped", []string{"not-a-cidr", "127.0.0.0/8"}, "127.0.0.1:1234", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveAllowlisted(t, tt.cidrs, tt.remoteAddr)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIPAllowlist_DenialUsesErrorEnvelope(t *testing.T) {
	rec := serveAllowlisted(t, []string{"10.0.0.0/8"}, "203.0.113.7:55001")

	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "FORBIDDEN", body["error"]["code"])
}

func pprofRouter(t *testing.T, cidrs []string) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	RegisterPprof(r, cidrs, discardLogger())
	return r
}

func TestRegisterPprof_ServesProfilesToAllowedPeers(t *testing.T) {
	r := pprofRouter(t, []string{"127.0.0.0/8"})

	// heap and goroutine ride the Index catch-all, the rest are explicit.
	for _, path := range []string{"/debug/pprof/", "/debug/pprof/cmdline", "/debug/pprof/symbol", "/debug/pprof/heap"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "127.0.0.1:1234"
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRegisterPprof_BlocksOutsidePeers(t *testing.T) {
	r := pprofRouter(t, []string{"10.0.0.0/8"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
