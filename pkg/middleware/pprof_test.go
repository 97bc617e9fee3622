package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camilomoreno07/gorkis-api/pkg/httputil"
)

func allowlistRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name       string
		cidrs      []string
		remoteAddr string
		wantStatus int
	}{
		{"loopback allowed", []string{"127.0.0.0/8"}, "127.0.0.1:5555", http.StatusOK},
		{"outside range denied", []string{"10.0.0.0/8"}, "203.0.113.7:5555", http.StatusForbidden},
		{"second CIDR matches", []string{"10.0.0.0/8", "192.168.0.0/16"}, "192.168.1.20:80", http.StatusOK},
		{"invalid CIDR skipped", []string{"not-a-cidr", "127.0.0.0/8"}, "127.0.0.1:80", http.StatusOK},
		{"ipv6 loopback", []string{"::1/128"}, "[::1]:8080", http.StatusOK},
		{"address without port", []string{"127.0.0.0/8"}, "127.0.0.1", http.StatusOK},
		{"empty list denies all", nil, "127.0.0.1:80", http.StatusForbidden},
		{"garbage address denied", []string{"0.0.0.0/0"}, "garbage", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := IPAllowlist(tt.cidrs, newTestLogger(&buf))(okHandler())

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, allowlistRequest(tt.remoteAddr))

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestIPAllowlist_DeniedBody(t *testing.T) {
	var buf bytes.Buffer
	handler := IPAllowlist([]string{"10.0.0.0/8"}, newTestLogger(&buf))(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, allowlistRequest("198.51.100.1:1234"))

	require.Equal(t, http.StatusForbidden, rr.Code)
	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "FORBIDDEN", body.Code)
	assert.Contains(t, buf.String(), "request denied by IP allowlist")
}

func TestRegisterPprof_Routes(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, newTestLogger(&buf))

	for _, path := range []string{"/debug/pprof/", "/debug/pprof/cmdline", "/debug/pprof/symbol", "/debug/pprof/heap"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.RemoteAddr = "127.0.0.1:9999"
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "8.8.8.8:53"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
