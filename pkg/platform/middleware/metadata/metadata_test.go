package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"namecheck/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"single forwarded", map[string]string{"X-Forwarded-For": " 10.0.0.9 "}, "", "10.0.0.9"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "1.1.1.1:80", "10.0.0.3"},
		{"remote addr", nil, "192.168.1.5:4312", "192.168.1.5"},
		{"ipv6 remote", nil, "[::1]:4312", "[::1]"},
		{"nothing", nil, "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}

func TestClientMetadata(t *testing.T) {
	var requestID, ip, ua string
	h := middleware.RequestID(ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = requestcontext.RequestID(r.Context())
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	})))

	r := httptest.NewRequest(http.MethodPost, "/check_bank_name", nil)
	r.RemoteAddr = "10.1.1.1:5000"
	r.Header.Set("User-Agent", "payments/1.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.NotEmpty(t, requestID)
	assert.Equal(t, "10.1.1.1", ip)
	assert.Equal(t, "payments/1.0", ua)
}
