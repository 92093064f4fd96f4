package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_NoProxy(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	// Forwarding headers are ignored when the peer is not a trusted proxy
	r.Header.Set("X-Forwarded-For", "198.51.100.1")

	ip := ExtractClientIP(r, &IPConfig{})
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_TrustedProxy(t *testing.T) {
	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	tests := []struct {
		name     string
		xff      string
		xri      string
		expected string
	}{
		{name: "x-forwarded-for", xff: "198.51.100.1", expected: "198.51.100.1"},
		{name: "x-forwarded-for chain", xff: "198.51.100.1, 10.0.0.2", expected: "198.51.100.1"},
		{name: "x-real-ip fallback", xri: "198.51.100.9", expected: "198.51.100.9"},
		{name: "garbage headers fall back to peer", xff: "not-an-ip", expected: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = "10.0.0.1:40000"
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			assert.Equal(t, tt.expected, ExtractClientIP(r, cfg))
		})
	}
}

func TestExtractClientIP_NilConfig(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "192.0.2.4:1234"
	assert.Equal(t, "192.0.2.4", ExtractClientIP(r, nil))
}
