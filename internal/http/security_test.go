package http

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:4412",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors forwarded-for",
			remoteAddr: "10.1.2.3:8080",
			xff:        "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy takes first forwarded hop",
			remoteAddr: "192.168.1.1:9000",
			xff:        "203.0.113.7, 10.0.0.5",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors real-ip",
			remoteAddr: "127.0.0.1:3000",
			xri:        "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted peer cannot forward",
			remoteAddr: "203.0.113.7:4412",
			xff:        "198.51.100.99",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted peer real-ip ignored",
			remoteAddr: "203.0.113.7:4412",
			xri:        "198.51.100.99",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy with garbage header falls back",
			remoteAddr: "10.1.2.3:8080",
			xff:        "not-an-ip",
			want:       "10.1.2.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/transactions", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Rotating forged forwarding headers from an untrusted peer must all map to
// the same rate-limit bucket.
func TestClientIPSpoofedHeadersShareBucket(t *testing.T) {
	spoofed := []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}

	seen := make(map[string]bool)
	for _, fake := range spoofed {
		r := httptest.NewRequest("POST", "/api/transactions", nil)
		r.RemoteAddr = "203.0.113.7:4412"
		r.Header.Set("X-Forwarded-For", fake)
		seen[clientIP(r)] = true
	}

	if len(seen) != 1 || !seen["203.0.113.7"] {
		t.Errorf("spoofed headers produced buckets %v, want only 203.0.113.7", seen)
	}
}
