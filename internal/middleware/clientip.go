package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the originating client address, preferring proxy
// headers over the socket peer.
func ClientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// First hop is the original client.
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "::1" {
		return "127.0.0.1"
	}
	return host
}
