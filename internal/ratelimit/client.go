package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the identifier used when no well-formed client address
// can be derived. Unparseable callers share one bucket instead of failing
// open.
const UnknownClient = "unknown"

// ClientKey derives a privacy-safe identifier for the caller. Proxy headers
// win over the socket address; the raw IP is hashed so it never lands in
// storage.
func ClientKey(r *http.Request) string {
	ip := clientIP(r)
	if ip == "" {
		return UnknownClient
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First entry is the originating client.
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if net.ParseIP(real) != nil {
			return real
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if net.ParseIP(host) != nil {
		return host
	}
	return ""
}
