// Package utils holds small helpers shared by the HTTP layer and the CLI.
package utils

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// GetRealIP returns the client address used for rate limiting. Proxy headers
// are honoured when they carry a valid IP.
func GetRealIP(r *http.Request) string {
	for _, candidate := range []string{
		firstField(r.Header.Get("X-Forwarded-For")),
		strings.TrimSpace(r.Header.Get("X-Real-IP")),
	} {
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func firstField(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}

// FormatBytes renders b with a binary unit, e.g. "1.50 MB".
func FormatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	value := float64(b)
	unit := -1
	for value >= 1024 && unit < 5 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %cB", value, "KMGTPE"[unit])
}
