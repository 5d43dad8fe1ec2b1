package seshttp

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address a request came from.
//
// Proxy headers can be set by any client, so they are only read when
// trustProxy is set: X-Forwarded-For (last valid entry, the one the nearest
// proxy appended), then X-Real-IP. RemoteAddr is used otherwise.
// It returns "" when nothing parses as an IP.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedFor(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}

		if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func forwardedFor(header string) string {
	if header == "" {
		return ""
	}

	entries := strings.Split(header, ",")
	for i := len(entries) - 1; i >= 0; i-- {
		if ip := parseIP(entries[i]); ip != "" {
			return ip
		}
	}
	return ""
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
