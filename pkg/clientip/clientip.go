// Package clientip derives the client identity of a request from proxy
// headers, falling back to the connection address.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Loopback is the placeholder identity when no usable address is present.
const Loopback = "127.0.0.1"

// GetIP returns the client's IP address from an HTTP request.
// Priority order:
//  1. X-Forwarded-For (standard proxy header, first valid entry)
//  2. X-Real-IP (nginx reverse proxy)
//  3. RemoteAddr (direct connection)
//
// Falls back to the loopback placeholder so the caller always gets a usable
// identity key.
func GetIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// X-Forwarded-For can contain multiple IPs, take the first valid one
		for _, ip := range strings.Split(forwarded, ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may already be a bare IP
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != "" {
		return ip
	}

	return Loopback
}

// parseIP validates and normalizes an IP address string.
// Returns empty string if the IP is invalid.
func parseIP(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if ipStr == "" {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	return ip.String()
}
