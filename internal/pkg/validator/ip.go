// Package validator holds small input normalizers shared by middleware.
package validator

import (
	"net"
	"strings"
)

// unknownClient keys requests whose address cannot be parsed
const unknownClient = "unknown"

func IsValidIP(ip string) bool {
	return ip != "" && net.ParseIP(ip) != nil
}

// NormalizeIP drops an IPv6 zone (fe80::1%eth0 -> fe80::1) and returns the
// canonical text form, so one client never maps to two rate-limit keys.
func NormalizeIP(ip string) string {
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		ip = ip[:idx]
	}
	if parsed := net.ParseIP(strings.TrimSpace(ip)); parsed != nil {
		return parsed.String()
	}
	return ip
}

// ClientKey returns the normalized address, or a fixed bucket for garbage
func ClientKey(ip string) string {
	normalized := NormalizeIP(ip)
	if IsValidIP(normalized) {
		return normalized
	}
	return unknownClient
}
