package util

import (
	"net"
	"strconv"
	"strings"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// DirectTarget reports whether a peer identifier names a network
// endpoint rather than a rendezvous id, and returns the address to
// dial.  Accepted forms are "host:port", a bare IP address, and a
// bracketed IPv6 literal; bare IPs get defaultPort.
func DirectTarget(id string, defaultPort int) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	if host, port, err := net.SplitHostPort(id); err == nil {
		if host == "" {
			return "", false
		}
		if _, err := strconv.Atoi(port); err != nil {
			return "", false
		}
		return id, true
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(id, "["), "]")
	if ip := net.ParseIP(trimmed); ip != nil {
		return FormatAddr(ip.String(), defaultPort), true
	}
	return "", false
}

// ValidHostPort reports whether s is a well-formed host:port pair with a
// port in 1-65535.
func ValidHostPort(s string) bool {
	host, port, err := net.SplitHostPort(s)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
