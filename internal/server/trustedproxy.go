package server

import (
	"net"
	"net/http"
	"strings"
)

// TrustedProxies decides when forwarded headers may be believed.
// Only connections arriving from a trusted range get their
// X-Forwarded-For / X-Real-IP honored.
type TrustedProxies struct {
	networks []*net.IPNet
}

// NewTrustedProxies builds the trust set from CIDR strings. Bare IPs are
// accepted as single-host ranges; invalid entries are dropped.
func NewTrustedProxies(cidrs []string) *TrustedProxies {
	tp := &TrustedProxies{}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			ip := net.ParseIP(cidr)
			if ip == nil {
				continue
			}
			if ip.To4() != nil {
				_, network, _ = net.ParseCIDR(ip.String() + "/32")
			} else {
				_, network, _ = net.ParseCIDR(ip.String() + "/128")
			}
		}
		if network != nil {
			tp.networks = append(tp.networks, network)
		}
	}
	return tp
}

// IsTrusted reports whether ip falls inside any trusted range.
func (tp *TrustedProxies) IsTrusted(ip net.IP) bool {
	for _, network := range tp.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the effective client address for a request. Forwarded
// headers count only when the direct peer is a trusted proxy.
func (tp *TrustedProxies) ClientIP(r *http.Request) net.IP {
	direct := parseRemoteAddr(r.RemoteAddr)
	if direct == nil || !tp.IsTrusted(direct) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// "client, proxy1, proxy2": the leftmost parseable entry wins.
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip
		}
	}
	return direct
}

// ClientIPString returns the client IP for logging and rate limiting.
func (tp *TrustedProxies) ClientIPString(r *http.Request) string {
	ip := tp.ClientIP(r)
	if ip == nil {
		return "unknown"
	}
	return ip.String()
}

func parseRemoteAddr(addr string) net.IP {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.ParseIP(addr)
	}
	return net.ParseIP(host)
}
