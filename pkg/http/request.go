package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// MaxBodyBytes bounds every JSON request body the vault accepts
const MaxBodyBytes = 64 << 10

// IPConfig lists the reverse proxies whose forwarding headers are believed
type IPConfig struct {
	TrustedProxies []string // CIDR ranges

	nets []*net.IPNet
}

// NewIPConfig parses the trusted proxy ranges once. Invalid ranges are
// returned as an error so a typo in configuration is not silently ignored.
func NewIPConfig(cidrs []string) (*IPConfig, error) {
	cfg := &IPConfig{TrustedProxies: cidrs}
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		cfg.nets = append(cfg.nets, ipNet)
	}
	return cfg, nil
}

// ExtractClientIP returns the address used for rate limiting and audit
// records. Forwarding headers are read only when the direct peer is a
// trusted proxy; otherwise the peer address is used as-is.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	peer := peerAddr(r)
	if config == nil || !config.trusts(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, hop := range strings.Split(xff, ",") {
			hop = strings.TrimSpace(hop)
			if net.ParseIP(hop) != nil {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return peer
}

func peerAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (c *IPConfig) trusts(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}

	nets := c.nets
	if nets == nil {
		// Built as a literal rather than through NewIPConfig.
		for _, cidr := range c.TrustedProxies {
			if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
				nets = append(nets, ipNet)
			}
		}
	}

	for _, ipNet := range nets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// DecodeJSON reads a single JSON object into dst. Unknown fields, trailing
// data and bodies over MaxBodyBytes are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
