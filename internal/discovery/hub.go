package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Hub represents a signflow notification hub found on the network
type Hub struct {
	// Instance is the mDNS instance name (e.g., "signflow-laptop")
	Instance string

	// Host is the mDNS hostname (e.g., "laptop.local.")
	Host string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the hub's HTTP port
	Port int

	// Metadata contains the TXT record data
	// Common fields: "path=/ws", "tls=1", "version=v0.3.0"
	Metadata map[string]string

	// DiscoveredAt is when the hub was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the hub
func (h *Hub) String() string {
	return fmt.Sprintf("signflow hub %s (%s) at %s", h.Instance, h.Host, h.Addr())
}

// Addr returns host:port, bracketing IPv6 addresses
func (h *Hub) Addr() string {
	return net.JoinHostPort(h.IP, strconv.Itoa(h.Port))
}

// URL returns the websocket URL clients dial
func (h *Hub) URL() string {
	scheme := "ws"
	if h.GetMetadata(TxtTLS) == "1" {
		scheme = "wss"
	}
	path := h.GetMetadata(TxtPath)
	if path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf("%s://%s%s", scheme, h.Addr(), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (h *Hub) GetMetadata(key string) string {
	if h.Metadata == nil {
		return ""
	}
	return h.Metadata[key]
}
