package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type hubs advertise
	ServiceType = "_signflow._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for hub discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the hub port assumed when an entry carries none
	DefaultPort = 8765

	// DefaultPath is the websocket path assumed when the TXT record has none
	DefaultPath = "/ws"
)

// TXT record keys
const (
	TxtPath    = "path"
	TxtTLS     = "tls"
	TxtVersion = "version"
)

// Scanner handles mDNS hub discovery
type Scanner struct {
	// Timeout is the maximum time to wait for hub discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForHubs browses for hubs until the timeout or ctx ends and returns
// every hub seen, without duplicates.
func (s *Scanner) ScanForHubs(ctx context.Context) ([]*Hub, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Hub, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// zeroconf closes entries once the browse context ends
	go func() {
		seen := make(map[string]bool)
		hubs := make([]*Hub, 0)
		for entry := range entries {
			hub := s.parseServiceEntry(entry)
			if hub == nil || seen[hub.Instance] {
				continue
			}
			seen[hub.Instance] = true
			hubs = append(hubs, hub)
		}
		collected <- hubs
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	select {
	case hubs := <-collected:
		return hubs, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("mDNS browse did not finish after timeout")
	}
}

// FindHub waits for the hub with the given instance name
func (s *Scanner) FindHub(ctx context.Context, instance string) (*Hub, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Hub, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			hub := s.parseServiceEntry(entry)
			if hub != nil && hub.Instance == instance {
				select {
				case found <- hub:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Lookup(ctx, instance, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to look up hub %s: %w", instance, err)
	}

	select {
	case hub := <-found:
		return hub, nil
	case <-ctx.Done():
		select {
		case hub := <-found:
			return hub, nil
		default:
		}
		return nil, fmt.Errorf("hub %s not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Hub
// Returns nil if the entry has no usable address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Hub {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Hub{
		Instance:     entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT records; keys without a value map to ""
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if parts[0] == "" {
			continue
		}
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan(ctx context.Context) ([]*Hub, error) {
	scanner := NewScanner()
	scanner.Timeout = 2 * time.Second
	return scanner.ScanForHubs(ctx)
}
