package discovery

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/logging"
)

// Advertiser keeps a hub registered on mDNS until Shutdown
type Advertiser struct {
	server   *zeroconf.Server
	instance string
}

// Advertise registers a hub under ServiceType in ServiceDomain. An empty
// instance uses DefaultInstance().
func Advertise(instance string, port int, txt map[string]string) (*Advertiser, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	if instance == "" {
		instance = DefaultInstance()
	}

	records := formatTXT(txt)
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising hub via mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", records),
	)

	return &Advertiser{server: server, instance: instance}, nil
}

// Shutdown withdraws the registration
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("Stopped mDNS advertisement", zap.String("instance", a.instance))
}

// DefaultInstance is "signflow-<hostname>"
func DefaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "signflow"
	}
	host = strings.SplitN(host, ".", 2)[0]
	return "signflow-" + host
}

// formatTXT renders metadata as sorted "key=value" records
func formatTXT(txt map[string]string) []string {
	records := make([]string, 0, len(txt))
	for k, v := range txt {
		records = append(records, k+"="+v)
	}
	sort.Strings(records)
	return records
}
