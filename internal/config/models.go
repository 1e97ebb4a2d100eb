package config

import (
	"fmt"
	"time"

	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/steps"
)

// CurrentVersion is the only config file version this build understands
const CurrentVersion = 1

// Registry represents the entire user configuration file.
// It stores application preferences and the notification hubs seen so far.
type Registry struct {
	Version     int                 `yaml:"version"`
	Preferences *Preferences        `yaml:"preferences,omitempty"`
	Hubs        map[string]*HubMeta `yaml:"hubs,omitempty"` // Keyed by mDNS instance name
}

// HubMeta represents what we remember about a notification hub.
type HubMeta struct {
	Nickname    string    `yaml:"nickname,omitempty"`     // User-friendly name
	LastAddress string    `yaml:"last_address,omitempty"` // Last websocket URL
	LastSeen    time.Time `yaml:"last_seen,omitempty"`    // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	SignableExtensions []string `yaml:"signable_extensions,omitempty"` // Extensions a signed document may have
	StepTablePath      string   `yaml:"step_table,omitempty"`          // Custom step table (empty = built-in workflow)
	HubAddress         string   `yaml:"hub_address,omitempty"`         // Hub websocket URL (empty = none)
	AutoDiscover       bool     `yaml:"auto_discover"`                 // Look for a hub via mDNS when no address is set
	DiscoverTimeout    int      `yaml:"discover_timeout"`              // mDNS discovery timeout in seconds
	LogLevel           string   `yaml:"log_level,omitempty"`           // Log level when SIGNFLOW_LOG_LEVEL is unset
	LogFile            string   `yaml:"log_file,omitempty"`            // Wizard log file (empty = no logging in the TUI)
}

// DefaultPreferences returns the preferences used when the file has none.
func DefaultPreferences() *Preferences {
	return &Preferences{
		SignableExtensions: append([]string(nil), gate.DefaultSignableExtensions...),
		AutoDiscover:       false,
		DiscoverTimeout:    3,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Preferences: DefaultPreferences(),
		Hubs:        make(map[string]*HubMeta),
	}
}

// Extensions returns the normalized signable extensions.
func (p *Preferences) Extensions() []string {
	return gate.NormalizeExtensions(p.SignableExtensions)
}

// DiscoverDuration returns DiscoverTimeout as a duration, at least one second.
func (p *Preferences) DiscoverDuration() time.Duration {
	if p.DiscoverTimeout <= 0 {
		return time.Second
	}
	return time.Duration(p.DiscoverTimeout) * time.Second
}

// StepTable loads the configured step table, or the built-in workflow when
// none is configured.
func (p *Preferences) StepTable() (*steps.Table, error) {
	if p.StepTablePath == "" {
		return steps.DefaultTable(), nil
	}
	table, err := steps.LoadTable(p.StepTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configured step table: %w", err)
	}
	return table, nil
}

// GetHub retrieves hub metadata by instance name.
// Returns nil if the hub doesn't exist in the registry.
func (r *Registry) GetHub(instance string) *HubMeta {
	return r.Hubs[instance]
}

// EnsureHub ensures a hub entry exists in the registry.
// Returns the hub entry (existing or newly created).
func (r *Registry) EnsureHub(instance string) *HubMeta {
	if r.Hubs == nil {
		r.Hubs = make(map[string]*HubMeta)
	}

	if hub, exists := r.Hubs[instance]; exists {
		return hub
	}

	hub := &HubMeta{}
	r.Hubs[instance] = hub
	return hub
}

// UpdateHubLastSeen updates the last seen timestamp and address for a hub.
func (r *Registry) UpdateHubLastSeen(instance, address string) {
	hub := r.EnsureHub(instance)
	hub.LastSeen = time.Now()
	hub.LastAddress = address
}

// SetHubNickname sets a user-friendly nickname for a hub.
func (r *Registry) SetHubNickname(instance, nickname string) {
	hub := r.EnsureHub(instance)
	hub.Nickname = nickname
}

// Validate checks preference values a user may have edited by hand.
func (r *Registry) Validate() []error {
	var errs []error
	p := r.Preferences
	if p == nil {
		return nil
	}
	if p.DiscoverTimeout < 0 {
		errs = append(errs, fmt.Errorf("discover_timeout must not be negative (got %d)", p.DiscoverTimeout))
	}
	if len(p.SignableExtensions) > 0 && len(gate.NormalizeExtensions(p.SignableExtensions)) == 0 {
		errs = append(errs, fmt.Errorf("signable_extensions contains no usable extension"))
	}
	switch p.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", p.LogLevel))
	}
	return errs
}
