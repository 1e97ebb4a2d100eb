package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "signflow"
	configFile = "config.yaml"

	// ConfigDirEnvVar overrides the configuration directory
	ConfigDirEnvVar = "SIGNFLOW_CONFIG_DIR"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Serializes writers of the configuration file
	fileMutex sync.Mutex
)

// GetConfigDir returns the directory holding config.yaml:
//   - SIGNFLOW_CONFIG_DIR when set
//   - Windows: %LOCALAPPDATA%\signflow (falling back to %USERPROFILE%\AppData\Local)
//   - everywhere else: $XDG_CONFIG_HOME/signflow or $HOME/.config/signflow
func GetConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnvVar); dir != "" {
		return dir, nil
	}

	base, err := userConfigBase()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// userConfigBase is the per-user directory applications keep settings in.
// macOS uses ~/.config like Linux rather than ~/Library.
func userConfigBase() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		profile := os.Getenv("USERPROFILE")
		if profile == "" {
			return "", errors.New("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(profile, "AppData", "Local"), nil
	}

	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadRegistry loads the registry from the default location once and
// returns the same instance on every call. A missing file yields defaults.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		globalRegistry, globalRegistryErr = loadDefault()
	})
	return globalRegistry, globalRegistryErr
}

// ReloadRegistry drops the cached registry and reads the file again,
// picking up changes made by another process.
func ReloadRegistry() (*Registry, error) {
	fileMutex.Lock()
	globalRegistryOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadRegistry()
}

func loadDefault() (*Registry, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	reg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRegistry(), nil
	}
	return reg, err
}

// LoadFile loads a registry from an explicit path, bypassing the global
// instance. Unlike LoadRegistry a missing file is an error.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a configuration file's contents.
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if reg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", reg.Version, CurrentVersion)
	}
	if reg.Hubs == nil {
		reg.Hubs = make(map[string]*HubMeta)
	}
	if reg.Preferences == nil {
		reg.Preferences = DefaultPreferences()
	}
	return &reg, nil
}

// Marshal renders the registry as YAML, without the header Save adds.
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Save writes the registry to the default location.
func (r *Registry) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveTo(path)
}

// SaveTo writes the registry to path, creating its directory. The file is
// written next to path and renamed into place so a crash never leaves a
// truncated config behind.
func (r *Registry) SaveTo(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	body, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data := append(fileHeader(path), body...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func fileHeader(path string) []byte {
	return []byte(`# signflow configuration file
# Preferences for the document-sending wizard and the notification hubs
# it has seen.
#
# Location: ` + path + `

`)
}

// CreateDefaultConfig writes a default configuration file to the default
// location. An existing file is left untouched unless overwrite is set.
func CreateDefaultConfig(overwrite bool) (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("config file already exists: %s", path)
		}
	}

	reg := NewRegistry()
	reg.Preferences.HubAddress = "ws://localhost:8765/ws"
	if err := reg.SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}
