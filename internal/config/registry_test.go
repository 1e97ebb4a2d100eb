package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/signflow/internal/steps"
)

// useTempConfigDir points the package at a fresh directory and resets the
// global registry around the test.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigDirEnvVar, dir)
	globalRegistryOnce = sync.Once{}
	t.Cleanup(func() { globalRegistryOnce = sync.Once{} })
	return dir
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, "")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "signflow") {
		t.Errorf("GetConfigDir() = %v, should contain 'signflow'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_EnvOverride(t *testing.T) {
	t.Setenv(ConfigDirEnvVar, "/tmp/signflow-override")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if dir != "/tmp/signflow-override" {
		t.Errorf("GetConfigDir() = %q, want override", dir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != CurrentVersion {
		t.Errorf("NewRegistry().Version = %v, want %d", reg.Version, CurrentVersion)
	}
	if reg.Hubs == nil {
		t.Error("NewRegistry().Hubs should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if diff := cmp.Diff([]string{"pdf", "doc", "docx"}, reg.Preferences.Extensions()); diff != "" {
		t.Errorf("default extensions mismatch:\n%s", diff)
	}
	if reg.Preferences.DiscoverDuration() != 3*time.Second {
		t.Errorf("DiscoverDuration() = %v, want 3s", reg.Preferences.DiscoverDuration())
	}
}

func TestRegistryHubs(t *testing.T) {
	reg := NewRegistry()

	if reg.GetHub("office") != nil {
		t.Error("GetHub() should return nil for unknown hub")
	}

	first := reg.EnsureHub("office")
	if second := reg.EnsureHub("office"); first != second {
		t.Error("EnsureHub() should return the existing entry")
	}

	before := time.Now()
	reg.UpdateHubLastSeen("office", "ws://10.0.0.2:8765/ws")
	reg.SetHubNickname("office", "Front desk")

	hub := reg.GetHub("office")
	if hub.LastAddress != "ws://10.0.0.2:8765/ws" {
		t.Errorf("LastAddress = %q", hub.LastAddress)
	}
	if hub.LastSeen.Before(before) {
		t.Error("LastSeen should be updated")
	}
	if hub.Nickname != "Front desk" {
		t.Errorf("Nickname = %q", hub.Nickname)
	}

	var empty Registry
	empty.EnsureHub("x")
	if empty.Hubs == nil {
		t.Error("EnsureHub() should initialise the map")
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	useTempConfigDir(t)

	reg := NewRegistry()
	reg.Preferences.SignableExtensions = []string{"pdf", "odt"}
	reg.Preferences.HubAddress = "ws://localhost:9000/ws"
	reg.SetHubNickname("office", "Front desk")

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if diff := cmp.Diff(reg, loaded); diff != "" {
		t.Errorf("loaded registry mismatch (-saved +loaded):\n%s", diff)
	}

	path, _ := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# signflow configuration file") {
		t.Error("saved file should start with the header comment")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	useTempConfigDir(t)

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if diff := cmp.Diff(NewRegistry(), reg); diff != "" {
		t.Errorf("missing file should give defaults:\n%s", diff)
	}
}

func TestReloadRegistry(t *testing.T) {
	useTempConfigDir(t)

	reg, _ := LoadRegistry()
	reg.Preferences.LogLevel = "debug"
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := ReloadRegistry()
	if err != nil {
		t.Fatalf("ReloadRegistry() error = %v", err)
	}
	if reloaded == reg {
		t.Error("ReloadRegistry() should read a fresh instance")
	}
	if reloaded.Preferences.LogLevel != "debug" {
		t.Errorf("LogLevel = %q after reload", reloaded.Preferences.LogLevel)
	}
}

func TestParseRegistry(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
		check   func(t *testing.T, r *Registry)
	}{
		{
			name: "full file",
			data: `version: 1
preferences:
  signable_extensions: [".PDF", docx]
  step_table: /etc/signflow/steps.yaml
  hub_address: ws://hub:8765/ws
  auto_discover: true
  discover_timeout: 7
  log_level: info
hubs:
  office:
    nickname: Front desk
`,
			check: func(t *testing.T, r *Registry) {
				if diff := cmp.Diff([]string{"pdf", "docx"}, r.Preferences.Extensions()); diff != "" {
					t.Errorf("Extensions() mismatch:\n%s", diff)
				}
				if !r.Preferences.AutoDiscover || r.Preferences.DiscoverTimeout != 7 {
					t.Errorf("preferences = %+v", r.Preferences)
				}
				if r.GetHub("office").Nickname != "Front desk" {
					t.Error("hub nickname not loaded")
				}
			},
		},
		{
			name: "no preferences",
			data: "version: 1\n",
			check: func(t *testing.T, r *Registry) {
				if r.Preferences == nil || r.Hubs == nil {
					t.Error("missing sections should be defaulted")
				}
			},
		},
		{
			name:    "wrong version",
			data:    "version: 2\n",
			wantErr: "unsupported config version",
		},
		{
			name:    "invalid yaml",
			data:    "version: [",
			wantErr: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := ParseRegistry([]byte(tt.data))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseRegistry() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRegistry() error = %v", err)
			}
			tt.check(t, reg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("version: 1\npreferences:\n  log_level: warn\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if reg.Preferences.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", reg.Preferences.LogLevel)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() on a missing file should fail")
	}
}

func TestSaveTo(t *testing.T) {
	useTempConfigDir(t)
	path := filepath.Join(t.TempDir(), "nested", "team.yaml")

	reg := NewRegistry()
	reg.UpdateHubLastSeen("signflow-office", "ws://10.0.0.2:8765/ws")
	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := loaded.GetHub("signflow-office"); got == nil || got.LastAddress != "ws://10.0.0.2:8765/ws" {
		t.Errorf("hub not saved: %+v", got)
	}

	defaultPath, _ := GetConfigPath()
	if _, err := os.Stat(defaultPath); !os.IsNotExist(err) {
		t.Error("SaveTo() must not touch the default config file")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	useTempConfigDir(t)

	path, err := CreateDefaultConfig(false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := CreateDefaultConfig(false); err == nil {
		t.Error("CreateDefaultConfig(false) should refuse to overwrite")
	}
	if _, err := CreateDefaultConfig(true); err != nil {
		t.Errorf("CreateDefaultConfig(true) error = %v", err)
	}
}

func TestPreferences_StepTable(t *testing.T) {
	p := DefaultPreferences()
	table, err := p.StepTable()
	if err != nil {
		t.Fatalf("StepTable() error = %v", err)
	}
	if table.Len() != steps.DefaultTable().Len() {
		t.Error("empty path should give the default table")
	}

	path := filepath.Join(t.TempDir(), "steps.yaml")
	yamlTable := `steps:
  - view: recipient
    previous: home
    next: exit
    label: Only step
`
	if err := os.WriteFile(path, []byte(yamlTable), 0600); err != nil {
		t.Fatal(err)
	}
	p.StepTablePath = path
	table, err = p.StepTable()
	if err != nil {
		t.Fatalf("StepTable() error = %v", err)
	}
	if table.Len() != 1 || table.First().Label != "Only step" {
		t.Errorf("custom table not loaded: %+v", table.Steps())
	}

	p.StepTablePath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := p.StepTable(); err == nil {
		t.Error("missing step table should fail")
	}
}

func TestRegistry_Validate(t *testing.T) {
	reg := NewRegistry()
	if errs := reg.Validate(); len(errs) != 0 {
		t.Errorf("default registry invalid: %v", errs)
	}

	reg.Preferences.DiscoverTimeout = -1
	reg.Preferences.SignableExtensions = []string{" ", "."}
	reg.Preferences.LogLevel = "loud"
	if errs := reg.Validate(); len(errs) != 3 {
		t.Errorf("Validate() = %v, want 3 errors", errs)
	}
}

func TestDiscoverDuration_Floor(t *testing.T) {
	p := &Preferences{DiscoverTimeout: 0}
	if p.DiscoverDuration() != time.Second {
		t.Errorf("DiscoverDuration() = %v, want 1s", p.DiscoverDuration())
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func BenchmarkEnsureHub(b *testing.B) {
	reg := NewRegistry()
	for i := 0; i < b.N; i++ {
		reg.EnsureHub("office")
	}
}
