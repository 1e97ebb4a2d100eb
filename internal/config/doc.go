// Package config provides user configuration management for signflow.
//
// This package manages a YAML configuration file holding wizard preferences
// (signable file types, a custom step table, the notification hub to publish
// to) and metadata about hubs discovered on the network. The file follows
// OS-specific conventions for its location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/signflow/config.yaml or $HOME/.config/signflow/config.yaml
//   - macOS: $HOME/.config/signflow/config.yaml
//   - Windows: %LOCALAPPDATA%\signflow\config.yaml
//
// SIGNFLOW_CONFIG_DIR overrides the directory on every platform.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	table, err := registry.Preferences.StepTable()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.UpdateHubLastSeen("signflow-office", "ws://10.0.0.2:8765/ws")
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # File Format
//
//	version: 1
//	preferences:
//	  signable_extensions: [pdf, doc, docx]
//	  step_table: ""
//	  hub_address: ws://localhost:8765/ws
//	  auto_discover: false
//	  discover_timeout: 3
//	hubs:
//	  signflow-office:
//	    nickname: Front desk
//	    last_address: ws://10.0.0.2:8765/ws
//
// # Thread Safety
//
// The global registry is loaded once and cached. SaveTo and ReloadRegistry
// serialize file access with a package mutex; callers mutating the shared
// Registry concurrently must synchronize themselves.
package config
