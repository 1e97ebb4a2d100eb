// Signflow is the document-sending wizard.
//
// It walks a user through the steps of sending a document for e-signature:
// choosing recipients, selecting the document, preparing sending options and
// the final validation. Forward moves are guarded by validation gates and
// every view change can be published to a signflow-hub for other tools to
// follow.
//
// Usage:
//
//	signflow [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'signflow --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/signflow/internal/config"
	"github.com/muurk/signflow/internal/hub"
	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/steps"
	"github.com/muurk/signflow/internal/urls"
	"github.com/muurk/signflow/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if steps.IsTableError(err) || steps.IsUnknownStep(err) {
			fmt.Fprintf(os.Stderr, "\n%s\n", steps.GetTroubleshootingHint(err))
		}
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

// Global flags
var (
	configPath    string
	stepTablePath string
	logLevel      string
	hubCA         string
)

var rootCmd = &cobra.Command{
	Use:   "signflow",
	Short: "Document sending wizard",
	Long: `A terminal wizard for sending documents for e-signature.

The wizard follows a step table (recipients, select document, prepare
sending, send). Moving forward is only allowed when the current step
validates; issues point back at the step where they can be fixed.

If no command is specified, the interactive wizard will launch automatically.

Documentation: ` + urls.GettingStarted,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The wizard owns the terminal and configures logging itself
		if cmd == cmd.Root() || cmd == wizardCmd {
			return nil
		}
		return logging.Initialize(resolveLogLevel())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run wizard when no subcommand provided
		return runWizard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: OS config dir, see 'signflow config show')")
	rootCmd.PersistentFlags().StringVar(&stepTablePath, "steps", "", "Step table YAML file (overrides the configured one)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&hubCA, "hub-ca", "", "PEM certificate to trust for wss:// hubs (the hub's own or its CA)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("signflow %s (commit: %s, %s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}

// loadRegistry reads --config or the global configuration file
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.LoadRegistry()
}

// hubDialOptions applies --hub-ca to hub connections
func hubDialOptions() ([]hub.DialOption, error) {
	opts := []hub.DialOption{hub.WithHandshakeTimeout(5 * time.Second)}
	if hubCA != "" {
		ca, err := hub.WithCAFile(hubCA)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ca)
	}
	return opts, nil
}

// saveRegistry writes reg back to where loadRegistry read it from
func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveTo(configPath)
	}
	return reg.Save()
}

// loadTable resolves the step table from --steps, then the configuration,
// then the built-in workflow
func loadTable(reg *config.Registry) (*steps.Table, error) {
	if stepTablePath != "" {
		return steps.LoadTable(stepTablePath)
	}
	return reg.Preferences.StepTable()
}

// resolveLogLevel picks --log-level, then SIGNFLOW_LOG_LEVEL, then the
// configured preference. Empty keeps logging silent.
func resolveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if level := os.Getenv(logging.LogLevelEnvVar); level != "" {
		return level
	}
	if reg, err := loadRegistry(); err == nil {
		return reg.Preferences.LogLevel
	}
	return ""
}
