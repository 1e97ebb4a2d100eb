package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/signflow/internal/config"
	"github.com/muurk/signflow/internal/discovery"
	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/hub"
	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/steps"
	"github.com/muurk/signflow/internal/ui"
	"github.com/muurk/signflow/internal/wizard/tui"
)

// Draft flags shared by wizard, validate and nav
var (
	draftPath string
	filesDir  string
)

func addDraftFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&draftPath, "draft", "", "Draft YAML file (recipients, files, options)")
	cmd.Flags().StringVar(&filesDir, "dir", "", "Directory whose files are offered as documents")
}

func init() {
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)

	// The root command runs the wizard too
	addDraftFlags(rootCmd)
	addWizardFlags(rootCmd)
}

// wizardCmd launches the interactive TUI wizard
var (
	hubURL    string
	sessionID string
	logFile   string
	saveDraft bool
)

func addWizardFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&hubURL, "hub", "", "Hub websocket URL to publish view changes to (default from config)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (default: random uuid)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs here while the wizard runs (default: signflow.log in the config dir)")
	cmd.Flags().BoolVar(&saveDraft, "save", false, "Write the edited draft back to --draft on exit")
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive document wizard",
	Long: `Launch the interactive wizard for preparing and sending a document.

The wizard provides:
- A home screen with help, settings and invite
- Recipient entry with roles (signer, approver, cc)
- Document selection from a directory or draft file
- Sending options (signing, SMS) and a final validation
- Publishing of every view change to a signflow-hub`,
	Example: `  # Start with an empty draft, offering the files in ./contracts
  signflow wizard --dir ./contracts
  # Or simply (wizard is default):
  signflow --dir ./contracts

  # Resume a saved draft and publish to a hub
  signflow wizard --draft offer.yaml --hub ws://10.0.0.2:8765/ws --save`,
	RunE: runWizard,
}

func init() {
	addDraftFlags(wizardCmd)
	addWizardFlags(wizardCmd)
}

func runWizard(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	table, err := loadTable(reg)
	if err != nil {
		return err
	}
	draft, err := loadDraft()
	if err != nil {
		return err
	}

	closeLog, err := initWizardLogging(reg.Preferences)
	if err != nil {
		return err
	}
	defer closeLog()

	address := hubURL
	if address == "" {
		address = reg.Preferences.HubAddress
	}
	dialOpts, err := hubDialOptions()
	if err != nil {
		return err
	}

	result, err := tui.Run(tui.Options{
		Table:       table,
		Draft:       draft,
		Preferences: reg.Preferences,
		HubURL:      address,
		SessionID:   sessionID,
		Connect: func(ctx context.Context, url, session string) (tui.Publisher, error) {
			pub, err := hub.NewPublisher(ctx, url, session, dialOpts...)
			if err != nil {
				return nil, err
			}
			return pub, nil
		},
		OnHubConnected: func(url string, h *discovery.Hub) {
			rememberHub(reg, url, h)
		},
	})
	if err != nil {
		return err
	}

	if saveDraft && draftPath != "" {
		if err := document.SaveDraft(draftPath, draft); err != nil {
			return err
		}
	}

	p := ui.NewPrinter(os.Stdout)
	switch {
	case result.Finished:
		details := []ui.Detail{
			{Key: "Session", Value: result.SessionID},
			{Key: "Recipients", Value: fmt.Sprintf("%d", len(draft.Recipients))},
		}
		if result.HubURL != "" {
			details = append(details, ui.Detail{Key: "Hub", Value: result.HubURL})
		}
		p.PrintSuccess("Document sent", details...)
	case result.LoggedOut:
		p.PrintWarning("Logged out", ui.Detail{Key: "Session", Value: result.SessionID})
	}
	return nil
}

// rememberHub records a successful hub connection in the configuration
func rememberHub(reg *config.Registry, url string, h *discovery.Hub) {
	if h != nil {
		reg.UpdateHubLastSeen(h.Instance, url)
	}
	reg.Preferences.HubAddress = url
	if err := saveRegistry(reg); err != nil {
		logging.Warn("Failed to save hub to configuration", zap.Error(err))
	}
}

// initWizardLogging sends logs to a file while the TUI owns the terminal
func initWizardLogging(prefs *config.Preferences) (func(), error) {
	level := resolveLogLevel()
	if level == "" {
		logging.InitializeWithWriter("", nil)
		return func() {}, nil
	}

	path := logFile
	if path == "" {
		path = prefs.LogFile
	}
	if path == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		path = filepath.Join(dir, "signflow.log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logging.InitializeWithWriter(level, f)
	return func() {
		logging.Sync()
		_ = f.Close()
	}, nil
}

// loadDraft builds the draft from --draft and --dir
func loadDraft() (*document.Draft, error) {
	var draft *document.Draft
	if draftPath != "" {
		d, err := document.LoadDraft(draftPath)
		if err != nil {
			return nil, err
		}
		draft = d
	} else {
		draft = document.NewDraft("")
	}

	if filesDir != "" {
		files, err := document.FilesFromDir(filesDir)
		if err != nil {
			return nil, err
		}
		draft.Files = append(draft.Files, files...)
		if draft.Name == "" {
			draft.Name = filepath.Base(filesDir)
		}
	}
	return draft, nil
}

// stepsCmd prints the step table in use
var stepsYAML bool

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Show the step table",
	Long: `Print the step table the wizard follows: each step with the view
before and after it, plus the boundary views that live outside the wizard.

Use --yaml to print the table in the format accepted by --steps.`,
	Example: `  # Show the built-in workflow
  signflow steps

  # Validate and show a custom table
  signflow steps --steps ./steps.yaml

  # Export the built-in table as a starting point
  signflow steps --yaml > steps.yaml`,
	RunE: runSteps,
}

func init() {
	stepsCmd.Flags().BoolVar(&stepsYAML, "yaml", false, "Print the table as YAML")
}

func runSteps(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	table, err := loadTable(reg)
	if err != nil {
		return err
	}

	if stepsYAML {
		data, err := steps.MarshalTable(table)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	p := ui.NewPrinter(os.Stdout)
	source := "built-in"
	if stepTablePath != "" {
		source = stepTablePath
	} else if reg.Preferences.StepTablePath != "" {
		source = reg.Preferences.StepTablePath
	}
	p.PrintHeader("Step Table", "signflow steps", map[string]string{"source": source})
	p.PrintStepTable(table, steps.ViewUnknown)
	return nil
}

// validateCmd runs a gate against a draft
var validateView string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether a draft can be sent",
	Long: `Run the validation gate against a draft without opening the wizard.

By default the full document check is run, the one applied before sending.
With --view only the gate guarding forward navigation out of that view is
run. Each issue names the view where it can be fixed.

The command exits with an error when the gate blocks.`,
	Example: `  # Full check before sending
  signflow validate --draft offer.yaml

  # Only the "select document" gate, with documents from a directory
  signflow validate --draft offer.yaml --dir ./contracts --view selectFile`,
	RunE: runValidate,
}

func init() {
	addDraftFlags(validateCmd)
	validateCmd.Flags().StringVar(&validateView, "view", steps.ViewDocumentValidation.String(), "View whose gate to run")
}

func runValidate(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	view, err := steps.ParseView(validateView)
	if err != nil {
		return err
	}
	draft, err := loadDraft()
	if err != nil {
		return err
	}

	var g gate.Gate
	if view == steps.ViewDocumentValidation {
		g = gate.DocumentGate()
	} else {
		g = gate.ForView(view, reg.Preferences.Extensions()...)
	}

	decision := g.CanAdvance(draft)
	logging.LogGateDecision("", view.String(), decision.Allowed, decision.Reasons())

	ui.NewPrinter(os.Stdout).PrintDecision(view, decision)
	if !decision.Allowed {
		return fmt.Errorf("%s is blocked by %d issue(s)", view, len(decision.Issues))
	}
	return nil
}

// configCmd manages the configuration file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the signflow configuration file",
}

var (
	configForce bool
	configYes   bool
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Example: `  # Create the file if it does not exist
  signflow config init

  # Replace an existing file (asks for confirmation)
  signflow config init --force`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration file location and contents",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration file")
	configInitCmd.Flags().BoolVar(&configYes, "yes", false, "Do not ask before overwriting")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	if configForce && !configYes {
		if _, err := os.Stat(path); err == nil {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("refusing to overwrite %s without a terminal; pass --yes", path)
			}
			if !ui.ConfirmOverwriteConfig(os.Stdin, os.Stdout, path) {
				return nil
			}
		}
	}

	path, err = config.CreateDefaultConfig(configForce)
	if err != nil {
		return err
	}
	ui.NewPrinter(os.Stdout).PrintSuccess("Configuration written", ui.Detail{Key: "File", Value: path})
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	data, err := reg.Marshal()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	exists := "yes"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		exists = "no (showing defaults)"
	}
	p.PrintHeader("Configuration", "signflow config show", map[string]string{
		"file":   path,
		"exists": exists,
	})
	p.Println(strings.TrimRight(string(data), "\n"))

	if errs := reg.Validate(); len(errs) > 0 {
		p.Newline()
		tips := make([]string, len(errs))
		for i, e := range errs {
			tips[i] = e.Error()
		}
		p.PrintWarning("Configuration has problems", ui.Detail{Key: "Problems", Value: strings.Join(tips, "; ")})
	}
	return nil
}
