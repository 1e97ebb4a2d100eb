package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/config"
	"github.com/muurk/signflow/internal/discovery"
	"github.com/muurk/signflow/internal/hub"
	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/protocol"
	"github.com/muurk/signflow/internal/steps"
	"github.com/muurk/signflow/internal/ui"
	"github.com/muurk/signflow/internal/urls"
)

func init() {
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
}

// Navigation command flags
var (
	navFrom    string
	navHub     string
	navSession string
)

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Compute a single wizard move without the TUI",
	Long: `Run one navigation step against the step table and print the result.

'next' consults the gate of the starting view and refuses to move when the
draft does not pass it. 'back' and 'goto' are never gated. With --hub the
move is published like a move in the interactive wizard.`,
}

var navNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the step after --from",
	Example: `  # Where does "select document" lead, and may we go there?
  signflow nav next --from selectFile --draft offer.yaml --dir ./contracts`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNav(cmd.Context(), navigation.ActionNext, steps.ViewUnknown)
	},
}

var navBackCmd = &cobra.Command{
	Use:   "back",
	Short: "Move to the step before --from",
	Example: `  signflow nav back --from sendDocument`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNav(cmd.Context(), navigation.ActionBack, steps.ViewUnknown)
	},
}

var navGotoCmd = &cobra.Command{
	Use:   "goto <view>",
	Short: "Jump directly to a step",
	Example: `  signflow nav goto recipient --from documentValidation`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := steps.ParseView(args[0])
		if err != nil {
			return err
		}
		return runNav(cmd.Context(), navigation.ActionJump, target)
	},
}

func init() {
	navCmd.PersistentFlags().StringVar(&navFrom, "from", "", "View to start from (default: first step of the table)")
	navCmd.PersistentFlags().StringVar(&navHub, "hub", "", "Publish the move to this hub websocket URL")
	navCmd.PersistentFlags().StringVar(&navSession, "session", "", "Session id stamped on the published move (default: random uuid)")
	addDraftFlags(navNextCmd)

	navCmd.AddCommand(navNextCmd)
	navCmd.AddCommand(navBackCmd)
	navCmd.AddCommand(navGotoCmd)
}

func runNav(ctx context.Context, action navigation.Action, target steps.View) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	table, err := loadTable(reg)
	if err != nil {
		return err
	}

	from := table.First().ID
	if navFrom != "" {
		if from, err = steps.ParseView(navFrom); err != nil {
			return err
		}
	}

	id := navSession
	if id == "" {
		id = uuid.NewString()
	}

	rec := &navigation.Recorder{}
	var notifier navigation.Notifier = rec
	if navHub != "" {
		dialOpts, err := hubDialOptions()
		if err != nil {
			return err
		}
		pub, err := hub.NewPublisher(ctx, navHub, id, dialOpts...)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		notifier = navigation.Multi(rec, pub)
	}

	session := navigation.NewSession(table,
		navigation.WithID(id),
		navigation.StartAt(from),
		navigation.WithSessionNotifier(notifier),
		navigation.WithSignableExtensions(reg.Preferences.Extensions()...),
	)
	defer session.End()

	p := ui.NewPrinter(os.Stdout)

	var to steps.View
	switch action {
	case navigation.ActionNext:
		draft, err := loadDraft()
		if err != nil {
			return err
		}
		var decision = session.Check(draft)
		if !decision.Allowed {
			p.PrintDecision(from, decision)
			return fmt.Errorf("cannot leave %s: %d issue(s)", from, len(decision.Issues))
		}
		to, _, err = session.Next(draft)
		if err != nil {
			return err
		}
	case navigation.ActionBack:
		if to, err = session.Back(); err != nil {
			return err
		}
	case navigation.ActionJump:
		if to, err = session.Jump(target); err != nil {
			return err
		}
	}

	for _, ch := range rec.Changes {
		p.PrintTransition(string(ch.Action), ch.From, ch.To)
	}
	p.Newline()
	p.PrintStepTable(table, to)
	return nil
}

// scanCmd discovers hubs on the network
var (
	scanTimeout int
	scanSave    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for signflow hubs on the network",
	Long: `Scan for signflow hubs using mDNS/DNS-SD discovery.

Hubs started with 'signflow-hub server --advertise' register the
` + discovery.ServiceType + ` service. Found hubs can be saved to the
configuration file so the wizard remembers them.`,
	Example: `  # Scan for 5 seconds (default)
  signflow scan

  # Longer scan, remembering what was found
  signflow scan --timeout 15 --save`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Record found hubs in the configuration file")
}

func runScan(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Hub Scan",
		Command: "signflow scan",
		Params: map[string]string{
			"service": discovery.ServiceType,
			"timeout": fmt.Sprintf("%ds", scanTimeout),
		},
		StepNames: []string{"Browse the local network", "Save hubs to configuration"},
		Troubleshooting: []string{
			"Start a hub with: signflow-hub server --advertise",
			"Check that multicast DNS (UDP 5353) is not blocked",
			"Try increasing --timeout for slower networks",
			"See: " + urls.HubSetup,
		},
	})

	var found []*discovery.Hub
	err = runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
		if ctx == nil {
			ctx = context.Background()
		}
		onStep(1, "", ui.StepRunning, "")
		scanner := discovery.NewScanner()
		scanner.Timeout = time.Duration(scanTimeout) * time.Second
		hubs, err := scanner.ScanForHubs(ctx)
		if err != nil {
			onStep(1, "", ui.StepFailed, err.Error())
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		found = hubs
		onStep(1, "", ui.StepComplete, fmt.Sprintf("%d hub(s)", len(hubs)))

		if !scanSave || len(hubs) == 0 {
			onStep(2, "", ui.StepSkipped, "")
		} else {
			onStep(2, "", ui.StepRunning, "")
			if err := saveHubs(reg, hubs); err != nil {
				onStep(2, "", ui.StepFailed, err.Error())
				return nil, err
			}
			onStep(2, "", ui.StepComplete, "")
		}

		details := []ui.Detail{{Key: "Hubs found", Value: fmt.Sprintf("%d", len(hubs))}}
		return append(details, hubDetails(hubs)...), nil
	})
	if err != nil {
		return err
	}

	if len(found) == 0 {
		ui.NewPrinter(os.Stdout).PrintWarning("No hubs found",
			ui.Detail{Key: "Hint", Value: "use --hub with the wizard or watch to give an address"})
	}
	return nil
}

// hubDetails lists hubs as instance → URL rows
func hubDetails(hubs []*discovery.Hub) []ui.Detail {
	details := make([]ui.Detail, 0, len(hubs))
	for _, h := range hubs {
		details = append(details, ui.Detail{Key: h.Instance, Value: h.URL()})
	}
	return details
}

func saveHubs(reg *config.Registry, hubs []*discovery.Hub) error {
	for _, h := range hubs {
		reg.UpdateHubLastSeen(h.Instance, h.URL())
	}
	return saveRegistry(reg)
}

// watchCmd follows view changes relayed by a hub
var (
	watchHub      string
	watchInstance string
	watchSession  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print view changes relayed by a hub",
	Long: `Connect to a hub and print every wizard move it relays until
interrupted. Without --hub or --instance the configured address is used,
and failing that the single hub found by a quick mDNS scan.`,
	Example: `  signflow watch --hub ws://10.0.0.2:8765/ws

  # Find a hub by its mDNS name
  signflow watch --instance signflow-office

  # Only one session
  signflow watch --session 3f2c9a1e-...`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchHub, "hub", "", "Hub websocket URL")
	watchCmd.Flags().StringVar(&watchInstance, "instance", "", "Find the hub with this mDNS instance name")
	watchCmd.Flags().StringVar(&watchSession, "session", "", "Only print changes of this session")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url, err := resolveWatchHub(ctx)
	if err != nil {
		return err
	}

	dialOpts, err := hubDialOptions()
	if err != nil {
		return err
	}
	changes, err := hub.Subscribe(ctx, url, dialOpts...)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	params := map[string]string{"hub": url}
	if watchSession != "" {
		params["session"] = watchSession
	}
	p.PrintHeader("Watching view changes", "signflow watch", params)

	for env := range changes {
		if env.Type != protocol.TypeViewChanged {
			continue
		}
		if watchSession != "" && env.Session != watchSession {
			continue
		}
		p.Println(fmt.Sprintf("%s  %-8s %s  %s",
			env.At.Local().Format("15:04:05"),
			shortID(env.Session),
			ui.RenderTransition(string(env.Action), env.From, env.To),
			env.Label,
		))
	}

	if ctx.Err() == nil {
		return fmt.Errorf("hub %s closed the connection (see %s)", url, urls.TroubleshootingGuide)
	}
	return nil
}

func resolveWatchHub(ctx context.Context) (string, error) {
	if watchHub != "" {
		return watchHub, nil
	}
	if watchInstance != "" {
		h, err := discovery.NewScanner().FindHub(ctx, watchInstance)
		if err != nil {
			return "", err
		}
		return h.URL(), nil
	}
	if reg, err := loadRegistry(); err == nil && reg.Preferences.HubAddress != "" {
		return reg.Preferences.HubAddress, nil
	}

	logging.Debug("No hub address given, scanning")
	hubs, err := discovery.QuickScan(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	switch len(hubs) {
	case 0:
		return "", fmt.Errorf("no hubs found. Use --hub to give the address")
	case 1:
		logging.Info("Using discovered hub", zap.String("instance", hubs[0].Instance))
		return hubs[0].URL(), nil
	default:
		ui.NewPrinter(os.Stdout).PrintWarning("Multiple hubs found", hubDetails(hubs)...)
		return "", fmt.Errorf("multiple hubs found. Use --hub or --instance to specify which one")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
