// Package ui renders the one-shot terminal output of the signflow CLI.
//
// Unlike the interactive wizard in internal/wizard/tui, these components
// print once and return: a Header naming the command, a Result box with the
// outcome and, for multi-step commands, a Progress list driven by a Runner.
// wizard.go adds renderers for the navigation domain: the step table, gate
// decisions and single transitions.
//
// Example:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Hub Scan",
//	    Command:   "signflow scan",
//	    StepNames: []string{"Browse network", "Save hubs"},
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
//	    onStep(1, "", ui.StepRunning, "")
//	    // ... browse ...
//	    onStep(1, "", ui.StepComplete, "2 hubs")
//	    return []ui.Detail{{Key: "Hubs", Value: "2"}}, nil
//	})
//
// Logging is controlled by SIGNFLOW_LOG_LEVEL. When it is unset zap stays
// silent so the styled output is not interleaved with log lines.
package ui
