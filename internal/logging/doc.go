// Package logging provides structured logging for signflow.
//
// This package wraps a zap logger with package-level helpers so every
// component logs the same way without threading a logger through each call.
//
// # Log Levels
//
//   - Debug: Gate passes, hub message bodies
//   - Info: View changes, blocked gates, hub connections
//   - Warn: Dropped hub clients, retries
//   - Error: Startup failures, rejected hub messages
//
// # Silent By Default
//
// CLI commands call Initialize with --log-level or SIGNFLOW_LOG_LEVEL and get
// a no-op logger when neither is set. The hub passes its --log-level flag to Initialize.
// The TUI wizard writes to a file through InitializeWithWriter because console
// output would corrupt the alt screen.
//
// # Domain Helpers
//
//	logging.LogViewChange(sessionID, "next", "recipient", "selectFile")
//	logging.LogGateDecision(sessionID, "selectFile", false, decision.Reasons())
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once initialized.
// Initialize itself is meant to be called once at startup.
package logging
