// Signflow-hub relays wizard view changes between clients.
//
// Every signflow wizard connected to the hub publishes its moves; the hub
// validates each message and forwards it to all other connected clients,
// such as 'signflow watch' or a hosting shell following the wizard. The hub
// can advertise itself on mDNS so wizards find it without configuration.
//
// Usage:
//
//	signflow-hub server [flags]
//
// See 'signflow-hub server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/signflow/internal/discovery"
	"github.com/muurk/signflow/internal/hub"
	"github.com/muurk/signflow/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "signflow-hub",
	Short: "Signflow view-change notification hub",
	Long: `A standalone websocket hub for signflow wizards.

Wizards publish every view change to the hub, which relays it to all other
connected clients. Clients connect to ws://<host>:<port>/ws; /healthz reports
the connected clients and active sessions.

Note: For the wizard itself, use the separate 'signflow' utility.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	certPath  string
	keyPath   string
	host      string
	port      int
	logLevel  string
	advertise bool
	instance  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the hub",
	Long: `Start the signflow hub and accept websocket connections.

The hub serves plain ws:// unless a certificate and key are given with
--cert and --key, in which case it serves wss://. With --advertise it
registers the ` + discovery.ServiceType + ` service so 'signflow scan' and the
wizard's hub discovery can find it.`,
	Example: `  # Start on the default port
  signflow-hub server

  # Advertise on the local network with debug logging
  signflow-hub server --advertise --log-level debug

  # Serve wss:// with your own certificate
  signflow-hub server --cert fullchain.pem --key privkey.pem --port 8443

  # Listen on one interface only, under a custom mDNS name
  signflow-hub server --host 10.0.0.2 --advertise --instance front-desk`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file (optional, enables wss://)")
	serverCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file (required with --cert)")
	serverCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serverCmd.Flags().IntVar(&port, "port", hub.DefaultPort, "Listen port")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serverCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the hub on mDNS")
	serverCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: "+discovery.DefaultInstance()+")")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Either both cert and key are provided, or neither
	if (certPath != "") != (keyPath != "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}

	if certPath != "" {
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", certPath)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", keyPath)
		}
	}

	config := &hub.Config{
		Host:      host,
		Port:      port,
		CertPath:  certPath,
		KeyPath:   keyPath,
		LogLevel:  logLevel,
		Advertise: advertise,
		Instance:  instance,
	}

	srv, err := hub.New(config)
	if err != nil {
		return fmt.Errorf("failed to create hub: %w", err)
	}

	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("signflow-hub %s (commit: %s)\n", version.Version, version.Commit)
	},
}
