package hub

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/discovery"
	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/version"
)

// DefaultPort is the port the hub listens on when none is configured
const DefaultPort = discovery.DefaultPort

// Config holds the hub configuration
type Config struct {
	Host      string
	Port      int
	LogLevel  string
	Advertise bool   // Register the hub on mDNS
	Instance  string // mDNS instance name (empty = signflow-<hostname>)
	CertPath  string // TLS certificate (optional, requires KeyPath)
	KeyPath   string // TLS private key (optional, requires CertPath)
}

// Server is the view-change notification hub. Every view_changed message a
// client sends is validated and relayed to all other connected clients.
type Server struct {
	config    *Config
	tlsConfig *tls.Config
	upgrader  websocket.Upgrader
	httpSrv   *http.Server
	listener  net.Listener
	advert    *discovery.Advertiser

	wg       sync.WaitGroup
	mu       sync.Mutex
	clients  map[*client]struct{}
	sessions map[string]time.Time
	closed   bool
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config == nil {
		config = &Config{}
	}

	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	var tlsConfig *tls.Config
	switch {
	case config.CertPath != "" && config.KeyPath != "":
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	case config.CertPath != "" || config.KeyPath != "":
		return nil, fmt.Errorf("both a certificate and a key are required for TLS")
	}

	s := &Server{
		config:    config,
		tlsConfig: tlsConfig,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Hosting shells run on arbitrary origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:  make(map[*client]struct{}),
		sessions: make(map[string]time.Time),
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Listen binds the listening socket. Port 0 picks a free port (see Addr).
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener

	logging.Info("Hub listening for connections",
		zap.String("addr", listener.Addr().String()),
		zap.Any("tls", GetTLSInfo(s.tlsConfig)),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown. Listen must be called first.
func (s *Server) Serve() error {
	if s.listener == nil {
		return fmt.Errorf("hub is not listening")
	}
	if err := s.httpSrv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("hub stopped: %w", err)
	}
	return nil
}

// Start listens, optionally advertises on mDNS, and blocks until a shutdown
// signal or a serve error
func (s *Server) Start() error {
	logging.Info("Starting signflow hub",
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
		zap.String("version", version.Version),
		zap.String("log_level", s.config.LogLevel),
	)

	if err := s.Listen(); err != nil {
		return err
	}

	if s.config.Advertise {
		if err := s.advertise(); err != nil {
			// A hub without mDNS still works with an explicit address
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Serve()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping hub...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (s *Server) advertise() error {
	port := s.config.Port
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	tlsFlag := "0"
	if s.tlsConfig != nil {
		tlsFlag = "1"
	}
	adv, err := discovery.Advertise(s.config.Instance, port, map[string]string{
		discovery.TxtPath:    wsPath,
		discovery.TxtTLS:     tlsFlag,
		discovery.TxtVersion: version.Version,
	})
	if err != nil {
		return err
	}
	s.advert = adv
	return nil
}

// Shutdown stops accepting connections, closes every client and waits for
// their goroutines until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down hub...")

	s.advert.Shutdown()

	var shutdownErr error
	if s.listener != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("failed to stop HTTP server: %w", err)
		}
	}

	// Hijacked websocket connections are not tracked by http.Server
	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		logging.Info("Closing client", zap.String("remote_addr", c.remoteAddr))
		s.dropLocked(c)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All clients closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
		if shutdownErr == nil {
			shutdownErr = ctx.Err()
		}
	}

	logging.Sync()
	return shutdownErr
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Sessions returns the ids of wizard sessions seen so far with their last
// activity
func (s *Server) Sessions() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.sessions))
	for id, at := range s.sessions {
		out[id] = at
	}
	return out
}
