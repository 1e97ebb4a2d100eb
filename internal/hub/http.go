package hub

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/version"
)

const (
	wsPath     = "/ws"
	healthPath = "/healthz"
)

// Health is the body served at /healthz
type Health struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Clients  int    `json:"clients"`
	Sessions int    `json:"sessions"`
}

// Handler returns the hub's HTTP routes. Tests mount it on httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(wsPath, s.serveWS)
	mux.HandleFunc(healthPath, s.serveHealth)
	return mux
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	health := Health{
		Status:   "ok",
		Version:  version.Version,
		Clients:  len(s.clients),
		Sessions: len(s.sessions),
	}
	if s.closed {
		health.Status = "shutting_down"
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.Error("Failed to write health response", zap.Error(err))
	}
}

// LogHTTPRequestDetails logs all details of an HTTP request
func LogHTTPRequestDetails(req *http.Request, remoteAddr string) {
	headers := make(map[string]string)
	for key, values := range req.Header {
		headers[key] = strings.Join(values, ", ")
	}

	logging.LogHTTPRequest(remoteAddr, req.Method, req.URL.Path, headers)

	// Log specific WebSocket headers at debug level
	logging.Debug("WebSocket upgrade request details",
		zap.String("remote_addr", remoteAddr),
		zap.String("host", req.Host),
		zap.String("origin", req.Header.Get("Origin")),
		zap.String("sec_websocket_version", req.Header.Get("Sec-WebSocket-Version")),
		zap.String("user_agent", req.Header.Get("User-Agent")),
	)
}
