package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Messages queued per client before it is considered too slow
	sendBuffer = 32
)

// client is one websocket connection to the hub
type client struct {
	conn       *websocket.Conn
	remoteAddr string
	send       chan []byte
	closeOnce  sync.Once

	// Set from the client's hello, guarded by Server.mu
	session string
	name    string
}

// close stops the write pump; callers must hold Server.mu so no broadcast
// races the channel close
func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	LogHTTPRequestDetails(r, r.RemoteAddr)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Error("Invalid WebSocket upgrade request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		conn:       conn,
		remoteAddr: r.RemoteAddr,
		send:       make(chan []byte, sendBuffer),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(2)
	s.mu.Unlock()

	logging.LogConnection(c.remoteAddr, "websocket_upgraded")

	go func() {
		defer s.wg.Done()
		s.writePump(c)
	}()
	go func() {
		defer s.wg.Done()
		s.readPump(c)
	}()
}

// readPump handles every message from c until the connection fails
func (s *Server) readPump(c *client) {
	defer func() {
		s.mu.Lock()
		s.dropLocked(c)
		s.mu.Unlock()
		logging.LogConnection(c.remoteAddr, "websocket_closed")
	}()

	c.conn.SetReadLimit(protocol.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Connection closed unexpectedly",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		if msgType != websocket.TextMessage {
			logging.Warn("Ignoring non-text message",
				zap.String("remote_addr", c.remoteAddr),
				zap.Int("type", msgType),
			)
			continue
		}

		logging.LogHubMessage(c.remoteAddr, "received", data)
		s.handleMessage(c, data)
	}
}

// writePump sends queued messages and keepalive pings to c
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Info("Failed to send message",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
				return
			}
			logging.LogHubMessage(c.remoteAddr, "sent", data)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage validates one client message and acts on it
func (s *Server) handleMessage(from *client, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		logging.Warn("Rejected hub message",
			zap.String("remote_addr", from.remoteAddr),
			zap.Error(err),
		)
		return
	}

	switch env.Type {
	case protocol.TypeHello:
		s.mu.Lock()
		from.session = env.Session
		from.name = env.Client
		s.mu.Unlock()
		logging.Info("Client registered",
			zap.String("remote_addr", from.remoteAddr),
			zap.String("session", env.Session),
			zap.String("client", env.Client),
		)

	case protocol.TypePing:
		logging.Debug("Received ping", zap.String("remote_addr", from.remoteAddr))

	case protocol.TypeViewChanged:
		s.broadcast(from, env.Session, data)
	}
}

// broadcast relays data to every client except from
func (s *Server) broadcast(from *client, session string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session] = time.Now()

	delivered := 0
	for c := range s.clients {
		if c == from {
			continue
		}
		select {
		case c.send <- data:
			delivered++
		default:
			logging.Warn("Dropping slow client", zap.String("remote_addr", c.remoteAddr))
			s.dropLocked(c)
		}
	}

	logging.Debug("Broadcast view change",
		zap.String("session", session),
		zap.Int("delivered", delivered),
	)
}

// dropLocked forgets c and stops its write pump. s.mu must be held.
func (s *Server) dropLocked(c *client) {
	delete(s.clients, c)
	c.close()
}
