package hub

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/protocol"
)

// DialOption configures a hub client connection
type DialOption func(*websocket.Dialer)

// WithTLSConfig sets the TLS configuration used for wss:// URLs
func WithTLSConfig(cfg *tls.Config) DialOption {
	return func(d *websocket.Dialer) { d.TLSClientConfig = cfg }
}

// WithHandshakeTimeout bounds the websocket handshake
func WithHandshakeTimeout(timeout time.Duration) DialOption {
	return func(d *websocket.Dialer) { d.HandshakeTimeout = timeout }
}

// Dial opens a websocket to a hub and sends hello
func Dial(ctx context.Context, url string, hello protocol.Envelope, opts ...DialOption) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(dialer)
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to hub %s: %w", url, err)
	}

	data, err := protocol.Encode(hello)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send hello: %w", err)
	}

	logging.LogConnection(url, "hub_connected")
	return conn, nil
}

// Publisher sends a session's view changes to a hub. It implements
// navigation.Notifier; Notify never blocks and drops changes when the
// connection cannot keep up.
type Publisher struct {
	conn    *websocket.Conn
	send    chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

var _ navigation.Notifier = (*Publisher)(nil)

// NewPublisher connects to the hub at url on behalf of session
func NewPublisher(ctx context.Context, url, session string, opts ...DialOption) (*Publisher, error) {
	conn, err := Dial(ctx, url, protocol.NewHello(session, "wizard"), opts...)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	p.wg.Add(2)
	go p.writeLoop()
	go p.readLoop()
	return p, nil
}

// Notify queues change for delivery
func (p *Publisher) Notify(change navigation.ViewChange) {
	data, err := protocol.Encode(protocol.NewViewChanged(change))
	if err != nil {
		logging.Error("Failed to encode view change", zap.Error(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.send <- data:
	default:
		p.dropped.Add(1)
		logging.Warn("Hub publisher queue full, dropping view change",
			zap.String("session", change.Session),
		)
	}
}

// Dropped returns how many changes were discarded
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close flushes queued changes, says goodbye and waits for the connection
// goroutines to finish
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.send)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Publisher) writeLoop() {
	defer p.wg.Done()
	defer func() { _ = p.conn.Close() }()

	for data := range p.send {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logging.Warn("Failed to publish view change", zap.Error(err))
			// Keep draining so Close never blocks on a dead connection
			continue
		}
	}

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop consumes control frames (pings, close) until the connection ends
func (p *Publisher) readLoop() {
	defer p.wg.Done()
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Subscribe connects to the hub and streams every view change it relays.
// The channel is closed when ctx ends or the connection drops.
func Subscribe(ctx context.Context, url string, opts ...DialOption) (<-chan protocol.Envelope, error) {
	conn, err := Dial(ctx, url, protocol.NewHello("", "watch"), opts...)
	if err != nil {
		return nil, err
	}

	out := make(chan protocol.Envelope)
	readerDone := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-readerDone:
		}
	}()

	go func() {
		defer close(out)
		defer close(readerDone)
		defer func() { _ = conn.Close() }()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					logging.Info("Hub subscription ended", zap.Error(err))
				}
				return
			}
			env, err := protocol.Decode(data)
			if err != nil {
				logging.Warn("Ignoring invalid hub message", zap.Error(err))
				continue
			}
			select {
			case out <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
