// Package hub relays wizard view changes between processes over websockets.
//
// A Server accepts websocket connections at /ws. Each client opens with a
// hello message; after that every view_changed envelope it sends is decoded,
// validated and forwarded to all other connected clients. Invalid messages are
// logged and dropped without closing the connection.
//
// # Clients
//
// Publisher implements navigation.Notifier, so a wizard session can stream its
// navigation without knowing about websockets:
//
//	pub, err := hub.NewPublisher(ctx, "ws://localhost:8765/ws", session.ID())
//	if err != nil {
//	    return err
//	}
//	defer pub.Close()
//
// Subscribe returns a channel of envelopes for observers such as
// "signflow watch".
//
// # Endpoints
//
//   - /ws: Websocket upgrade
//   - /healthz: JSON status (clients, sessions seen, version)
//
// # TLS and mDNS
//
// Setting CertPath and KeyPath serves wss:// instead of ws://. With Advertise
// set, the hub registers itself as "_signflow._tcp" so "signflow scan" and
// the wizard's auto-discovery can find it.
//
// # Graceful Shutdown
//
// Start handles SIGINT and SIGTERM:
//  1. Withdraw the mDNS advertisement
//  2. Stop accepting new connections
//  3. Send a close frame to every client
//  4. Wait for the per-client goroutines to finish
//
// # Thread Safety
//
// Each client runs a read and a write goroutine. Broadcasts never block: a
// client whose send queue is full is disconnected.
package hub
