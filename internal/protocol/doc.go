// Package protocol implements the signflow hub wire format.
//
// Every websocket text message exchanged with the hub is one JSON envelope:
//
//	{"type":"view_changed","seq":7,"session":"5f0c...","action":"next",
//	 "from":"recipient","to":"selectFile","label":"Select document",
//	 "at":"2026-03-01T12:00:00Z"}
//
// # Message Types
//
//   - view_changed: A wizard moved between views (session, action, to, at required)
//   - hello: Sent once after connecting (session or client name required)
//   - ping: Keepalive, no fields required
//
// # Decoding
//
// Decode rejects unknown fields, unknown message types, unknown view names and
// missing required fields. Every failure is a *DecodeError whose Kind tells the
// hub whether to log and drop the message.
//
//	env, err := protocol.Decode(data)
//	if kind, ok := protocol.DecodeErrorKindOf(err); ok && kind == protocol.ErrUnknownType {
//	    // newer client, ignore
//	}
//
// # Construction
//
//	data, err := protocol.Encode(protocol.NewViewChanged(change))
//
// # Thread Safety
//
// All functions are stateless apart from the atomic sequence counter and are
// safe for concurrent use.
package protocol
