package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/steps"
)

// MessageType identifies the kind of hub message
type MessageType string

// Message types
const (
	TypeViewChanged MessageType = "view_changed" // A wizard moved between views
	TypeHello       MessageType = "hello"        // First message of a client connection
	TypePing        MessageType = "ping"         // Application-level keepalive
)

// MaxMessageSize bounds a single encoded envelope. The hub sets it as the
// websocket read limit.
const MaxMessageSize = 4096

// Envelope is the JSON object exchanged over the hub
type Envelope struct {
	Type    MessageType       `json:"type"`
	Seq     uint64            `json:"seq,omitempty"`
	Session string            `json:"session,omitempty"`
	Action  navigation.Action `json:"action,omitempty"`
	From    steps.View        `json:"from,omitempty"`
	To      steps.View        `json:"to,omitempty"`
	Label   string            `json:"label,omitempty"`
	Client  string            `json:"client,omitempty"`
	At      time.Time         `json:"at"`
}

// String returns a one-line summary for logs and the watch command
func (e Envelope) String() string {
	switch e.Type {
	case TypeViewChanged:
		from := "-"
		if e.From.Valid() {
			from = e.From.String()
		}
		return fmt.Sprintf("ViewChanged{session=%s, action=%s, %s -> %s}", e.Session, e.Action, from, e.To)
	case TypeHello:
		return fmt.Sprintf("Hello{session=%s, client=%s}", e.Session, e.Client)
	case TypePing:
		return fmt.Sprintf("Ping{seq=%d}", e.Seq)
	default:
		return fmt.Sprintf("Envelope{type=%s}", e.Type)
	}
}

// ViewChange converts a view_changed envelope back to a navigation event
func (e Envelope) ViewChange() (navigation.ViewChange, error) {
	if e.Type != TypeViewChanged {
		return navigation.ViewChange{}, fmt.Errorf("envelope type %s is not %s", e.Type, TypeViewChanged)
	}
	return navigation.ViewChange{
		Session: e.Session,
		Action:  e.Action,
		From:    e.From,
		To:      e.To,
		Label:   e.Label,
		At:      e.At,
	}, nil
}

// Encode validates e and serializes it
func Encode(e Envelope) ([]byte, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", e.Type, err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("envelope too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}
	return data, nil
}

// Decode parses and validates a hub message. Every failure is a *DecodeError.
func Decode(data []byte) (Envelope, error) {
	var e Envelope

	if len(data) > MaxMessageSize {
		return e, newDecodeError(ErrMalformed, "", "message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&e); err != nil {
		return Envelope{}, classifyJSONError(err)
	}

	if err := Validate(e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// Validate checks the invariants of each message type
func Validate(e Envelope) error {
	switch e.Type {
	case TypeViewChanged:
		if e.Session == "" {
			return newDecodeError(ErrMissingField, "session", "view_changed requires a session")
		}
		if !validAction(e.Action) {
			return newDecodeError(ErrInvalidAction, "action", "unknown action %q", e.Action)
		}
		if !e.To.Valid() {
			return newDecodeError(ErrMissingField, "to", "view_changed requires a target view")
		}
		if e.At.IsZero() {
			return newDecodeError(ErrMissingField, "at", "view_changed requires a timestamp")
		}
	case TypeHello:
		if e.Session == "" && e.Client == "" {
			return newDecodeError(ErrMissingField, "session", "hello requires a session or a client name")
		}
	case TypePing:
	case "":
		return newDecodeError(ErrMissingField, "type", "message has no type")
	default:
		return newDecodeError(ErrUnknownType, "type", "unknown message type %q", e.Type)
	}
	return nil
}

func validAction(a navigation.Action) bool {
	switch a {
	case navigation.ActionNext, navigation.ActionBack, navigation.ActionJump,
		navigation.ActionClose, navigation.ActionMenu:
		return true
	}
	return false
}
