package protocol

import (
	"sync/atomic"
	"time"

	"github.com/muurk/signflow/internal/navigation"
)

// Global sequence counter (thread-safe)
var seqCounter uint64

// NextSeq returns the next message sequence number. Sequence numbers are
// per process and only used to correlate log lines.
func NextSeq() uint64 {
	return atomic.AddUint64(&seqCounter, 1)
}

// NewViewChanged builds the envelope announcing change
func NewViewChanged(change navigation.ViewChange) Envelope {
	at := change.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Envelope{
		Type:    TypeViewChanged,
		Seq:     NextSeq(),
		Session: change.Session,
		Action:  change.Action,
		From:    change.From,
		To:      change.To,
		Label:   change.Label,
		At:      at,
	}
}

// NewHello builds the first message a client sends after connecting
func NewHello(session, client string) Envelope {
	return Envelope{
		Type:    TypeHello,
		Seq:     NextSeq(),
		Session: session,
		Client:  client,
		At:      time.Now().UTC(),
	}
}

// NewPing builds a keepalive message
func NewPing() Envelope {
	return Envelope{
		Type: TypePing,
		Seq:  NextSeq(),
		At:   time.Now().UTC(),
	}
}
