package navigation

import (
	"time"

	"github.com/muurk/signflow/internal/steps"
)

// Action names the kind of navigation that produced a ViewChange.
type Action string

const (
	ActionNext  Action = "next"
	ActionBack  Action = "back"
	ActionJump  Action = "jump"
	ActionClose Action = "close"
	ActionMenu  Action = "menu"
)

// ViewChange is emitted after every successful navigation.
type ViewChange struct {
	Session string
	Action  Action
	From    steps.View
	To      steps.View
	Label   string
	At      time.Time
}

// Notifier receives view changes. Implementations are called synchronously
// from the navigating goroutine, so they must not block for long and must not
// call back into the Session that produced the change.
type Notifier interface {
	Notify(change ViewChange)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(change ViewChange)

// Notify calls f(change).
func (f NotifierFunc) Notify(change ViewChange) {
	f(change)
}

type nopNotifier struct{}

func (nopNotifier) Notify(ViewChange) {}

// Multi fans a change out to every non-nil notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	var out multi
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nopNotifier{}
	}
	return out
}

type multi []Notifier

func (m multi) Notify(change ViewChange) {
	for _, n := range m {
		n.Notify(change)
	}
}

// Recorder keeps every change it is notified of. Used by the CLI to print
// what happened and by tests.
type Recorder struct {
	Changes []ViewChange
}

// Notify appends change.
func (r *Recorder) Notify(change ViewChange) {
	r.Changes = append(r.Changes, change)
}

// Last returns the most recent change, or false when nothing was recorded.
func (r *Recorder) Last() (ViewChange, bool) {
	if len(r.Changes) == 0 {
		return ViewChange{}, false
	}
	return r.Changes[len(r.Changes)-1], true
}
