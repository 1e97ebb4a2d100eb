package navigation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/steps"
)

var (
	// ErrNotOverlay is returned when OpenOverlay is given a wizard step.
	ErrNotOverlay = errors.New("view is not an overlay")

	// ErrSessionEnded is returned by every mutation after End.
	ErrSessionEnded = errors.New("session has ended")
)

// GateFunc returns the gate guarding forward navigation out of a view.
type GateFunc func(view steps.View) gate.Gate

// Session owns the current view of one wizard run. All mutation goes
// through its methods, which are safe for concurrent use.
type Session struct {
	id     string
	ctrl   *Controller
	gateFn GateFunc

	mu      sync.Mutex
	current steps.View
	ended   bool
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	id       string
	notifier Notifier
	gateFn   GateFunc
	start    steps.View
}

// WithID fixes the session id instead of generating one.
func WithID(id string) SessionOption {
	return func(c *sessionConfig) { c.id = id }
}

// WithSessionNotifier sets the receiver of the session's view changes.
func WithSessionNotifier(n Notifier) SessionOption {
	return func(c *sessionConfig) { c.notifier = n }
}

// WithGates overrides the per-view gates (default gate.ForView).
func WithGates(fn GateFunc) SessionOption {
	return func(c *sessionConfig) {
		if fn != nil {
			c.gateFn = fn
		}
	}
}

// WithSignableExtensions uses gate.ForView with the given extensions.
func WithSignableExtensions(exts ...string) SessionOption {
	return WithGates(func(v steps.View) gate.Gate {
		return gate.ForView(v, exts...)
	})
}

// StartAt starts the session on view instead of the table's first step.
func StartAt(view steps.View) SessionOption {
	return func(c *sessionConfig) { c.start = view }
}

// NewSession starts a wizard run over table. The session begins at the
// first step of the table unless StartAt says otherwise.
func NewSession(table *steps.Table, opts ...SessionOption) *Session {
	if table == nil {
		table = steps.DefaultTable()
	}
	cfg := sessionConfig{
		id:     uuid.NewString(),
		gateFn: func(v steps.View) gate.Gate { return gate.ForView(v) },
		start:  table.First().ID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logging.Debug("Session started", zap.String("session", cfg.id), zap.String("view", viewName(cfg.start)))
	return &Session{
		id:      cfg.id,
		ctrl:    NewController(table, WithSessionID(cfg.id), WithNotifier(cfg.notifier)),
		gateFn:  cfg.gateFn,
		current: cfg.start,
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Controller returns the controller the session navigates with.
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// Current returns the view the session is on.
func (s *Session) Current() steps.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Ended reports whether End has been called.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// InWizard reports whether the current view is a row of the step table.
func (s *Session) InWizard() bool {
	return s.ctrl.Table().Contains(s.Current())
}

// Next moves forward if the gate for the current view allows it. A blocked
// decision leaves the session where it is and is returned with a nil error.
func (s *Session) Next(draft *document.Draft) (steps.View, gate.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return s.current, gate.Decision{}, ErrSessionEnded
	}

	decision := s.gateFn(s.current).CanAdvance(draft)
	logging.LogGateDecision(s.id, viewName(s.current), decision.Allowed, decision.Reasons())
	if !decision.Allowed {
		return s.current, decision, nil
	}

	next, err := s.ctrl.GoNext(s.current)
	if err != nil {
		return s.current, decision, err
	}
	s.current = next
	return next, decision, nil
}

// Check evaluates the current view's gate without moving.
func (s *Session) Check(draft *document.Draft) gate.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateFn(s.current).CanAdvance(draft)
}

// Back moves to the previous view. Going back is never gated.
func (s *Session) Back() (steps.View, error) {
	return s.move(func(cur steps.View) (steps.View, error) {
		return s.ctrl.GoBack(cur)
	})
}

// Jump moves directly to a step of the table.
func (s *Session) Jump(target steps.View) (steps.View, error) {
	return s.move(func(cur steps.View) (steps.View, error) {
		return s.ctrl.jump(cur, target)
	})
}

// OpenOverlay shows an overlay view on top of the wizard.
func (s *Session) OpenOverlay(view steps.View) (steps.View, error) {
	if !IsOverlay(view) {
		return steps.ViewUnknown, fmt.Errorf("open %s: %w", view, ErrNotOverlay)
	}
	return s.move(func(cur steps.View) (steps.View, error) {
		s.ctrl.emit(ActionMenu, cur, view)
		return view, nil
	})
}

// CloseOverlay leaves the current view for its fixed parent (see
// CloseOverlay). Views without a parent stay put and emit nothing.
func (s *Session) CloseOverlay() (steps.View, error) {
	return s.move(func(cur steps.View) (steps.View, error) {
		target := CloseOverlay(cur)
		if target != cur {
			s.ctrl.emit(ActionClose, cur, target)
		}
		return target, nil
	})
}

// FixIssue jumps to the view where issue can be resolved.
func (s *Session) FixIssue(issue gate.Issue) (steps.View, error) {
	return s.Jump(issue.View)
}

// End finishes the session. Further navigation fails with ErrSessionEnded.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	logging.Debug("Session ended", zap.String("session", s.id), zap.String("view", viewName(s.current)))
}

func (s *Session) move(step func(cur steps.View) (steps.View, error)) (steps.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return s.current, ErrSessionEnded
	}
	next, err := step(s.current)
	if err != nil {
		return s.current, err
	}
	s.current = next
	return next, nil
}
