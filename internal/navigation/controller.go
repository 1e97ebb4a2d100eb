package navigation

import (
	"time"

	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/steps"
)

// Controller answers "where does Next/Back/Jump go from here" using an
// immutable step table. It keeps no record of the current view; callers pass
// it in on every call.
type Controller struct {
	table    *steps.Table
	notifier Notifier
	session  string
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the receiver of view changes.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithSessionID stamps every ViewChange with id.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.session = id
	}
}

// WithClock overrides time.Now for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a controller over table. A nil table means
// steps.DefaultTable().
func NewController(table *steps.Table, opts ...Option) *Controller {
	if table == nil {
		table = steps.DefaultTable()
	}
	c := &Controller{
		table:    table,
		notifier: nopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the step table the controller navigates.
func (c *Controller) Table() *steps.Table {
	return c.table
}

// SessionID returns the id stamped on notifications (empty when unset).
func (c *Controller) SessionID() string {
	return c.session
}

// GoNext returns the step after current.
func (c *Controller) GoNext(current steps.View) (steps.View, error) {
	step, err := c.lookup(current, "go next")
	if err != nil {
		return steps.ViewUnknown, err
	}
	c.emit(ActionNext, current, step.Next)
	return step.Next, nil
}

// GoBack returns the step before current.
func (c *Controller) GoBack(current steps.View) (steps.View, error) {
	step, err := c.lookup(current, "go back")
	if err != nil {
		return steps.ViewUnknown, err
	}
	c.emit(ActionBack, current, step.Previous)
	return step.Previous, nil
}

// GoTo returns target when it is a row of the table. The emitted change has
// no origin view.
func (c *Controller) GoTo(target steps.View) (steps.View, error) {
	return c.jump(steps.ViewUnknown, target)
}

func (c *Controller) jump(from, target steps.View) (steps.View, error) {
	if _, err := c.lookup(target, "go to"); err != nil {
		return steps.ViewUnknown, err
	}
	c.emit(ActionJump, from, target)
	return target, nil
}

func (c *Controller) lookup(view steps.View, op string) (steps.Step, error) {
	step, err := c.table.Lookup(view)
	if err != nil {
		return steps.Step{}, &steps.UnknownStepError{View: view, Op: op}
	}
	return step, nil
}

func (c *Controller) emit(action Action, from, to steps.View) {
	change := ViewChange{
		Session: c.session,
		Action:  action,
		From:    from,
		To:      to,
		Label:   c.label(to),
		At:      c.now().UTC(),
	}
	logging.LogViewChange(c.session, string(action), viewName(from), viewName(to))
	c.notifier.Notify(change)
}

func (c *Controller) label(v steps.View) string {
	if step, err := c.table.Lookup(v); err == nil {
		return step.Label
	}
	return ""
}

func viewName(v steps.View) string {
	if !v.Valid() {
		return ""
	}
	return v.String()
}
