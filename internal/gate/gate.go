package gate

import (
	"fmt"
	"strings"

	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/steps"
)

// Issue is one reason a gate blocks forward navigation.
// View, when set, is the step where the user can fix the problem.
type Issue struct {
	Code    string     `json:"code"`
	Header  string     `json:"header"`
	Message string     `json:"message"`
	View    steps.View `json:"view,omitempty"`
}

// Decision is the outcome of CanAdvance
type Decision struct {
	Allowed bool    `json:"allowed"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Reasons returns the issue messages in order
func (d Decision) Reasons() []string {
	if len(d.Issues) == 0 {
		return nil
	}
	reasons := make([]string, len(d.Issues))
	for i, issue := range d.Issues {
		reasons[i] = issue.Message
	}
	return reasons
}

// Allow is the decision of a gate with no objections
func Allow() Decision {
	return Decision{Allowed: true}
}

// Block builds a blocking decision from issues
func Block(issues ...Issue) Decision {
	return Decision{Allowed: false, Issues: issues}
}

// Gate decides whether the wizard may move forward. Implementations must be
// pure: they read the draft and never modify it.
type Gate interface {
	CanAdvance(d *document.Draft) Decision
}

// Rule inspects a draft and returns the issues it finds (nil when satisfied)
type Rule func(d *document.Draft) []Issue

// RuleGate is a Gate made of rules. It blocks when any rule reports an issue
// and collects the issues of every rule.
type RuleGate struct {
	rules []Rule
}

// New creates a gate from rules, evaluated in order
func New(rules ...Rule) *RuleGate {
	return &RuleGate{rules: rules}
}

// CanAdvance implements Gate
func (g *RuleGate) CanAdvance(d *document.Draft) Decision {
	if d == nil {
		d = &document.Draft{}
	}

	var issues []Issue
	for _, rule := range g.rules {
		issues = append(issues, rule(d)...)
	}

	if len(issues) > 0 {
		return Block(issues...)
	}
	return Allow()
}

// Len returns the number of rules
func (g *RuleGate) Len() int {
	return len(g.rules)
}

// AllowAll is a gate that never blocks
type AllowAll struct{}

// CanAdvance implements Gate
func (AllowAll) CanAdvance(*document.Draft) Decision {
	return Allow()
}

// Func adapts an ordinary function to Gate
type Func func(d *document.Draft) Decision

// CanAdvance implements Gate
func (f Func) CanAdvance(d *document.Draft) Decision {
	return f(d)
}

// FormatReasons formats a decision's issues into a user-friendly message.
func FormatReasons(d Decision) string {
	if d.Allowed || len(d.Issues) == 0 {
		return "Ready to continue"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Cannot continue, %d issue(s) found:\n", len(d.Issues)))

	for i, issue := range d.Issues {
		sb.WriteString(fmt.Sprintf("  %d. %s", i+1, issue.Message))
		if issue.View != steps.ViewUnknown {
			sb.WriteString(fmt.Sprintf(" (fix in %s)", issue.View))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
