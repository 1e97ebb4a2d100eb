package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/signflow/internal/urls"
)

// ErrUnknownStep is matched (via errors.Is) by every UnknownStepError.
var ErrUnknownStep = errors.New("unknown step")

// ErrUnknownView is wrapped by every ParseView failure.
var ErrUnknownView = errors.New("unknown view")

// UnknownStepError is returned when a view is not a row of the step table.
// It always indicates a configuration bug in the table or in the caller and
// must never be retried.
type UnknownStepError struct {
	View View   // View that was looked up
	Op   string // Operation that failed (next, back, goto, lookup)
}

// Error implements the error interface
func (e *UnknownStepError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s is not in the step table", e.Op, e.View)
	}
	return fmt.Sprintf("%s is not in the step table", e.View)
}

// Is lets errors.Is(err, ErrUnknownStep) match
func (e *UnknownStepError) Is(target error) bool {
	return target == ErrUnknownStep
}

// ErrorKind classifies step table construction failures
type ErrorKind int

const (
	// ErrKindEmpty means the table has no rows
	ErrKindEmpty ErrorKind = iota
	// ErrKindInvalidView means a row or reference uses an undeclared view
	ErrKindInvalidView
	// ErrKindDuplicate means two rows share an ID
	ErrKindDuplicate
	// ErrKindDanglingReference means Previous/Next points outside the table and its boundaries
	ErrKindDanglingReference
	// ErrKindCycle means walking Next revisits a row (other than a terminal self-loop)
	ErrKindCycle
	// ErrKindDisconnected means some rows are unreachable from the first row
	ErrKindDisconnected
	// ErrKindParse means a table file could not be decoded
	ErrKindParse
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrKindEmpty:
		return "Empty Table"
	case ErrKindInvalidView:
		return "Invalid View"
	case ErrKindDuplicate:
		return "Duplicate Step"
	case ErrKindDanglingReference:
		return "Dangling Reference"
	case ErrKindCycle:
		return "Cycle"
	case ErrKindDisconnected:
		return "Disconnected Step"
	case ErrKindParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// TableError describes why a step table was rejected
type TableError struct {
	Kind    ErrorKind
	View    View   // Offending row (if any)
	Message string // Human-readable detail
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *TableError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.View != ViewUnknown {
		b.WriteString(" at ")
		b.WriteString(e.View.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *TableError) Unwrap() error {
	return e.Err
}

func newTableError(kind ErrorKind, view View, format string, args ...interface{}) *TableError {
	return &TableError{
		Kind:    kind,
		View:    view,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsUnknownStep checks if an error is (or wraps) an UnknownStepError
func IsUnknownStep(err error) bool {
	return errors.Is(err, ErrUnknownStep)
}

// IsTableError checks if an error is (or wraps) a TableError
func IsTableError(err error) bool {
	var tableErr *TableError
	return errors.As(err, &tableErr)
}

// GetTroubleshootingHint returns advice for fixing a step table problem
func GetTroubleshootingHint(err error) string {
	var unknown *UnknownStepError
	if errors.As(err, &unknown) {
		return strings.Join([]string{
			fmt.Sprintf("The view %q has no row in the step table.", unknown.View),
			"Troubleshooting:",
			"  • Check the step table file for a missing 'view:' entry",
			"  • Run 'signflow steps' to print the table in use",
			"  • Format reference: " + urls.StepTableFormat,
		}, "\n")
	}

	var tableErr *TableError
	if !errors.As(err, &tableErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch tableErr.Kind {
	case ErrKindEmpty:
		return "The step table has no steps. Add at least one entry under 'steps:'."
	case ErrKindInvalidView, ErrKindParse:
		return fmt.Sprintf("The step table could not be read. Valid views are: %s", strings.Join(viewNameList(), ", "))
	case ErrKindDuplicate:
		return "Each view may appear only once in the step table."
	case ErrKindDanglingReference:
		return strings.Join([]string{
			"A step points to a view that is not in the table.",
			"Troubleshooting:",
			"  • Add a row for the referenced view",
			"  • Or declare it under 'boundaries:' if it lives outside the wizard",
			"  • Format reference: " + urls.StepTableFormat,
		}, "\n")
	case ErrKindCycle, ErrKindDisconnected:
		return "Steps must form a single chain from the first row. Only the last step may point to itself."
	default:
		return "The step table is invalid. Check the error message for details."
	}
}

func viewNameList() []string {
	names := make([]string, 0, len(viewNames))
	for _, v := range AllViews() {
		names = append(names, v.String())
	}
	return names
}
