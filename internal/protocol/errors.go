package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/signflow/internal/steps"
)

// DecodeErrorKind categorizes rejected hub messages
type DecodeErrorKind int

const (
	// ErrMalformed indicates the bytes are not a JSON envelope
	ErrMalformed DecodeErrorKind = iota

	// ErrUnknownType indicates a type the hub does not speak
	ErrUnknownType

	// ErrInvalidView indicates a view name outside the known set
	ErrInvalidView

	// ErrInvalidAction indicates an unknown navigation action
	ErrInvalidAction

	// ErrMissingField indicates a required field is empty
	ErrMissingField
)

// String returns the kind name
func (k DecodeErrorKind) String() string {
	switch k {
	case ErrMalformed:
		return "Malformed"
	case ErrUnknownType:
		return "UnknownType"
	case ErrInvalidView:
		return "InvalidView"
	case ErrInvalidAction:
		return "InvalidAction"
	case ErrMissingField:
		return "MissingField"
	default:
		return "Unknown"
	}
}

// DecodeError describes why a hub message was rejected
type DecodeError struct {
	Kind    DecodeErrorKind
	Field   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(kind DecodeErrorKind, field, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsDecodeError reports whether err is a *DecodeError
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// DecodeErrorKindOf returns the kind of a *DecodeError in err's chain
func DecodeErrorKindOf(err error) (DecodeErrorKind, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// classifyJSONError turns encoding/json failures into DecodeErrors. View
// names are checked by steps.View.UnmarshalText; json hands its error back
// unchanged, so steps.ErrUnknownView still matches.
func classifyJSONError(err error) *DecodeError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &DecodeError{Kind: ErrMalformed, Message: "invalid JSON", Err: err}
	case errors.As(err, &typeErr):
		return &DecodeError{Kind: ErrMalformed, Field: typeErr.Field, Message: "wrong field type", Err: err}
	case errors.Is(err, steps.ErrUnknownView):
		return &DecodeError{Kind: ErrInvalidView, Message: "unknown view", Err: err}
	case strings.Contains(err.Error(), "unknown field"):
		return &DecodeError{Kind: ErrMalformed, Message: "unexpected field", Err: err}
	default:
		return &DecodeError{Kind: ErrMalformed, Message: "failed to decode message", Err: err}
	}
}
