package steps

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

// View identifies a single panel of the wizard. The set is closed: values are
// only produced by the constants below or by ParseView.
type View int

const (
	// ViewUnknown is the zero value and never a valid step.
	ViewUnknown View = iota
	ViewHome
	ViewRecipient
	ViewSelectFile
	ViewSendDocument
	ViewDocumentValidation
	ViewHelp
	ViewSettings
	ViewLogout
	ViewVideoLibrary
	ViewInvite
	ViewDocumentDetail
	// ViewExit is the sentinel that ends the wizard.
	ViewExit
)

var viewNames = map[View]string{
	ViewHome:               "home",
	ViewRecipient:          "recipient",
	ViewSelectFile:         "selectFile",
	ViewSendDocument:       "sendDocument",
	ViewDocumentValidation: "documentValidation",
	ViewHelp:               "help",
	ViewSettings:           "settings",
	ViewLogout:             "logout",
	ViewVideoLibrary:       "videoLibrary",
	ViewInvite:             "invite",
	ViewDocumentDetail:     "documentDetail",
	ViewExit:               "exit",
}

var viewsByName = func() map[string]View {
	m := make(map[string]View, len(viewNames))
	for v, name := range viewNames {
		m[name] = v
	}
	return m
}()

// AllViews returns every valid view in declaration order.
func AllViews() []View {
	views := make([]View, 0, len(viewNames))
	for v := ViewHome; v <= ViewExit; v++ {
		views = append(views, v)
	}
	return views
}

// ParseView converts a view name (as used in step table files and on the wire)
// into a View. Unknown names are rejected here so that lookups never see them.
func ParseView(name string) (View, error) {
	if v, ok := viewsByName[name]; ok {
		return v, nil
	}
	if guess := SuggestView(name); guess != ViewUnknown {
		return ViewUnknown, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownView, name, guess)
	}
	return ViewUnknown, fmt.Errorf("%w %q", ErrUnknownView, name)
}

// maxSuggestDistance bounds how far a typo may be from a view name
const maxSuggestDistance = 3

// SuggestView returns the view whose name is closest to name, ignoring case,
// or ViewUnknown when nothing is within a few edits.
func SuggestView(name string) View {
	if name == "" {
		return ViewUnknown
	}
	best, bestDist := ViewUnknown, maxSuggestDistance+1
	lower := strings.ToLower(name)
	for _, v := range AllViews() {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(viewNames[v]))
		if d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// String returns the canonical view name
func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// Valid reports whether v is one of the declared views
func (v View) Valid() bool {
	_, ok := viewNames[v]
	return ok
}

// MarshalText implements encoding.TextMarshaler (used by encoding/json).
func (v View) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid view %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *View) UnmarshalText(text []byte) error {
	parsed, err := ParseView(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v View) MarshalYAML() (interface{}, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid view %d", int(v))
	}
	return v.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *View) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return fmt.Errorf("line %d: view must be a string: %w", node.Line, err)
	}
	parsed, err := ParseView(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*v = parsed
	return nil
}
