package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Role is the part a recipient plays in the document flow
type Role string

const (
	RoleSigner   Role = "signer"
	RoleApprover Role = "approver"
	RoleCC       Role = "cc"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSigner, RoleApprover, RoleCC:
		return true
	}
	return false
}

// File is an attachment offered by the host document system
type File struct {
	Name string `yaml:"name" json:"name"`
	Size int64  `yaml:"size,omitempty" json:"size,omitempty"`
}

// Extension returns the lower-case extension without the leading dot
// (e.g. "report.PDF" → "pdf"). Files without an extension return "".
func (f File) Extension() string {
	ext := filepath.Ext(f.Name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Template is a document template stored in the e-signature service.
// UnassignedRoles is the number of template roles that still need a person.
type Template struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	UnassignedRoles int    `yaml:"unassigned_roles,omitempty" json:"unassigned_roles,omitempty"`
}

// Recipient is a person the document is sent to
type Recipient struct {
	Name   string `yaml:"name" json:"name"`
	Email  string `yaml:"email,omitempty" json:"email,omitempty"`
	Mobile string `yaml:"mobile,omitempty" json:"mobile,omitempty"`
	Role   Role   `yaml:"role,omitempty" json:"role,omitempty"`
}

// HasEmail reports whether the recipient can be reached by email
func (r Recipient) HasEmail() bool {
	return strings.TrimSpace(r.Email) != ""
}

// HasMobile reports whether the recipient can be reached by SMS
func (r Recipient) HasMobile() bool {
	return strings.TrimSpace(r.Mobile) != ""
}

// String returns "Name <email>" or "Name (mobile)"
func (r Recipient) String() string {
	switch {
	case r.HasEmail():
		return fmt.Sprintf("%s <%s>", r.Name, r.Email)
	case r.HasMobile():
		return fmt.Sprintf("%s (%s)", r.Name, r.Mobile)
	default:
		return r.Name
	}
}

// Draft is everything the wizard has collected about the document being sent.
// It is the domain state that validation gates inspect.
type Draft struct {
	Name         string      `yaml:"name" json:"name"`
	Files        []File      `yaml:"files,omitempty" json:"files,omitempty"`
	Selected     []string    `yaml:"selected,omitempty" json:"selected,omitempty"`
	Template     *Template   `yaml:"template,omitempty" json:"template,omitempty"`
	Recipients   []Recipient `yaml:"recipients,omitempty" json:"recipients,omitempty"`
	IsSigning    bool        `yaml:"is_signing" json:"is_signing"`
	IsSMSSending bool        `yaml:"is_sms_sending" json:"is_sms_sending"`
}

// NewDraft returns an empty draft that will be sent for signing
func NewDraft(name string) *Draft {
	return &Draft{
		Name:      name,
		IsSigning: true,
	}
}

// SelectedFiles returns the attached files. When Selected is empty every file
// in Files counts as attached.
func (d *Draft) SelectedFiles() []File {
	if len(d.Selected) == 0 {
		out := make([]File, len(d.Files))
		copy(out, d.Files)
		return out
	}

	chosen := make(map[string]bool, len(d.Selected))
	for _, name := range d.Selected {
		chosen[name] = true
	}

	var out []File
	for _, f := range d.Files {
		if chosen[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// IsSelected reports whether the named file is explicitly selected
func (d *Draft) IsSelected(name string) bool {
	for _, s := range d.Selected {
		if s == name {
			return true
		}
	}
	return false
}

// ToggleFile adds or removes a file from the explicit selection
func (d *Draft) ToggleFile(name string) {
	for i, s := range d.Selected {
		if s == name {
			d.Selected = append(d.Selected[:i], d.Selected[i+1:]...)
			return
		}
	}
	d.Selected = append(d.Selected, name)
}

// AddRecipient appends a recipient. Missing roles default to signer.
func (d *Draft) AddRecipient(r Recipient) {
	if r.Role == "" {
		r.Role = RoleSigner
	}
	d.Recipients = append(d.Recipients, r)
}

// RemoveRecipient removes the recipient at index i
func (d *Draft) RemoveRecipient(i int) error {
	if i < 0 || i >= len(d.Recipients) {
		return fmt.Errorf("recipient index %d out of range (have %d)", i, len(d.Recipients))
	}
	d.Recipients = append(d.Recipients[:i], d.Recipients[i+1:]...)
	return nil
}

// HasDocument reports whether a file is attached or a template is chosen
func (d *Draft) HasDocument() bool {
	return len(d.SelectedFiles()) > 0 || d.Template != nil
}

// Signers returns recipients with the signer role
func (d *Draft) Signers() []Recipient {
	var out []Recipient
	for _, r := range d.Recipients {
		if r.Role == RoleSigner {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the draft
func (d *Draft) Clone() *Draft {
	c := *d
	c.Files = append([]File(nil), d.Files...)
	c.Selected = append([]string(nil), d.Selected...)
	c.Recipients = append([]Recipient(nil), d.Recipients...)
	if d.Template != nil {
		tmpl := *d.Template
		c.Template = &tmpl
	}
	return &c
}
