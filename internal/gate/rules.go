package gate

import (
	"strings"

	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/steps"
)

// Issue codes
const (
	CodeNoSignableFiles      = "no_signable_files"
	CodeTooManySignableFiles = "too_many_signable_files"
	CodeNoDocument           = "no_document"
	CodeNoRecipients         = "no_recipients"
	CodeNoSigner             = "no_signer"
	CodeSMSRequired          = "sms_required"
	CodeMissingContact       = "missing_contact"
	CodeUnassignedRoles      = "unassigned_template_roles"
)

// DefaultSignableExtensions are the file types accepted for e-signature
var DefaultSignableExtensions = []string{"pdf", "doc", "docx"}

// NormalizeExtensions lower-cases extensions and strips leading dots.
// An empty list yields DefaultSignableExtensions.
func NormalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		return append([]string(nil), DefaultSignableExtensions...)
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// IsSignable reports whether the file extension is in exts
// (nil means DefaultSignableExtensions).
func IsSignable(f document.File, exts []string) bool {
	if exts == nil {
		exts = DefaultSignableExtensions
	}
	ext := f.Extension()
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// SignableFiles returns the attached files that qualify for signing
func SignableFiles(d *document.Draft, exts []string) []document.File {
	var out []document.File
	for _, f := range d.SelectedFiles() {
		if IsSignable(f, exts) {
			out = append(out, f)
		}
	}
	return out
}

// ExactlyOneSignableFile requires exactly one attached signable file.
// A draft built from a template with no attachments passes: the template is
// the document. Without a template no files blocks with "no signable files".
func ExactlyOneSignableFile(exts ...string) Rule {
	allowed := NormalizeExtensions(exts)
	return func(d *document.Draft) []Issue {
		if d.Template != nil && len(d.SelectedFiles()) == 0 {
			return nil
		}
		switch n := len(SignableFiles(d, allowed)); {
		case n == 0:
			return []Issue{{
				Code:    CodeNoSignableFiles,
				Header:  "No signable file",
				Message: "no signable files",
				View:    steps.ViewSelectFile,
			}}
		case n > 1:
			return []Issue{{
				Code:    CodeTooManySignableFiles,
				Header:  "Too many signable files",
				Message: "too many signable files",
				View:    steps.ViewSelectFile,
			}}
		}
		return nil
	}
}

// HasDocument requires an attached file or a template
func HasDocument(d *document.Draft) []Issue {
	if d.HasDocument() {
		return nil
	}
	return []Issue{{
		Code:    CodeNoDocument,
		Header:  "No document",
		Message: "You are missing a document.",
		View:    steps.ViewSelectFile,
	}}
}

// HasRecipients requires at least one recipient
func HasRecipients(d *document.Draft) []Issue {
	if len(d.Recipients) > 0 {
		return nil
	}
	return []Issue{{
		Code:    CodeNoRecipients,
		Header:  "No recipients",
		Message: "You need to add at least one recipient.",
		View:    steps.ViewRecipient,
	}}
}

// HasSigner requires a signer when the document is sent for signing
func HasSigner(d *document.Draft) []Issue {
	if len(d.Recipients) == 0 || !d.IsSigning || len(d.Signers()) > 0 {
		return nil
	}
	return []Issue{{
		Code:    CodeNoSigner,
		Header:  "No signer",
		Message: "You need to add at least one signer when you are sending a document for signing.",
		View:    steps.ViewRecipient,
	}}
}

// SMSEnabledForPhoneOnly requires SMS sending when a recipient has a mobile
// number but no email
func SMSEnabledForPhoneOnly(d *document.Draft) []Issue {
	if d.IsSMSSending {
		return nil
	}
	for _, r := range d.Recipients {
		if !r.HasEmail() && r.HasMobile() {
			return []Issue{{
				Code:    CodeSMSRequired,
				Header:  "Need to activate SMS sending",
				Message: "You need to activate SMS sending due to recipients without email.",
				View:    steps.ViewSendDocument,
			}}
		}
	}
	return nil
}

// RecipientsReachable requires every recipient to have an email or a mobile number
func RecipientsReachable(d *document.Draft) []Issue {
	for _, r := range d.Recipients {
		if !r.HasEmail() && !r.HasMobile() {
			return []Issue{{
				Code:    CodeMissingContact,
				Header:  "Recipient missing contact information",
				Message: "One or many recipients are missing contact information.",
				View:    steps.ViewRecipient,
			}}
		}
	}
	return nil
}

// TemplateRolesAssigned requires every template role to have a person
func TemplateRolesAssigned(d *document.Draft) []Issue {
	if d.Template == nil || d.Template.UnassignedRoles == 0 {
		return nil
	}
	return []Issue{{
		Code:    CodeUnassignedRoles,
		Header:  "Template has unassigned roles",
		Message: "The process must be completed in the e-signature service before sending.",
		View:    steps.ViewSelectFile,
	}}
}

// SignableFileGate is the gate guarding "send document": exactly one signable
// file must be attached.
func SignableFileGate(exts ...string) *RuleGate {
	return New(ExactlyOneSignableFile(exts...))
}

// DocumentGate runs every document rule checked before the final send
func DocumentGate() *RuleGate {
	return New(
		HasDocument,
		HasRecipients,
		HasSigner,
		SMSEnabledForPhoneOnly,
		RecipientsReachable,
		TemplateRolesAssigned,
	)
}

// ForView returns the gate guarding forward navigation out of view for the
// default workflow. Views without checks get AllowAll.
func ForView(view steps.View, exts ...string) Gate {
	switch view {
	case steps.ViewSelectFile:
		return SignableFileGate(exts...)
	case steps.ViewSendDocument:
		return DocumentGate()
	default:
		return AllowAll{}
	}
}
