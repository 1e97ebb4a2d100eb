package gate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/steps"
)

func draftWithFiles(names ...string) *document.Draft {
	d := document.NewDraft("test")
	for _, n := range names {
		d.Files = append(d.Files, document.File{Name: n})
	}
	return d
}

func TestSignableFileGate_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		files       []string
		wantAllowed bool
		wantReasons []string
	}{
		{
			name:        "no files",
			files:       nil,
			wantAllowed: false,
			wantReasons: []string{"no signable files"},
		},
		{
			name:        "single pdf",
			files:       []string{"contract.pdf"},
			wantAllowed: true,
		},
		{
			name:        "pdf and docx",
			files:       []string{"contract.pdf", "appendix.docx"},
			wantAllowed: false,
			wantReasons: []string{"too many signable files"},
		},
		{
			name:        "only non-signable files",
			files:       []string{"logo.png", "notes.txt"},
			wantAllowed: false,
			wantReasons: []string{"no signable files"},
		},
		{
			name:        "one signable among others",
			files:       []string{"logo.png", "Offer.DOC"},
			wantAllowed: true,
		},
		{
			name:        "file without extension",
			files:       []string{"pdf"},
			wantAllowed: false,
			wantReasons: []string{"no signable files"},
		},
	}

	g := SignableFileGate()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draftWithFiles(tt.files...)
			got := g.CanAdvance(d)

			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if diff := cmp.Diff(tt.wantReasons, got.Reasons()); diff != "" {
				t.Errorf("Reasons() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSignableFileGate_DoesNotMutate(t *testing.T) {
	d := draftWithFiles("a.pdf", "b.pdf")
	d.Selected = []string{"a.pdf"}
	before := d.Clone()

	SignableFileGate().CanAdvance(d)
	DocumentGate().CanAdvance(d)

	if diff := cmp.Diff(before, d); diff != "" {
		t.Errorf("gate mutated draft (-before +after):\n%s", diff)
	}
}

func TestSignableFileGate_RespectsSelection(t *testing.T) {
	d := draftWithFiles("a.pdf", "b.pdf")
	if SignableFileGate().CanAdvance(d).Allowed {
		t.Error("two attached pdfs should be blocked")
	}

	d.ToggleFile("b.pdf")
	if !SignableFileGate().CanAdvance(d).Allowed {
		t.Error("one selected pdf should be allowed")
	}
}

func TestSignableFileGate_CustomExtensions(t *testing.T) {
	g := SignableFileGate(".ODT", "pdf")

	if !g.CanAdvance(draftWithFiles("letter.odt")).Allowed {
		t.Error("odt should be signable with custom extensions")
	}
	if g.CanAdvance(draftWithFiles("letter.docx")).Allowed {
		t.Error("docx should not be signable with custom extensions")
	}
}

func TestSignableFileGate_TemplateOnly(t *testing.T) {
	d := document.NewDraft("t")
	d.Template = &document.Template{ID: "tpl"}

	if !SignableFileGate().CanAdvance(d).Allowed {
		t.Error("template without attachments should be allowed")
	}
}

func TestSignableFileGate_NilDraft(t *testing.T) {
	got := SignableFileGate().CanAdvance(nil)
	if got.Allowed {
		t.Error("nil draft should be blocked")
	}
}

func TestDocumentGate(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *document.Draft
		wantCodes []string
		wantViews []steps.View
	}{
		{
			name: "empty draft",
			build: func() *document.Draft {
				return document.NewDraft("x")
			},
			wantCodes: []string{CodeNoDocument, CodeNoRecipients},
			wantViews: []steps.View{steps.ViewSelectFile, steps.ViewRecipient},
		},
		{
			name: "ready to send",
			build: func() *document.Draft {
				d := draftWithFiles("a.pdf")
				d.AddRecipient(document.Recipient{Name: "Ada", Email: "ada@example.com"})
				return d
			},
		},
		{
			name: "signing without signer",
			build: func() *document.Draft {
				d := draftWithFiles("a.pdf")
				d.AddRecipient(document.Recipient{Name: "Ada", Email: "ada@example.com", Role: document.RoleCC})
				return d
			},
			wantCodes: []string{CodeNoSigner},
			wantViews: []steps.View{steps.ViewRecipient},
		},
		{
			name: "not signing without signer",
			build: func() *document.Draft {
				d := draftWithFiles("a.pdf")
				d.IsSigning = false
				d.AddRecipient(document.Recipient{Name: "Ada", Email: "ada@example.com", Role: document.RoleCC})
				return d
			},
		},
		{
			name: "phone only recipient without sms",
			build: func() *document.Draft {
				d := draftWithFiles("a.pdf")
				d.AddRecipient(document.Recipient{Name: "Bob", Mobile: "+46700000000"})
				return d
			},
			wantCodes: []string{CodeSMSRequired},
			wantViews: []steps.View{steps.ViewSendDocument},
		},
		{
			name: "phone only recipient with sms",
			build: func() *document.Draft {
				d := draftWithFiles("a.pdf")
				d.IsSMSSending = true
				d.AddRecipient(document.Recipient{Name: "Bob", Mobile: "+46700000000"})
				return d
			},
		},
		{
			name: "recipient without contact",
			build: func() *document.Draft {
				d := draftWithFiles("a.pdf")
				d.AddRecipient(document.Recipient{Name: "Ghost"})
				return d
			},
			wantCodes: []string{CodeMissingContact},
			wantViews: []steps.View{steps.ViewRecipient},
		},
		{
			name: "template with unassigned roles",
			build: func() *document.Draft {
				d := document.NewDraft("x")
				d.Template = &document.Template{ID: "t", UnassignedRoles: 2}
				d.AddRecipient(document.Recipient{Name: "Ada", Email: "ada@example.com"})
				return d
			},
			wantCodes: []string{CodeUnassignedRoles},
			wantViews: []steps.View{steps.ViewSelectFile},
		},
	}

	g := DocumentGate()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.CanAdvance(tt.build())

			var codes []string
			var views []steps.View
			for _, issue := range got.Issues {
				codes = append(codes, issue.Code)
				views = append(views, issue.View)
			}

			if diff := cmp.Diff(tt.wantCodes, codes); diff != "" {
				t.Errorf("issue codes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantViews, views); diff != "" {
				t.Errorf("issue views mismatch (-want +got):\n%s", diff)
			}
			if got.Allowed != (len(tt.wantCodes) == 0) {
				t.Errorf("Allowed = %v with %d issues", got.Allowed, len(got.Issues))
			}
		})
	}
}

func TestForView(t *testing.T) {
	if _, ok := ForView(steps.ViewRecipient).(AllowAll); !ok {
		t.Error("ForView(recipient) should be AllowAll")
	}

	if ForView(steps.ViewSelectFile).CanAdvance(draftWithFiles()).Allowed {
		t.Error("ForView(selectFile) should block without files")
	}

	if ForView(steps.ViewSendDocument).CanAdvance(document.NewDraft("x")).Allowed {
		t.Error("ForView(sendDocument) should block an empty draft")
	}
}

func TestFuncGate(t *testing.T) {
	var seen *document.Draft
	g := Func(func(d *document.Draft) Decision {
		seen = d
		return Block(Issue{Message: "nope"})
	})

	d := document.NewDraft("x")
	got := g.CanAdvance(d)
	if seen != d {
		t.Error("Func gate did not receive the draft")
	}
	if got.Allowed || got.Reasons()[0] != "nope" {
		t.Errorf("Func gate decision = %+v", got)
	}
}

func TestFormatReasons(t *testing.T) {
	if got := FormatReasons(Allow()); got != "Ready to continue" {
		t.Errorf("FormatReasons(Allow()) = %q", got)
	}

	got := FormatReasons(SignableFileGate().CanAdvance(draftWithFiles()))
	if !strings.Contains(got, "1 issue(s)") || !strings.Contains(got, "no signable files") {
		t.Errorf("FormatReasons() = %q", got)
	}
	if !strings.Contains(got, "fix in selectFile") {
		t.Errorf("FormatReasons() should name the fixing view: %q", got)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	if diff := cmp.Diff(DefaultSignableExtensions, NormalizeExtensions(nil)); diff != "" {
		t.Errorf("NormalizeExtensions(nil) mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pdf", "odt"}, NormalizeExtensions([]string{".PDF", " odt ", ""})); diff != "" {
		t.Errorf("NormalizeExtensions() mismatch:\n%s", diff)
	}
}
