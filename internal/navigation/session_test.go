package navigation

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/steps"
)

func readyDraft() *document.Draft {
	d := document.NewDraft("contract")
	d.Files = []document.File{{Name: "contract.pdf"}}
	d.AddRecipient(document.Recipient{Name: "Ada", Email: "ada@example.com"})
	return d
}

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession(nil)

	if _, err := uuid.Parse(s.ID()); err != nil {
		t.Errorf("session id %q is not a uuid: %v", s.ID(), err)
	}
	if s.Current() != steps.ViewRecipient {
		t.Errorf("Current() = %v, want recipient", s.Current())
	}
	if !s.InWizard() {
		t.Error("new session should be inside the wizard")
	}
	if s.Controller().SessionID() != s.ID() {
		t.Error("controller should stamp the session id")
	}
}

func TestSession_WalkThrough(t *testing.T) {
	rec := &Recorder{}
	s := NewSession(steps.DefaultTable(), WithID("walk"), WithSessionNotifier(rec))
	d := readyDraft()

	want := []steps.View{steps.ViewSelectFile, steps.ViewSendDocument, steps.ViewDocumentValidation, steps.ViewDocumentValidation}
	for i, w := range want {
		got, decision, err := s.Next(d)
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("Next() #%d blocked: %v", i, decision.Reasons())
		}
		if got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}

	if len(rec.Changes) != len(want) {
		t.Errorf("notifications = %d, want %d", len(rec.Changes), len(want))
	}
	for _, ch := range rec.Changes {
		if ch.Session != "walk" || ch.Action != ActionNext {
			t.Errorf("unexpected change %+v", ch)
		}
	}
}

func TestSession_NextBlockedByGate(t *testing.T) {
	rec := &Recorder{}
	s := NewSession(steps.DefaultTable(), StartAt(steps.ViewSelectFile), WithSessionNotifier(rec))

	d := document.NewDraft("empty")
	got, decision, err := s.Next(d)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if decision.Allowed {
		t.Fatal("Next() should be blocked without files")
	}
	if got != steps.ViewSelectFile || s.Current() != steps.ViewSelectFile {
		t.Errorf("blocked Next moved to %v", got)
	}
	if len(rec.Changes) != 0 {
		t.Error("blocked Next must not notify")
	}
	if reasons := decision.Reasons(); len(reasons) != 1 || reasons[0] != "no signable files" {
		t.Errorf("Reasons() = %v", reasons)
	}

	d.Files = []document.File{{Name: "a.pdf"}}
	if got, _, _ := s.Next(d); got != steps.ViewSendDocument {
		t.Errorf("Next() after fixing = %v, want sendDocument", got)
	}
}

func TestSession_FixIssue(t *testing.T) {
	s := NewSession(steps.DefaultTable(), StartAt(steps.ViewSendDocument))

	d := document.NewDraft("no recipients")
	d.Files = []document.File{{Name: "a.pdf"}}

	_, decision, err := s.Next(d)
	if err != nil || decision.Allowed {
		t.Fatalf("Next() = %+v, %v; want blocked", decision, err)
	}

	got, err := s.FixIssue(decision.Issues[0])
	if err != nil {
		t.Fatalf("FixIssue() error = %v", err)
	}
	if got != steps.ViewRecipient {
		t.Errorf("FixIssue() = %v, want recipient", got)
	}
}

func TestSession_CustomGates(t *testing.T) {
	s := NewSession(steps.DefaultTable(), WithGates(func(steps.View) gate.Gate {
		return gate.Func(func(*document.Draft) gate.Decision {
			return gate.Block(gate.Issue{Message: "always"})
		})
	}))

	if _, d, _ := s.Next(readyDraft()); d.Allowed {
		t.Error("custom gate should block")
	}
	if d := s.Check(nil); d.Allowed {
		t.Error("Check() should use the custom gate")
	}
}

func TestSession_SignableExtensions(t *testing.T) {
	s := NewSession(steps.DefaultTable(), StartAt(steps.ViewSelectFile), WithSignableExtensions("odt"))

	d := document.NewDraft("x")
	d.Files = []document.File{{Name: "letter.odt"}}
	if _, decision, _ := s.Next(d); !decision.Allowed {
		t.Errorf("odt should pass with custom extensions: %v", decision.Reasons())
	}
}

func TestSession_BackAndJump(t *testing.T) {
	s := NewSession(steps.DefaultTable())

	if got, err := s.Jump(steps.ViewSendDocument); err != nil || got != steps.ViewSendDocument {
		t.Fatalf("Jump() = %v, %v", got, err)
	}
	if got, err := s.Back(); err != nil || got != steps.ViewSelectFile {
		t.Fatalf("Back() = %v, %v", got, err)
	}

	_, err := s.Jump(steps.ViewHelp)
	if !steps.IsUnknownStep(err) {
		t.Errorf("Jump(help) error = %v, want unknown step", err)
	}
	if s.Current() != steps.ViewSelectFile {
		t.Errorf("failed Jump moved the session to %v", s.Current())
	}

	s.Back()
	if got, _ := s.Back(); got != steps.ViewHome {
		t.Errorf("Back() from first step = %v, want home", got)
	}
	if s.InWizard() {
		t.Error("home is outside the wizard")
	}
}

func TestSession_Overlays(t *testing.T) {
	rec := &Recorder{}
	s := NewSession(steps.DefaultTable(), StartAt(steps.ViewSendDocument), WithSessionNotifier(rec))

	got, err := s.OpenOverlay(steps.ViewVideoLibrary)
	if err != nil || got != steps.ViewVideoLibrary {
		t.Fatalf("OpenOverlay() = %v, %v", got, err)
	}
	got, err = s.CloseOverlay()
	if err != nil || got != steps.ViewSendDocument {
		t.Fatalf("CloseOverlay() = %v, %v", got, err)
	}

	if _, err := s.OpenOverlay(steps.ViewSelectFile); !errors.Is(err, ErrNotOverlay) {
		t.Errorf("OpenOverlay(selectFile) error = %v, want ErrNotOverlay", err)
	}

	// Closing a plain step stays put and is silent.
	before := len(rec.Changes)
	if got, _ := s.CloseOverlay(); got != steps.ViewSendDocument {
		t.Errorf("CloseOverlay() on a step = %v", got)
	}
	if len(rec.Changes) != before {
		t.Error("no-op close should not notify")
	}

	actions := []Action{rec.Changes[0].Action, rec.Changes[1].Action}
	if actions[0] != ActionMenu || actions[1] != ActionClose {
		t.Errorf("actions = %v, want [menu close]", actions)
	}
}

func TestSession_End(t *testing.T) {
	s := NewSession(steps.DefaultTable())
	s.End()
	s.End()

	if !s.Ended() {
		t.Fatal("Ended() = false after End()")
	}
	if _, err := s.Back(); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Back() after End error = %v", err)
	}
	if _, _, err := s.Next(readyDraft()); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Next() after End error = %v", err)
	}
	if s.Current() != steps.ViewRecipient {
		t.Errorf("Current() changed after End: %v", s.Current())
	}
}

func TestSession_ConcurrentUse(t *testing.T) {
	s := NewSession(steps.DefaultTable())
	d := readyDraft()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Next(d)
			} else {
				s.Jump(steps.ViewRecipient)
			}
			_ = s.Current()
		}(i)
	}
	wg.Wait()

	if !s.Controller().Table().Contains(s.Current()) {
		t.Errorf("session ended on %v, which is not a step", s.Current())
	}
}
