package protocol

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/steps"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEncodeDecode_ViewChanged(t *testing.T) {
	change := navigation.ViewChange{
		Session: "sess-1",
		Action:  navigation.ActionNext,
		From:    steps.ViewRecipient,
		To:      steps.ViewSelectFile,
		Label:   "Select document",
		At:      testTime,
	}

	data, err := Encode(NewViewChanged(change))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), `"from":"recipient"`) {
		t.Errorf("views should be encoded by name: %s", data)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	got, err := env.ViewChange()
	if err != nil {
		t.Fatalf("ViewChange() error = %v", err)
	}
	if diff := cmp.Diff(change, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_JumpWithoutOrigin(t *testing.T) {
	env := NewViewChanged(navigation.ViewChange{
		Session: "s",
		Action:  navigation.ActionJump,
		To:      steps.ViewSendDocument,
		At:      testTime,
	})

	data, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.Contains(string(data), `"from"`) {
		t.Errorf("unknown origin should be omitted: %s", data)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.From != steps.ViewUnknown {
		t.Errorf("From = %v, want ViewUnknown", got.From)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantKind DecodeErrorKind
	}{
		{"not json", `hello`, ErrMalformed},
		{"truncated", `{"type":"ping"`, ErrMalformed},
		{"unknown field", `{"type":"ping","at":"2026-03-01T12:00:00Z","extra":1}`, ErrMalformed},
		{"wrong field type", `{"type":"ping","seq":"one"}`, ErrMalformed},
		{"no type", `{"session":"s"}`, ErrMissingField},
		{"unknown type", `{"type":"teleport"}`, ErrUnknownType},
		{"unknown view", `{"type":"view_changed","session":"s","action":"next","to":"checkout","at":"2026-03-01T12:00:00Z"}`, ErrInvalidView},
		{"missing session", `{"type":"view_changed","action":"next","to":"home","at":"2026-03-01T12:00:00Z"}`, ErrMissingField},
		{"missing target", `{"type":"view_changed","session":"s","action":"next","at":"2026-03-01T12:00:00Z"}`, ErrMissingField},
		{"missing timestamp", `{"type":"view_changed","session":"s","action":"next","to":"home"}`, ErrMissingField},
		{"bad action", `{"type":"view_changed","session":"s","action":"fly","to":"home","at":"2026-03-01T12:00:00Z"}`, ErrInvalidAction},
		{"empty hello", `{"type":"hello"}`, ErrMissingField},
		{"too large", `{"type":"ping","label":"` + strings.Repeat("x", MaxMessageSize) + `"}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("Decode() should fail")
			}
			if !IsDecodeError(err) {
				t.Fatalf("error %T is not a *DecodeError", err)
			}
			kind, _ := DecodeErrorKindOf(err)
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v (%v)", kind, tt.wantKind, err)
			}
		})
	}
}

func TestDecode_UnknownViewWrapsSentinel(t *testing.T) {
	_, err := Decode([]byte(`{"type":"view_changed","session":"s","action":"jump","from":"home","to":"selectfile","at":"2026-03-01T12:00:00Z"}`))
	if kind, ok := DecodeErrorKindOf(err); !ok || kind != ErrInvalidView {
		t.Fatalf("kind = %v, want invalid view (%v)", kind, err)
	}
	if !errors.Is(err, steps.ErrUnknownView) {
		t.Errorf("error %v should match steps.ErrUnknownView", err)
	}
	if !strings.Contains(err.Error(), `did you mean "selectFile"`) {
		t.Errorf("error %v should keep the suggestion", err)
	}
}

func TestDecode_HelloAndPing(t *testing.T) {
	for _, env := range []Envelope{NewHello("s-1", ""), NewHello("", "watcher"), NewPing()} {
		data, err := Encode(env)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", env.Type, err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", env.Type, err)
		}
		if got.Type != env.Type || got.Seq != env.Seq {
			t.Errorf("round trip %s = %+v", env.Type, got)
		}
	}
}

func TestEncode_Invalid(t *testing.T) {
	if _, err := Encode(Envelope{Type: TypeViewChanged}); err == nil {
		t.Error("Encode() should validate envelopes")
	}
}

func TestEnvelope_ViewChangeWrongType(t *testing.T) {
	if _, err := NewPing().ViewChange(); err == nil {
		t.Error("ViewChange() on a ping should fail")
	}
}

func TestNextSeq_Increases(t *testing.T) {
	a, b := NextSeq(), NextSeq()
	if b <= a {
		t.Errorf("NextSeq() not increasing: %d then %d", a, b)
	}
}

func TestEnvelope_String(t *testing.T) {
	env := NewViewChanged(navigation.ViewChange{Session: "s", Action: navigation.ActionJump, To: steps.ViewHelp})
	if got := env.String(); !strings.Contains(got, "- -> help") {
		t.Errorf("String() = %q", got)
	}
	if got := NewHello("", "cli").String(); !strings.Contains(got, "client=cli") {
		t.Errorf("String() = %q", got)
	}
}

func TestDecodeError_Error(t *testing.T) {
	err := &DecodeError{Kind: ErrMissingField, Field: "session", Message: "required"}
	if got := err.Error(); got != "MissingField (session): required" {
		t.Errorf("Error() = %q", got)
	}
}
