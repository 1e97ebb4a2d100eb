package hub

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/protocol"
	"github.com/muurk/signflow/internal/steps"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHub(t *testing.T) (*Server, string) {
	t.Helper()

	s, err := New(&Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		ts.Close()
	})

	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + wsPath
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func receive(t *testing.T, events <-chan protocol.Envelope) protocol.Envelope {
	t.Helper()
	select {
	case env, ok := <-events:
		if !ok {
			t.Fatal("subscription closed")
		}
		return env
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a view change")
	}
	return protocol.Envelope{}
}

func TestHub_RelaysViewChanges(t *testing.T) {
	s, url := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Subscribe(ctx, url)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	pub, err := NewPublisher(ctx, url, "sess-1")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	waitFor(t, "two clients", func() bool { return s.ClientCount() == 2 })

	change := navigation.ViewChange{
		Session: "sess-1",
		Action:  navigation.ActionNext,
		From:    steps.ViewRecipient,
		To:      steps.ViewSelectFile,
		Label:   "Select document",
		At:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	pub.Notify(change)

	got, err := receive(t, events).ViewChange()
	if err != nil {
		t.Fatalf("ViewChange() error = %v", err)
	}
	if diff := cmp.Diff(change, got); diff != "" {
		t.Errorf("relayed change mismatch (-want +got):\n%s", diff)
	}

	if _, ok := s.Sessions()["sess-1"]; !ok {
		t.Error("hub should remember the publishing session")
	}
	if pub.Dropped() != 0 {
		t.Errorf("Dropped() = %d", pub.Dropped())
	}
}

func TestHub_SessionDrivesSubscribers(t *testing.T) {
	s, url := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Subscribe(ctx, url)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	id := uuid.NewString()
	pub, err := NewPublisher(ctx, url, id)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	session := navigation.NewSession(steps.DefaultTable(),
		navigation.WithID(id),
		navigation.WithSessionNotifier(pub),
	)

	waitFor(t, "two clients", func() bool { return s.ClientCount() == 2 })

	if _, err := session.Jump(steps.ViewSendDocument); err != nil {
		t.Fatalf("Jump() error = %v", err)
	}

	env := receive(t, events)
	if env.Session != id || env.To != steps.ViewSendDocument || env.Action != navigation.ActionJump {
		t.Errorf("unexpected envelope %s", env)
	}
}

func TestHub_DropsInvalidMessages(t *testing.T) {
	s, url := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Subscribe(ctx, url)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	raw, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer raw.Close()

	waitFor(t, "two clients", func() bool { return s.ClientCount() == 2 })

	bad := []string{
		`not json`,
		`{"type":"view_changed","session":"s","action":"next","to":"checkout","at":"2026-03-01T12:00:00Z"}`,
		`{"type":"teleport"}`,
	}
	for _, msg := range bad {
		if err := raw.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}
	good := `{"type":"view_changed","session":"s","action":"back","to":"home","at":"2026-03-01T12:00:00Z"}`
	if err := raw.WriteMessage(websocket.TextMessage, []byte(good)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	env := receive(t, events)
	if env.To != steps.ViewHome || env.Action != navigation.ActionBack {
		t.Errorf("first relayed message = %s, want the valid one", env)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	s, url := newTestHub(t)

	pub, err := NewPublisher(context.Background(), url, "sess-2")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	waitFor(t, "one client", func() bool { return s.ClientCount() == 1 })

	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	pub.Notify(navigation.ViewChange{Session: "sess-2", Action: navigation.ActionNext, To: steps.ViewHome})

	waitFor(t, "client removal", func() bool { return s.ClientCount() == 0 })
}

func TestHub_ShutdownEndsSubscriptions(t *testing.T) {
	s, err := New(&Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + wsPath

	events, err := Subscribe(context.Background(), url)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	waitFor(t, "one client", func() bool { return s.ClientCount() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected the subscription to close")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("subscription still open after shutdown")
	}

	// Late clients are turned away
	if late, err := Subscribe(context.Background(), url); err == nil {
		select {
		case _, ok := <-late:
			if ok {
				t.Error("late subscriber should be disconnected")
			}
		case <-time.After(3 * time.Second):
			t.Fatal("late subscriber still connected")
		}
	}
	if s.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown", s.ClientCount())
	}
}

func TestSubscribe_ContextCancel(t *testing.T) {
	_, url := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := Subscribe(ctx, url)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestSubscribe_BadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Subscribe(ctx, "ws://127.0.0.1:1/ws"); err == nil {
		t.Error("Subscribe() to a closed port should fail")
	}
}

func TestHealth(t *testing.T) {
	s, err := New(&Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, healthPath, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var h Health
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("invalid health JSON: %v", err)
	}
	if h.Status != "ok" || h.Clients != 0 || h.Version == "" {
		t.Errorf("health = %+v", h)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, healthPath, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestServeWS_RejectsPlainHTTP(t *testing.T) {
	s, err := New(&Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, wsPath, nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if s.ClientCount() != 0 {
		t.Error("failed upgrade must not register a client")
	}
}

func TestNew_TLSConfig(t *testing.T) {
	if _, err := New(&Config{CertPath: "cert.pem"}); err == nil {
		t.Error("New() with only a certificate should fail")
	}
	if _, err := New(&Config{CertPath: "missing.pem", KeyPath: "missing.key"}); err == nil {
		t.Error("New() with missing files should fail")
	}
	if _, err := ClientTLSConfig([]byte("junk")); err == nil {
		t.Error("ClientTLSConfig() with junk should fail")
	}
	if _, err := WithCAFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("WithCAFile() with a missing file should fail")
	}
	if info := GetTLSInfo(nil); info["enabled"] != false {
		t.Errorf("GetTLSInfo(nil) = %v", info)
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	s, err := New(&Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Addr() != nil {
		t.Error("Addr() before Listen should be nil")
	}
	if err := s.Serve(); err == nil {
		t.Error("Serve() before Listen should fail")
	}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	served := make(chan error, 1)
	go func() { served <- s.Serve() }()

	url := "ws://" + s.Addr().String() + wsPath
	pub, err := NewPublisher(context.Background(), url, "sess-3")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	waitFor(t, "one client", func() bool { return s.ClientCount() == 1 })
	_ = pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-served; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestHub_TLSWithPinnedCertificate(t *testing.T) {
	s, err := New(&Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewTLSServer(s.Handler())
	defer ts.Close()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw})
	cfg, err := ClientTLSConfig(caPEM)
	if err != nil {
		t.Fatalf("ClientTLSConfig() error = %v", err)
	}
	url := "wss" + strings.TrimPrefix(ts.URL, "https") + wsPath

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := Subscribe(ctx, url); err == nil {
		t.Fatal("Subscribe() without the pinned certificate should fail verification")
	}

	events, err := Subscribe(ctx, url, WithTLSConfig(cfg))
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	pub, err := NewPublisher(ctx, url, "sess-tls", WithTLSConfig(cfg))
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()
	waitFor(t, "two clients", func() bool { return s.ClientCount() == 2 })

	pub.Notify(navigation.ViewChange{Session: "sess-tls", Action: navigation.ActionNext, From: steps.ViewRecipient, To: steps.ViewSelectFile})
	if env := receive(t, events); env.Session != "sess-tls" {
		t.Errorf("unexpected envelope %s", env)
	}
}
