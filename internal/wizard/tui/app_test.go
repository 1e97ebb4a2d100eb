package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/signflow/internal/config"
	"github.com/muurk/signflow/internal/discovery"
	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/steps"
)

type fakePublisher struct {
	mu      sync.Mutex
	changes []navigation.ViewChange
	closed  bool
}

func (p *fakePublisher) Notify(change navigation.ViewChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.changes)
}

func noScan(context.Context, time.Duration) ([]*discovery.Hub, error) {
	return nil, nil
}

func newTestApp(t *testing.T, opts Options) AppModel {
	t.Helper()
	if opts.Scan == nil {
		opts.Scan = noScan
	}
	if opts.Connect == nil {
		opts.Connect = func(context.Context, string, string) (Publisher, error) {
			return nil, errors.New("no hub in tests")
		}
	}
	m := NewAppModel(opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(AppModel)
}

func pressApp(m AppModel, keys ...string) (AppModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(keyMsg(k))
		m = updated.(AppModel)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestApp_StartsOnHome(t *testing.T) {
	m := newTestApp(t, Options{SessionID: "app-test"})

	if m.CurrentScreen != ScreenHome {
		t.Errorf("CurrentScreen = %v, want home", m.CurrentScreen)
	}
	if m.Session.Current() != steps.ViewHome || m.Session.ID() != "app-test" {
		t.Errorf("session at %v id %q", m.Session.Current(), m.Session.ID())
	}
	if !strings.Contains(m.View(), "Send a document for signing") {
		t.Error("home menu not rendered")
	}
}

func TestApp_StartWizard(t *testing.T) {
	rec := &navigation.Recorder{}
	m := newTestApp(t, Options{Draft: readyDraft(), Notifiers: []navigation.Notifier{rec}})

	m, _ = pressApp(m, "enter")
	if m.CurrentScreen != ScreenWizard {
		t.Fatalf("CurrentScreen = %v, want wizard", m.CurrentScreen)
	}
	if m.Session.Current() != steps.ViewRecipient {
		t.Errorf("Current() = %v, want recipient", m.Session.Current())
	}
	last, ok := rec.Last()
	if !ok || last.Action != navigation.ActionJump || last.From != steps.ViewHome {
		t.Errorf("last change = %+v", last)
	}

	m, _ = pressApp(m, "left")
	if m.CurrentScreen != ScreenHome {
		t.Errorf("back from the first step should show home, got %v", m.CurrentScreen)
	}
}

func TestApp_HelpFromHome(t *testing.T) {
	m := newTestApp(t, Options{})

	m, _ = pressApp(m, "down", "down", "down", "enter")
	if m.CurrentScreen != ScreenWizard || m.Session.Current() != steps.ViewHelp {
		t.Fatalf("screen %v view %v, want help overlay", m.CurrentScreen, m.Session.Current())
	}
	if !strings.Contains(m.View(), "HELP") {
		t.Error("help overlay not rendered")
	}

	m, _ = pressApp(m, "esc")
	if m.CurrentScreen != ScreenHome {
		t.Errorf("closing help should return home, got %v", m.CurrentScreen)
	}
}

func TestApp_SendShowsSuccess(t *testing.T) {
	m := newTestApp(t, Options{Draft: readyDraft()})

	m, _ = pressApp(m, "enter", "enter", "enter", "enter")
	if m.Session.Current() != steps.ViewDocumentValidation {
		t.Fatalf("Current() = %v, want document_validation", m.Session.Current())
	}

	m, _ = pressApp(m, "enter")
	if m.CurrentScreen != ScreenSuccess {
		t.Fatalf("CurrentScreen = %v, want success", m.CurrentScreen)
	}
	if !strings.Contains(m.View(), "contract.pdf was sent to 1 recipient(s)") {
		t.Error("success summary not rendered")
	}

	m, cmd := pressApp(m, "q")
	if !isQuit(cmd) {
		t.Error("q on the success screen should quit")
	}
	if !m.Session.Ended() {
		t.Error("quitting should end the session")
	}
}

func TestApp_QuitAndLogoutEndSession(t *testing.T) {
	m := newTestApp(t, Options{})
	m, cmd := pressApp(m, "q")
	if !isQuit(cmd) || !m.Session.Ended() {
		t.Error("q on home should end the session and quit")
	}

	m = newTestApp(t, Options{})
	m, _ = pressApp(m, "enter", "m", "down", "down")
	m, cmd = pressApp(m, "enter")
	if !isQuit(cmd) || !m.Session.Ended() {
		t.Error("logout should end the session and quit")
	}

	m = newTestApp(t, Options{})
	m, cmd = pressApp(m, "ctrl+c")
	if !isQuit(cmd) || !m.Session.Ended() {
		t.Error("ctrl+c should end the session and quit")
	}
}

func TestApp_HubConnect(t *testing.T) {
	pub := &fakePublisher{}
	var connectedURL string
	m := newTestApp(t, Options{
		Draft:  readyDraft(),
		HubURL: "ws://hub.local:8765/ws",
		Connect: func(_ context.Context, url, session string) (Publisher, error) {
			if session == "" {
				t.Error("connect called without a session id")
			}
			return pub, nil
		},
		OnHubConnected: func(url string, _ *discovery.Hub) { connectedURL = url },
	})

	if m.Init() == nil {
		t.Fatal("Init() should connect to the configured hub")
	}
	msg := m.connectCmd(m.HubURL, nil)()
	updated, _ := m.Update(msg)
	m = updated.(AppModel)

	if m.HubStatus != "hub: hub.local:8765" {
		t.Errorf("HubStatus = %q", m.HubStatus)
	}
	if connectedURL != "ws://hub.local:8765/ws" {
		t.Errorf("OnHubConnected got %q", connectedURL)
	}
	if !strings.Contains(m.View(), "hub: hub.local:8765") {
		t.Error("hub status should be in the header")
	}

	m, _ = pressApp(m, "enter", "enter")
	if got := pub.count(); got != 2 {
		t.Errorf("publisher got %d changes, want 2", got)
	}

	m.Close()
	if !pub.closed {
		t.Error("Close() should close the publisher")
	}
}

func TestApp_HubConnectFailure(t *testing.T) {
	m := newTestApp(t, Options{HubURL: "ws://nowhere:1/ws"})

	updated, _ := m.Update(m.connectCmd(m.HubURL, nil)())
	m = updated.(AppModel)

	if m.HubStatus != "hub: offline" || m.LastError == nil {
		t.Errorf("HubStatus = %q, LastError = %v", m.HubStatus, m.LastError)
	}
	if !strings.Contains(m.View(), "no hub in tests") {
		t.Error("connection error should be shown on home")
	}
}

func TestApp_AutoDiscover(t *testing.T) {
	prefs := config.DefaultPreferences()
	prefs.AutoDiscover = true
	office := &discovery.Hub{
		Instance: "signflow-office",
		IP:       "10.0.0.2",
		Port:     8765,
		Metadata: map[string]string{discovery.TxtVersion: "v0.3.0"},
	}
	pub := &fakePublisher{}
	var gotHub *discovery.Hub

	m := newTestApp(t, Options{
		Preferences: prefs,
		Connect: func(context.Context, string, string) (Publisher, error) {
			return pub, nil
		},
		OnHubConnected: func(_ string, h *discovery.Hub) { gotHub = h },
	})
	if m.CurrentScreen != ScreenDiscovery {
		t.Fatalf("CurrentScreen = %v, want discovery", m.CurrentScreen)
	}

	updated, _ := m.Update(scanStartMsg{})
	m = updated.(AppModel)
	if !strings.Contains(m.View(), "SEARCHING FOR HUBS") {
		t.Error("scanning state not rendered")
	}

	updated, _ = m.Update(scanCompleteMsg{hubs: []*discovery.Hub{office}})
	m = updated.(AppModel)

	m, cmd := pressApp(m, "enter")
	if m.CurrentScreen != ScreenHome {
		t.Fatalf("CurrentScreen = %v, want home", m.CurrentScreen)
	}
	if m.HubURL != "ws://10.0.0.2:8765/ws" {
		t.Errorf("HubURL = %q", m.HubURL)
	}
	if cmd == nil {
		t.Fatal("selecting a hub should connect")
	}

	updated, _ = m.Update(cmd())
	m = updated.(AppModel)
	if gotHub != office {
		t.Error("OnHubConnected should receive the discovered hub")
	}
}

func TestDiscovery_ManualURL(t *testing.T) {
	d := NewDiscoveryModel(noScan, time.Second)

	pressD := func(keys ...string) {
		for _, k := range keys {
			updated, _ := d.Update(keyMsg(k))
			d = updated.(DiscoveryModel)
		}
	}

	pressD("u")
	if !d.ManualMode {
		t.Fatal("u should open manual entry")
	}

	d.URLInput.SetValue("http://10.0.0.2:8765/ws")
	pressD("enter")
	if d.Err == nil || d.Selected {
		t.Fatalf("http URL should be rejected, Err = %v", d.Err)
	}

	d.URLInput.SetValue("wss://hub.example.com/ws")
	pressD("enter")
	if !d.Selected || d.SelectedURL != "wss://hub.example.com/ws" || d.SelectedHub != nil {
		t.Errorf("Selected = %v URL = %q", d.Selected, d.SelectedURL)
	}
}

func TestDiscovery_NoHubs(t *testing.T) {
	d := NewDiscoveryModel(noScan, time.Second)
	updated, _ := d.Update(scanCompleteMsg{})
	d = updated.(DiscoveryModel)

	if !strings.Contains(d.View(), "No hubs found") {
		t.Error("empty scan should say so")
	}

	updated, _ = d.Update(scanCompleteMsg{err: errors.New("multicast blocked")})
	d = updated.(DiscoveryModel)
	if !strings.Contains(d.View(), "multicast blocked") {
		t.Error("scan error should be rendered")
	}

	updated, _ = d.Update(keyMsg("esc"))
	if !updated.(DiscoveryModel).Cancelled {
		t.Error("esc should cancel discovery")
	}
}

func TestHubRelay(t *testing.T) {
	r := &hubRelay{}
	r.Notify(navigation.ViewChange{Action: navigation.ActionNext})

	first, second := &fakePublisher{}, &fakePublisher{}
	r.set(first)
	r.set(second)
	if !first.closed {
		t.Error("replacing a publisher should close the old one")
	}

	r.Notify(navigation.ViewChange{Action: navigation.ActionBack})
	if first.count() != 0 || second.count() != 1 {
		t.Errorf("changes: first %d second %d", first.count(), second.count())
	}

	r.close()
	if !second.closed {
		t.Error("close should close the current publisher")
	}
}

func TestApp_DraftSharedWithWizard(t *testing.T) {
	d := document.NewDraft("")
	m := newTestApp(t, Options{Draft: d})

	m, _ = pressApp(m, "enter", "a")
	m.Wizard.Input.SetValue("Ada <ada@example.com>")
	m, _ = pressApp(m, "enter")

	if len(d.Recipients) != 1 {
		t.Errorf("recipient should be added to the caller's draft, got %+v", d.Recipients)
	}
}

func TestApp_TableEndingAtExitShowsSuccess(t *testing.T) {
	m := newTestApp(t, Options{Draft: readyDraft(), Table: exitTable(t)})

	m, _ = pressApp(m, "enter", "enter")
	if m.Session.Current() != steps.ViewSelectFile {
		t.Fatalf("Current() = %v, want select_file", m.Session.Current())
	}

	m, _ = pressApp(m, "enter")
	if m.CurrentScreen != ScreenSuccess {
		t.Fatalf("CurrentScreen = %v, want success (Err = %v)", m.CurrentScreen, m.Wizard.Err)
	}
	if m.Session.Current() != steps.ViewExit {
		t.Errorf("Current() = %v, want exit", m.Session.Current())
	}
}
