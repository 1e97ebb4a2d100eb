package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/signflow/internal/config"
	"github.com/muurk/signflow/internal/discovery"
	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/hub"
	"github.com/muurk/signflow/internal/logging"
	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/steps"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenHome      Screen = "home"
	ScreenDiscovery Screen = "discovery"
	ScreenWizard    Screen = "wizard"
	ScreenSuccess   Screen = "success"
)

// Publisher is a hub connection the session's view changes are sent to
type Publisher interface {
	navigation.Notifier
	Close() error
}

// ConnectFunc opens a Publisher for session at url
type ConnectFunc func(ctx context.Context, url, session string) (Publisher, error)

// ConnectHub is the ConnectFunc backed by hub.NewPublisher
func ConnectHub(ctx context.Context, url, session string) (Publisher, error) {
	pub, err := hub.NewPublisher(ctx, url, session, hub.WithHandshakeTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// Options configures the application
type Options struct {
	Table       *steps.Table
	Draft       *document.Draft
	Preferences *config.Preferences

	// HubURL is connected to at startup. When empty and
	// Preferences.AutoDiscover is set the app opens on hub discovery.
	HubURL    string
	SessionID string
	Notifiers []navigation.Notifier

	// OnHubConnected is called after a hub connection succeeds. h is nil
	// when the URL was typed in rather than discovered.
	OnHubConnected func(url string, h *discovery.Hub)

	Scan    ScanFunc
	Connect ConnectFunc
}

// Messages for async operations
type hubConnectedMsg struct {
	pub Publisher
	url string
	hub *discovery.Hub
	err error
}

// hubRelay forwards view changes to whichever hub is currently connected.
// The session's notifier is fixed at construction, the hub is not.
type hubRelay struct {
	mu  sync.Mutex
	pub Publisher
}

func (r *hubRelay) Notify(change navigation.ViewChange) {
	r.mu.Lock()
	pub := r.pub
	r.mu.Unlock()
	if pub != nil {
		pub.Notify(change)
	}
}

// set swaps in pub and closes the previous connection
func (r *hubRelay) set(pub Publisher) {
	r.mu.Lock()
	old := r.pub
	r.pub = pub
	r.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (r *hubRelay) close() {
	r.set(nil)
}

// homeKeyMap defines key bindings for the home screen
type homeKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k homeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k homeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Enter, k.Quit}}
}

// successKeyMap defines key bindings for the success screen
type successKeyMap struct {
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k successKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k successKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

type homeAction int

const (
	homeStart homeAction = iota
	homeFindHub
	homeInvite
	homeHelp
	homeSettings
	homeQuit
)

type homeItem struct {
	action homeAction
	title  string
}

var homeItems = []homeItem{
	{homeStart, "Send a document for signing"},
	{homeFindHub, "Find a notification hub"},
	{homeInvite, "Invite a colleague"},
	{homeHelp, "Help"},
	{homeSettings, "Settings"},
	{homeQuit, "Quit"},
}

// AppModel is the top-level coordinator model. The wizard screens follow the
// session's current view; discovery and the result screen sit around it.
type AppModel struct {
	CurrentScreen Screen

	Session *navigation.Session
	Draft   *document.Draft

	Wizard         WizardModel
	DiscoveryModel DiscoveryModel

	HubURL    string
	HubStatus string
	LastError error

	Width      int
	Height     int
	HomeCursor int

	Help        help.Model
	HomeKeys    homeKeyMap
	SuccessKeys successKeyMap

	relay *hubRelay
	opts  Options
}

// NewAppModel creates the application and its session
func NewAppModel(opts Options) AppModel {
	if opts.Table == nil {
		opts.Table = steps.DefaultTable()
	}
	if opts.Draft == nil {
		opts.Draft = document.NewDraft("")
	}
	if opts.Preferences == nil {
		opts.Preferences = config.DefaultPreferences()
	}
	if opts.Scan == nil {
		opts.Scan = ScanHubs
	}
	if opts.Connect == nil {
		opts.Connect = ConnectHub
	}

	relay := &hubRelay{}
	notifiers := append(append([]navigation.Notifier{}, opts.Notifiers...), relay)

	sessionOpts := []navigation.SessionOption{
		navigation.WithSessionNotifier(navigation.Multi(notifiers...)),
		navigation.WithSignableExtensions(opts.Preferences.Extensions()...),
		navigation.StartAt(steps.ViewHome),
	}
	if opts.SessionID != "" {
		sessionOpts = append(sessionOpts, navigation.WithID(opts.SessionID))
	}
	session := navigation.NewSession(opts.Table, sessionOpts...)

	m := AppModel{
		CurrentScreen: ScreenHome,
		Session:       session,
		Draft:         opts.Draft,
		Wizard:        NewWizardModel(session, opts.Draft, opts.Preferences),
		HubURL:        opts.HubURL,
		HubStatus:     "hub: not connected",
		Help:          help.New(),
		HomeKeys: homeKeyMap{
			Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
			Quit:  key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		SuccessKeys: successKeyMap{
			Quit: key.NewBinding(key.WithKeys("q", "enter", "esc"), key.WithHelp("q", "quit")),
		},
		relay: relay,
		opts:  opts,
	}
	m.Wizard.HubStatus = m.HubStatus

	if opts.HubURL == "" && opts.Preferences.AutoDiscover {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(opts.Scan, opts.Preferences.DiscoverDuration())
	}

	return m
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.HubURL != "" {
		cmds = append(cmds, m.connectCmd(m.HubURL, nil))
	}
	if m.CurrentScreen == ScreenDiscovery {
		cmds = append(cmds, m.DiscoveryModel.Init())
	}
	return tea.Batch(cmds...)
}

// Close releases the hub connection
func (m AppModel) Close() {
	m.relay.close()
}

func (m AppModel) connectCmd(hubURL string, h *discovery.Hub) tea.Cmd {
	connect, session := m.opts.Connect, m.Session.ID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pub, err := connect(ctx, hubURL, session)
		return hubConnectedMsg{pub: pub, url: hubURL, hub: h, err: err}
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Wizard.Width = msg.Width
		m.Wizard.Height = msg.Height
		if m.CurrentScreen == ScreenDiscovery {
			updated, _ := m.DiscoveryModel.Update(msg)
			m.DiscoveryModel = updated.(DiscoveryModel)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

	case hubConnectedMsg:
		return m.hubConnected(msg), nil
	}

	return m.updateCurrentScreen(msg)
}

func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenHome:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return m.updateHome(keyMsg)
		}

	case ScreenDiscovery:
		updated, c := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		cmd = c

		if m.DiscoveryModel.Selected {
			m.HubURL = m.DiscoveryModel.SelectedURL
			m.HubStatus = "hub: connecting..."
			m.Wizard.HubStatus = m.HubStatus
			m.CurrentScreen = ScreenHome
			return m, m.connectCmd(m.HubURL, m.DiscoveryModel.SelectedHub)
		}
		if m.DiscoveryModel.Cancelled {
			m.CurrentScreen = ScreenHome
			return m, nil
		}

	case ScreenWizard:
		updated, c := m.Wizard.Update(msg)
		m.Wizard = updated.(WizardModel)
		cmd = c

		switch {
		case m.Wizard.QuitRequested, m.Wizard.LoggedOut:
			return m.quit()
		case m.Wizard.Finished:
			m.CurrentScreen = ScreenSuccess
		case m.leftWizard():
			m.CurrentScreen = ScreenHome
		}

	case ScreenSuccess:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.SuccessKeys.Quit) {
			return m.quit()
		}
	}

	return m, cmd
}

// updateHome handles the start menu shown while the session is on home
func (m AppModel) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.HomeKeys.Quit):
		return m.quit()
	case key.Matches(msg, m.HomeKeys.Up):
		if m.HomeCursor > 0 {
			m.HomeCursor--
		}
	case key.Matches(msg, m.HomeKeys.Down):
		if m.HomeCursor < len(homeItems)-1 {
			m.HomeCursor++
		}
	case key.Matches(msg, m.HomeKeys.Enter):
		return m.selectHome(homeItems[m.HomeCursor].action)
	}
	return m, nil
}

func (m AppModel) selectHome(action homeAction) (tea.Model, tea.Cmd) {
	switch action {
	case homeStart:
		m.Wizard = m.Wizard.moved(m.Session.Jump(m.Session.Controller().Table().First().ID))
	case homeFindHub:
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(m.opts.Scan, m.opts.Preferences.DiscoverDuration())
		if m.Width > 0 {
			updated, _ := m.DiscoveryModel.Update(tea.WindowSizeMsg{Width: m.Width, Height: m.Height})
			m.DiscoveryModel = updated.(DiscoveryModel)
		}
		return m, m.DiscoveryModel.Init()
	case homeInvite:
		m.Wizard = m.Wizard.openOverlay(steps.ViewInvite)
	case homeHelp:
		m.Wizard = m.Wizard.openOverlay(steps.ViewHelp)
	case homeSettings:
		m.Wizard = m.Wizard.openOverlay(steps.ViewSettings)
	case homeQuit:
		return m.quit()
	}

	if m.Wizard.Err != nil {
		m.LastError = m.Wizard.Err
		return m, nil
	}
	m.LastError = nil
	m.CurrentScreen = ScreenWizard
	return m, nil
}

func (m AppModel) hubConnected(msg hubConnectedMsg) AppModel {
	if msg.err != nil {
		logging.Warn("Hub connection failed", zap.String("url", msg.url), zap.Error(msg.err))
		m.LastError = msg.err
		m.HubStatus = "hub: offline"
		m.Wizard.HubStatus = m.HubStatus
		return m
	}

	m.relay.set(msg.pub)
	m.HubURL = msg.url
	m.HubStatus = "hub: " + hubHost(msg.url)
	m.Wizard.HubStatus = m.HubStatus
	m.LastError = nil
	logging.Info("Publishing view changes to hub",
		zap.String("url", msg.url),
		zap.String("session", m.Session.ID()),
	)
	if m.opts.OnHubConnected != nil {
		m.opts.OnHubConnected(msg.url, msg.hub)
	}
	return m
}

func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.Session.End()
	return m, tea.Quit
}

func hubHost(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}

// View renders the current screen. Each screen wraps itself in
// RenderApplicationContainer.
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenHome:
		return RenderApplicationContainer(m.renderHome(), m.Help.View(m.HomeKeys), m.HubStatus, m.Width, m.Height)
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenWizard:
		return m.Wizard.View()
	case ScreenSuccess:
		return RenderApplicationContainer(m.renderSuccess(), m.Help.View(m.SuccessKeys), m.HubStatus, m.Width, m.Height)
	default:
		return "Unknown screen"
	}
}

func (m AppModel) renderHome() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Welcome"))
	b.WriteString("\n")
	b.WriteString(RenderSubtitle("  Prepare a document, pick its recipients and send it for signing."))
	b.WriteString("\n\n")

	for i, item := range homeItems {
		b.WriteString(RenderMenuItem(item.title, i == m.HomeCursor))
		b.WriteString("\n")
	}

	if m.LastError != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(m.LastError.Error()))
	}
	return b.String()
}

// leftWizard reports whether the session moved off the step table without
// finishing, such as Back from the first step.
func (m AppModel) leftWizard() bool {
	current := m.Session.Current()
	if current == steps.ViewHome {
		return true
	}
	return !navigation.IsOverlay(current) && !m.Session.Controller().Table().Contains(current)
}

func (m AppModel) renderSuccess() string {
	var b strings.Builder
	b.WriteString(RenderTitle("✓ Document sent"))
	b.WriteString("\n")
	b.WriteString(RenderSuccess(fmt.Sprintf("%s was sent to %d recipient(s)",
		m.Wizard.documentName(), len(m.Draft.Recipients))))
	b.WriteString("\n\n")
	for _, r := range m.Draft.Recipients {
		b.WriteString(MenuItemStyle.Render(fmt.Sprintf("%s (%s)", r.String(), r.Role)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(RenderSubtitle("  Session " + m.Session.ID()))
	return b.String()
}

// Result describes how a Run ended
type Result struct {
	SessionID string
	View      steps.View
	Finished  bool
	LoggedOut bool
	HubURL    string
}

// Run starts the application and blocks until the user quits
func Run(opts Options) (Result, error) {
	m := NewAppModel(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Result{}, fmt.Errorf("wizard failed: %w", err)
	}

	app, ok := final.(AppModel)
	if !ok {
		return Result{}, fmt.Errorf("unexpected model type %T", final)
	}
	return Result{
		SessionID: app.Session.ID(),
		View:      app.Session.Current(),
		Finished:  app.Wizard.Finished,
		LoggedOut: app.Wizard.LoggedOut,
		HubURL:    app.HubURL,
	}, nil
}
