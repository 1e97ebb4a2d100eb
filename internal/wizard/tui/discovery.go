package tui

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/signflow/internal/discovery"
)

// ScanFunc browses the network for hubs
type ScanFunc func(ctx context.Context, timeout time.Duration) ([]*discovery.Hub, error)

// ScanHubs is the ScanFunc backed by mDNS
func ScanHubs(ctx context.Context, timeout time.Duration) ([]*discovery.Hub, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForHubs(ctx)
}

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	hubs []*discovery.Hub
	err  error
}

// discoveryKeyMap defines key bindings for the hub list
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Back},
	}
}

// hubItem wraps a Hub for use with bubbles/list
type hubItem struct {
	hub *discovery.Hub
}

// FilterValue implements list.Item
func (h hubItem) FilterValue() string {
	return h.hub.Instance + " " + h.hub.IP + " " + h.hub.Host
}

// hubDelegate renders a hub as a small card
type hubDelegate struct {
	width int
}

func (d hubDelegate) Height() int                             { return 5 }
func (d hubDelegate) Spacing() int                            { return 1 }
func (d hubDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d hubDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	hi, ok := item.(hubItem)
	if !ok {
		return
	}
	hub := hi.hub
	selected := index == m.Index()

	name := hub.Instance
	if selected {
		name = SelectedMenuItemStyle.Render("→ " + name)
	} else {
		name = "  " + name
	}

	ver := hub.GetMetadata(discovery.TxtVersion)
	if ver == "" {
		ver = "unknown"
	}

	content := strings.Join([]string{
		name,
		fmt.Sprintf("  URL:     %s", hub.URL()),
		fmt.Sprintf("  Version: %s", ver),
	}, "\n")

	width := d.width - 6
	if width < MinTerminalWidth-6 {
		width = MinTerminalWidth - 6
	}
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 2).
		MarginLeft(2).
		Width(width)
	if selected {
		card = card.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, card.Render(content))
}

// DiscoveryModel is the hub discovery screen
type DiscoveryModel struct {
	Scanning bool
	HubList  list.Model
	Err      error
	Timeout  time.Duration

	// Selected is set once the user picked a hub or typed an address
	Selected    bool
	SelectedURL string
	SelectedHub *discovery.Hub
	Cancelled   bool

	// Manual address entry
	ManualMode bool
	URLInput   textinput.Model

	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          discoveryKeyMap

	scan ScanFunc
}

// NewDiscoveryModel creates the discovery screen. A nil scan uses ScanHubs.
func NewDiscoveryModel(scan ScanFunc, timeout time.Duration) DiscoveryModel {
	if scan == nil {
		scan = ScanHubs
	}
	if timeout <= 0 {
		timeout = discovery.DefaultScanTimeout
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "ws://192.168.1.20:8765/ws"
	input.CharLimit = 200
	input.Width = 50

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	hubList := list.New([]list.Item{}, hubDelegate{width: MinTerminalWidth}, 0, 0)
	hubList.Title = "Notification Hubs"
	hubList.SetShowStatusBar(false)
	hubList.SetFilteringEnabled(false)
	hubList.Styles.Title = TitleStyle

	return DiscoveryModel{
		HubList:     hubList,
		Timeout:     timeout,
		URLInput:    input,
		Spinner:     s,
		ProgressBar: bar,
		Help:        help.New(),
		Keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "enter URL")),
			Back:   key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "back")),
		},
		scan: scan,
	}
}

// Init starts a scan
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.scanCmd(),
		m.Spinner.Tick,
	)
}

func (m DiscoveryModel) scanCmd() tea.Cmd {
	scan, timeout := m.scan, m.Timeout
	return func() tea.Msg {
		hubs, err := scan(context.Background(), timeout)
		return scanCompleteMsg{hubs: hubs, err: err}
	}
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.HubList.SetDelegate(hubDelegate{width: msg.Width})
		m.HubList.SetWidth(msg.Width - 4)
		m.HubList.SetHeight(msg.Height - 10)

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.hubs))
		for i, h := range msg.hubs {
			items[i] = hubItem{hub: h}
		}
		m.HubList.SetItems(items)

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Back):
		m.Cancelled = true
		return m, nil

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.Err = nil
		m.URLInput.SetValue("")
		return m, m.URLInput.Focus()

	case m.Scanning:
		return m, nil

	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.HubList.SelectedItem().(hubItem); ok {
			m.Selected = true
			m.SelectedHub = item.hub
			m.SelectedURL = item.hub.URL()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		m.HubList.SetItems(nil)
		m.Err = nil
		return m, m.Init()
	}

	var cmd tea.Cmd
	m.HubList, cmd = m.HubList.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil

	case "enter":
		raw := strings.TrimSpace(m.URLInput.Value())
		if err := validateHubURL(raw); err != nil {
			m.Err = err
			return m, nil
		}
		m.ManualMode = false
		m.URLInput.Blur()
		m.Selected = true
		m.SelectedURL = raw
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

func validateHubURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("hub URL must start with ws:// or wss://")
	}
	if u.Host == "" {
		return fmt.Errorf("hub URL has no host")
	}
	return nil
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	width := m.Width
	if width == 0 {
		width = defaultWidth
	}

	var content string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
	case m.Scanning:
		content = m.renderScanning(width)
	default:
		content = m.renderResults()
	}

	return RenderApplicationContainer(content, m.Help.View(m.Keys), "", m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning(width int) string {
	elapsed := time.Since(m.ScanStartTime)
	pct := elapsed.Seconds() / m.Timeout.Seconds()
	if pct > 1 {
		pct = 1
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR HUBS"),
		SubtitleStyle.Render("Browsing "+discovery.ServiceType+" on the local network..."),
		"",
		m.ProgressBar.ViewAs(pct),
		"",
	)
	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Start a hub with: signflow-hub server --advertise\n")
		b.WriteString("    • Check that multicast DNS is not blocked on this network\n")
		b.WriteString("    • Press u to enter the hub URL by hand\n")
	case len(m.HubList.Items()) == 0:
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No hubs found"))
		b.WriteString("\n\n")
		b.WriteString("  Press r to scan again or u to enter a URL.\n")
	default:
		b.WriteString(m.HubList.View())
	}
	return b.String()
}

func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder
	b.WriteString(RenderSubtitle("Enter the hub websocket URL"))
	b.WriteString("\n\n  URL: ")
	b.WriteString(m.URLInput.View())
	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(RenderError(m.Err.Error()))
	}
	return b.String()
}
