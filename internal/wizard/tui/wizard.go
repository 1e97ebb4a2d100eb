package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/signflow/internal/config"
	"github.com/muurk/signflow/internal/document"
	"github.com/muurk/signflow/internal/gate"
	"github.com/muurk/signflow/internal/navigation"
	"github.com/muurk/signflow/internal/steps"
)

// wizardKeyMap defines key bindings for the step screens
type wizardKeyMap struct {
	Next    key.Binding
	Back    key.Binding
	Jump    key.Binding
	Up      key.Binding
	Down    key.Binding
	Fix     key.Binding
	Menu    key.Binding
	Help    key.Binding
	Quit    key.Binding
	Add     key.Binding
	Delete  key.Binding
	Role    key.Binding
	Toggle  key.Binding
	Detail  key.Binding
	SMS     key.Binding
	Signing key.Binding
	Videos  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k wizardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Jump, k.Fix, k.Menu, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k wizardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.Jump, k.Up, k.Down},
		{k.Add, k.Delete, k.Role, k.Toggle, k.Detail},
		{k.SMS, k.Signing, k.Videos, k.Fix},
		{k.Menu, k.Help, k.Quit},
	}
}

// viewKeys returns the short help for view: the common bindings plus the
// ones that only make sense on that step
func (k wizardKeyMap) viewKeys(view steps.View) help.KeyMap {
	common := []key.Binding{k.Next, k.Back, k.Jump}
	switch view {
	case steps.ViewRecipient:
		common = append(common, k.Add, k.Delete, k.Role)
	case steps.ViewSelectFile:
		common = append(common, k.Toggle, k.Detail)
	case steps.ViewSendDocument:
		common = append(common, k.SMS, k.Signing, k.Videos)
	}
	return shortHelp(append(common, k.Fix, k.Menu, k.Quit))
}

type shortHelp []key.Binding

func (s shortHelp) ShortHelp() []key.Binding  { return s }
func (s shortHelp) FullHelp() [][]key.Binding { return [][]key.Binding{s} }

func newWizardKeyMap() wizardKeyMap {
	return wizardKeyMap{
		Next:    key.NewBinding(key.WithKeys("enter", "right", "n"), key.WithHelp("enter/→", "next")),
		Back:    key.NewBinding(key.WithKeys("left", "backspace", "b"), key.WithHelp("←", "back")),
		Jump:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "jump to step")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Fix:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fix issue")),
		Menu:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add recipient")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Role:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "cycle role")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "attach/detach")),
		Detail:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "file details")),
		SMS:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "toggle SMS")),
		Signing: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle signing")),
		Videos:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "video library")),
	}
}

var roles = []document.Role{document.RoleSigner, document.RoleApprover, document.RoleCC}

// WizardModel is the step screen: one panel per row of the step table plus
// the overlay views opened on top of it. All navigation goes through the
// Session so every move is gated and announced to the notifiers.
type WizardModel struct {
	Session     *navigation.Session
	Draft       *document.Draft
	Preferences *config.Preferences

	// UI state
	Width  int
	Height int

	HubStatus string

	Cursor      int // row in the current view's list
	DetailIndex int // file shown by the document detail overlay
	Issues      []gate.Issue
	IssueCursor int
	Status      string
	Err         error

	// Recipient entry
	Adding bool
	Input  textinput.Model

	// Menu
	ShowingMenu bool
	MenuCursor  int

	// Outcome flags read by AppModel
	Finished      bool
	QuitRequested bool
	LoggedOut     bool

	Progress progress.Model
	Help     help.Model
	Keys     wizardKeyMap
}

// NewWizardModel creates the step screen for session
func NewWizardModel(session *navigation.Session, draft *document.Draft, prefs *config.Preferences) WizardModel {
	input := textinput.New()
	input.Placeholder = "Jane Doe <jane@example.com>  or  Jane Doe, +46701234567"
	input.CharLimit = 120
	input.Width = 50

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	if draft == nil {
		draft = document.NewDraft("")
	}
	if prefs == nil {
		prefs = config.DefaultPreferences()
	}

	return WizardModel{
		Session:     session,
		Draft:       draft,
		Preferences: prefs,
		Input:       input,
		Progress:    bar,
		Help:        help.New(),
		Keys:        newWizardKeyMap(),
	}
}

// Init implements tea.Model
func (m WizardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.Adding:
			return m.updateAdding(msg)
		case m.ShowingMenu:
			return m.updateMenu(msg)
		case navigation.IsOverlay(m.Session.Current()):
			return m.updateOverlay(msg)
		}
		return m.updateStep(msg)
	}
	return m, nil
}

// updateStep handles input on a row of the step table
func (m WizardModel) updateStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.Session.Current()

	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.QuitRequested = true
		return m, nil

	case key.Matches(msg, m.Keys.Menu):
		m.ShowingMenu = true
		m.MenuCursor = 0
		return m, nil

	case key.Matches(msg, m.Keys.Help):
		return m.openOverlay(steps.ViewHelp), nil

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < m.listLen(view)-1 {
			m.Cursor++
		}
		return m, nil

	case key.Matches(msg, m.Keys.Fix):
		return m.fixIssue(), nil

	case msg.String() == "tab":
		if len(m.Issues) > 0 {
			m.IssueCursor = (m.IssueCursor + 1) % len(m.Issues)
		}
		return m, nil

	case key.Matches(msg, m.Keys.Next):
		if m.isFinal(view) {
			return m.send(), nil
		}
		return m.next(), nil

	case key.Matches(msg, m.Keys.Back):
		return m.moved(m.Session.Back()), nil

	case key.Matches(msg, m.Keys.Jump):
		idx := int(msg.String()[0] - '1')
		rows := m.Session.Controller().Table().Steps()
		if idx >= len(rows) {
			m.Status = fmt.Sprintf("There is no step %d", idx+1)
			return m, nil
		}
		return m.moved(m.Session.Jump(rows[idx].ID)), nil
	}

	return m.updateViewKeys(view, msg)
}

// updateViewKeys handles the bindings specific to one step
func (m WizardModel) updateViewKeys(view steps.View, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch view {
	case steps.ViewRecipient:
		switch {
		case key.Matches(msg, m.Keys.Add):
			m.Adding = true
			m.Input.SetValue("")
			return m, m.Input.Focus()
		case key.Matches(msg, m.Keys.Delete):
			if err := m.Draft.RemoveRecipient(m.Cursor); err == nil {
				m.Status = "Recipient removed"
				if m.Cursor > 0 && m.Cursor >= len(m.Draft.Recipients) {
					m.Cursor--
				}
				m.recheck()
			}
		case key.Matches(msg, m.Keys.Role):
			if m.Cursor < len(m.Draft.Recipients) {
				r := &m.Draft.Recipients[m.Cursor]
				r.Role = nextRole(r.Role)
				m.Status = fmt.Sprintf("%s is now %s", r.Name, r.Role)
				m.recheck()
			}
		}

	case steps.ViewSelectFile:
		switch {
		case key.Matches(msg, m.Keys.Toggle):
			if m.Cursor < len(m.Draft.Files) {
				m.Draft.ToggleFile(m.Draft.Files[m.Cursor].Name)
				m.recheck()
			}
		case key.Matches(msg, m.Keys.Detail):
			if m.Cursor < len(m.Draft.Files) {
				m.DetailIndex = m.Cursor
				return m.openOverlay(steps.ViewDocumentDetail), nil
			}
		}

	case steps.ViewSendDocument:
		switch {
		case key.Matches(msg, m.Keys.SMS):
			m.Draft.IsSMSSending = !m.Draft.IsSMSSending
			m.recheck()
		case key.Matches(msg, m.Keys.Signing):
			m.Draft.IsSigning = !m.Draft.IsSigning
			m.recheck()
		case key.Matches(msg, m.Keys.Videos):
			return m.openOverlay(steps.ViewVideoLibrary), nil
		}
	}

	return m, nil
}

// updateAdding handles the recipient text input
func (m WizardModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Adding = false
		m.Input.Blur()
		return m, nil

	case "enter":
		r, err := ParseRecipient(m.Input.Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Draft.AddRecipient(r)
		m.Adding = false
		m.Err = nil
		m.Input.Blur()
		m.Cursor = len(m.Draft.Recipients) - 1
		m.Status = "Added " + r.String()
		m.recheck()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// updateMenu handles the help/settings/logout menu
func (m WizardModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := navigation.MenuItems()

	switch {
	case msg.String() == "esc" || key.Matches(msg, m.Keys.Menu):
		m.ShowingMenu = false
	case key.Matches(msg, m.Keys.Up):
		if m.MenuCursor > 0 {
			m.MenuCursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.MenuCursor < len(items)-1 {
			m.MenuCursor++
		}
	case msg.String() == "enter":
		m.ShowingMenu = false
		item := items[m.MenuCursor]
		if item.View == steps.ViewLogout {
			m.LoggedOut = true
			return m, nil
		}
		return m.openOverlay(item.View), nil
	}
	return m, nil
}

// updateOverlay handles input while an overlay view is shown
func (m WizardModel) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "x", "backspace", "enter":
		return m.moved(m.Session.CloseOverlay()), nil
	case "q":
		m.QuitRequested = true
	}
	return m, nil
}

func (m WizardModel) openOverlay(view steps.View) WizardModel {
	return m.moved(m.Session.OpenOverlay(view))
}

// next asks the session to advance; a blocked gate keeps the user on the
// step and lists the issues
func (m WizardModel) next() WizardModel {
	to, decision, err := m.Session.Next(m.Draft)
	if err != nil {
		m.Err = err
		return m
	}
	if !decision.Allowed {
		m.Issues = decision.Issues
		m.IssueCursor = 0
		m.Status = fmt.Sprintf("%d issue(s) must be fixed before continuing", len(decision.Issues))
		return m
	}
	return m.arrive(to)
}

// send runs the full document check on the final step and finishes the
// wizard when it passes
func (m WizardModel) send() WizardModel {
	decision := gate.DocumentGate().CanAdvance(m.Draft)
	if !decision.Allowed {
		m.Issues = decision.Issues
		m.IssueCursor = 0
		m.Status = "The document cannot be sent yet"
		return m
	}
	to, decision, err := m.Session.Next(m.Draft)
	if err != nil {
		m.Err = err
		return m
	}
	if !decision.Allowed {
		m.Issues = decision.Issues
		m.IssueCursor = 0
		m.Status = "The document cannot be sent yet"
		return m
	}
	m = m.arrive(to)
	m.Finished = true
	return m
}

// isFinal reports whether Next on view ends the wizard: the row loops onto
// itself or leads out of the table to anywhere but home.
func (m WizardModel) isFinal(view steps.View) bool {
	table := m.Session.Controller().Table()
	row, err := table.Lookup(view)
	if err != nil {
		return false
	}
	return row.IsTerminal() || (!table.Contains(row.Next) && row.Next != steps.ViewHome)
}

func (m WizardModel) fixIssue() WizardModel {
	if len(m.Issues) == 0 {
		return m
	}
	issue := m.Issues[m.IssueCursor]
	if issue.View == steps.ViewUnknown {
		m.Status = "This issue has to be fixed outside the wizard"
		return m
	}
	return m.moved(m.Session.FixIssue(issue))
}

func (m WizardModel) moved(to steps.View, err error) WizardModel {
	if err != nil {
		m.Err = err
		return m
	}
	return m.arrive(to)
}

func (m WizardModel) arrive(to steps.View) WizardModel {
	m.Cursor = 0
	m.Err = nil
	m.Status = ""
	m.Issues = nil
	m.IssueCursor = 0
	if m.isFinal(to) {
		m.Issues = gate.DocumentGate().CanAdvance(m.Draft).Issues
	}
	return m
}

// recheck refreshes the listed issues after the draft changed
func (m *WizardModel) recheck() {
	if len(m.Issues) == 0 {
		return
	}
	view := m.Session.Current()
	var d gate.Decision
	if m.isFinal(view) {
		d = gate.DocumentGate().CanAdvance(m.Draft)
	} else {
		d = m.Session.Check(m.Draft)
	}
	m.Issues = d.Issues
	if m.IssueCursor >= len(m.Issues) {
		m.IssueCursor = 0
	}
	if d.Allowed {
		m.Status = "All issues fixed"
	}
}

func (m WizardModel) listLen(view steps.View) int {
	switch view {
	case steps.ViewRecipient:
		return len(m.Draft.Recipients)
	case steps.ViewSelectFile:
		return len(m.Draft.Files)
	}
	return 0
}

func nextRole(r document.Role) document.Role {
	for i, role := range roles {
		if role == r {
			return roles[(i+1)%len(roles)]
		}
	}
	return document.RoleSigner
}

// ParseRecipient reads "Name <email>" or "Name, +phone"
func ParseRecipient(s string) (document.Recipient, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return document.Recipient{}, errors.New("enter a name and an email address or phone number")
	}

	if open := strings.Index(s, "<"); open >= 0 {
		closing := strings.LastIndex(s, ">")
		if closing < open {
			return document.Recipient{}, fmt.Errorf("missing '>' in %q", s)
		}
		email := strings.TrimSpace(s[open+1 : closing])
		if !strings.Contains(email, "@") {
			return document.Recipient{}, fmt.Errorf("%q is not an email address", email)
		}
		return document.Recipient{Name: strings.TrimSpace(s[:open]), Email: email}, nil
	}

	if name, contact, ok := strings.Cut(s, ","); ok {
		contact = strings.TrimSpace(contact)
		if strings.Contains(contact, "@") {
			return document.Recipient{Name: strings.TrimSpace(name), Email: contact}, nil
		}
		return document.Recipient{Name: strings.TrimSpace(name), Mobile: contact}, nil
	}

	return document.Recipient{Name: s}, nil
}

// View renders the wizard
func (m WizardModel) View() string {
	if m.ShowingMenu {
		return RenderModal(m.renderMenu(), m.Width, m.Height)
	}
	if view := m.Session.Current(); navigation.IsOverlay(view) {
		return RenderModal(m.renderOverlay(view), m.Width, m.Height)
	}

	return RenderApplicationContainer(m.renderStep(), m.Help.View(m.Keys.viewKeys(m.Session.Current())), m.HubStatus, m.Width, m.Height)
}

func (m WizardModel) renderStep() string {
	table := m.Session.Controller().Table()
	view := m.Session.Current()
	row, _ := table.Lookup(view)

	var b strings.Builder
	b.WriteString(m.renderTrail(table, view))
	b.WriteString("\n")
	b.WriteString(RenderTitle(row.Label))
	b.WriteString("\n")

	switch view {
	case steps.ViewRecipient:
		b.WriteString(m.renderRecipients())
	case steps.ViewSelectFile:
		b.WriteString(m.renderFiles())
	case steps.ViewSendDocument:
		b.WriteString(m.renderSendOptions())
	case steps.ViewDocumentValidation:
		b.WriteString(m.renderSummary())
	default:
		b.WriteString(RenderSubtitle("Nothing to fill in on this step."))
	}

	if len(m.Issues) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderIssues())
	}
	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(RenderError(m.Err.Error()))
	} else if m.Status != "" {
		b.WriteString("\n\n")
		b.WriteString(RenderSubtitle("  " + m.Status))
	}
	return b.String()
}

// renderTrail draws "1 Recipients › 2 Select document › ..." and a bar
// showing how far through the table the user is
func (m WizardModel) renderTrail(table *steps.Table, view steps.View) string {
	at := table.Index(view)
	rows := table.Steps()

	parts := make([]string, len(rows))
	for i, row := range rows {
		label := fmt.Sprintf("%d %s", i+1, row.Label)
		switch {
		case i < at:
			parts[i] = StepDoneStyle.Render(label)
		case i == at:
			parts[i] = StepCurrentStyle.Render(label)
		default:
			parts[i] = StepPendingStyle.Render(label)
		}
	}

	pct := 0.0
	if len(rows) > 0 && at >= 0 {
		pct = float64(at+1) / float64(len(rows))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"  "+strings.Join(parts, StepPendingStyle.Render(" › ")),
		"  "+m.Progress.ViewAs(pct),
	)
}

func (m WizardModel) renderRecipients() string {
	var b strings.Builder
	if len(m.Draft.Recipients) == 0 {
		b.WriteString(RenderSubtitle("  No recipients yet. Press a to add one."))
	}
	for i, r := range m.Draft.Recipients {
		b.WriteString(RenderMenuItem(fmt.Sprintf("%-40s %s", r.String(), r.Role), i == m.Cursor))
		b.WriteString("\n")
	}
	if m.Adding {
		b.WriteString("\n  New recipient: ")
		b.WriteString(m.Input.View())
	}
	return b.String()
}

func (m WizardModel) renderFiles() string {
	var b strings.Builder
	if m.Draft.Template != nil {
		b.WriteString(RenderInfo("Template: " + m.Draft.Template.Name))
		b.WriteString("\n")
	}
	if len(m.Draft.Files) == 0 {
		b.WriteString(RenderSubtitle("  No files available."))
	}
	exts := m.Preferences.Extensions()
	for i, f := range m.Draft.Files {
		mark := "[ ]"
		if m.Draft.IsSelected(f.Name) {
			mark = "[x]"
		}
		note := ""
		if !gate.IsSignable(f, exts) {
			note = "  (not signable)"
		}
		b.WriteString(RenderMenuItem(mark+" "+f.Name+note, i == m.Cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m WizardModel) renderSendOptions() string {
	return strings.Join([]string{
		fmt.Sprintf("  Document:    %s", m.documentName()),
		fmt.Sprintf("  Recipients:  %d", len(m.Draft.Recipients)),
		fmt.Sprintf("  Signing:     %s", onOff(m.Draft.IsSigning)),
		fmt.Sprintf("  SMS sending: %s", onOff(m.Draft.IsSMSSending)),
	}, "\n")
}

func (m WizardModel) renderSummary() string {
	if len(m.Issues) == 0 {
		return RenderSuccess(fmt.Sprintf("%s is ready to send to %d recipient(s). Press enter to send.",
			m.documentName(), len(m.Draft.Recipients)))
	}
	return RenderSubtitle("  Fix the issues below before sending.")
}

func (m WizardModel) renderIssues() string {
	lines := []string{IssueStyle.Render("Issues:")}
	for i, issue := range m.Issues {
		text := issue.Message
		if issue.Header != "" {
			text = issue.Header + ": " + text
		}
		if issue.View != steps.ViewUnknown {
			text += " (f: go to " + issue.View.String() + ")"
		}
		if i == m.IssueCursor {
			lines = append(lines, "  "+SelectedIssueStyle.Render("→ "+text))
		} else {
			lines = append(lines, IssueStyle.Render("  "+text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m WizardModel) renderMenu() string {
	lines := []string{TitleStyle.Render("MENU")}
	for i, item := range navigation.MenuItems() {
		lines = append(lines, RenderMenuItem(item.Icon+"  "+item.Title, i == m.MenuCursor))
	}
	lines = append(lines, "", RenderSubtitle("enter select • esc close"))
	return modalBox(40, m.Width).Render(strings.Join(lines, "\n"))
}

// renderOverlay draws the overlay views. Each one closes back onto the view
// navigation.CloseOverlay names.
func (m WizardModel) renderOverlay(view steps.View) string {
	var title string
	var body []string

	switch view {
	case steps.ViewHelp:
		title = "HELP"
		for _, group := range m.Keys.FullHelp() {
			for _, b := range group {
				h := b.Help()
				body = append(body, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
			}
		}
	case steps.ViewSettings:
		title = "SETTINGS"
		p := m.Preferences
		body = []string{
			"  Signable file types: " + strings.Join(p.Extensions(), ", "),
			"  Step table:          " + orDefault(p.StepTablePath, "built-in"),
			"  Hub:                 " + orDefault(p.HubAddress, "none"),
			"  Discover hubs:       " + onOff(p.AutoDiscover),
			"",
			RenderSubtitle("  Edit with: signflow config show / config init"),
		}
	case steps.ViewDocumentDetail:
		title = "DOCUMENT"
		if m.DetailIndex < len(m.Draft.Files) {
			f := m.Draft.Files[m.DetailIndex]
			body = []string{
				"  Name:      " + f.Name,
				fmt.Sprintf("  Size:      %d bytes", f.Size),
				"  Type:      " + orDefault(f.Extension(), "unknown"),
				"  Signable:  " + yesNo(gate.IsSignable(f, m.Preferences.Extensions())),
			}
		}
	case steps.ViewVideoLibrary:
		title = "VIDEO LIBRARY"
		body = []string{"  No videos are attached to this document."}
	case steps.ViewInvite:
		title = "INVITE"
		body = []string{"  Invite colleagues from the e-signature service."}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(title),
		strings.Join(body, "\n"),
		"",
		RenderSubtitle(fmt.Sprintf("esc: back to %s", navigation.CloseOverlay(view))),
	)
	return modalBox(70, m.Width).Render(content)
}

func (m WizardModel) documentName() string {
	if files := gate.SignableFiles(m.Draft, m.Preferences.Extensions()); len(files) == 1 {
		return files[0].Name
	}
	if m.Draft.Template != nil {
		return m.Draft.Template.Name
	}
	return orDefault(m.Draft.Name, "(no document)")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
