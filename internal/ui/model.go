package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rdesk/internal/engine"
	"rdesk/util"
)

// prompt is the text prompt currently open, if any.
type prompt int

const (
	promptNone prompt = iota
	promptChangeID
	promptNewRemote
)

// clientRow is one client on the cm page, decoded from get_clients.
type clientRow struct {
	ID         int    `json:"id"`
	PeerID     string `json:"peer_id"`
	Name       string `json:"name"`
	Authorized bool   `json:"authorized"`
}

type modelConfig struct {
	title    string
	page     engine.Page
	handler  engine.Handler
	behavior engine.Handler
	pollTick time.Duration
	logger   *util.Logger
}

// Model is the Bubble Tea model of the terminal frame.  It reaches the
// rest of rdesk only through the page handler and the bound behavior.
type Model struct {
	title    string
	page     engine.Page
	handler  engine.Handler
	behavior engine.Handler
	pollTick time.Duration
	logger   *util.Logger
	styles   Styles

	width  int
	height int

	// Polled state
	id            string
	jobStatus     string
	newVersion    string
	sessionStatus string
	clients       []clientRow
	selected      int
	recentAt      time.Time
	notice        string

	prompt prompt
	input  textinput.Model
}

func newModel(cfg modelConfig) Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40

	m := Model{
		title:    cfg.title,
		page:     cfg.page,
		handler:  cfg.handler,
		behavior: cfg.behavior,
		pollTick: cfg.pollTick,
		logger:   cfg.logger,
		styles:   DefaultStyles(),
		input:    ti,
	}
	m.poll()
	if m.page == engine.PageCM {
		m.loadClients()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.pollTick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m.handleTick()
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	if m.prompt != promptNone {
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
	}
	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.footer()))
	return b.String()
}

// ── Keys ─────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()
	}

	switch m.page {
	case engine.PageIndex:
		switch msg.String() {
		case "i":
			if ok, _ := m.call(m.handler, "is_ok_change_id").(bool); !ok {
				m.notice = "changing the id is not available on this machine"
				return m, nil
			}
			return m.openPrompt(promptChangeID, "new id")
		case "n":
			return m.openPrompt(promptNewRemote, "id [connect|file-transfer|port-forward|rdp]")
		}
	case engine.PageRemote:
		switch msg.String() {
		case "f":
			m.call(m.behavior, "flush_input")
		case "x":
			m.call(m.behavior, "close")
			m.sessionStatus = m.str(m.call(m.behavior, "get_status"))
		}
	case engine.PageCM:
		switch msg.String() {
		case "j", "down":
			if m.selected < len(m.clients)-1 {
				m.selected++
			}
		case "k", "up":
			if m.selected > 0 {
				m.selected--
			}
		case "a":
			if c, ok := m.selectedClient(); ok {
				m.call(m.behavior, "authorize", int64(c.ID))
			}
		case "x":
			if c, ok := m.selectedClient(); ok {
				m.call(m.behavior, "close", int64(c.ID))
			}
		}
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		kind := m.prompt
		m.closePrompt()
		if value != "" {
			m.submit(kind, value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) openPrompt(p prompt, placeholder string) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.input.Reset()
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) submit(p prompt, value string) {
	switch p {
	case promptChangeID:
		m.call(m.handler, "change_id", value)
		m.jobStatus = ""
	case promptNewRemote:
		fields := strings.Fields(value)
		kind := "connect"
		if len(fields) > 1 {
			kind = fields[1]
		}
		m.call(m.handler, "new_remote", fields[0], kind, false)
	}
}

// quit tells the page handler the window is closing and stops the
// program.  The frame runs its OnClose hooks after that.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.call(m.handler, "closing", int64(0), int64(0), int64(m.width), int64(m.height))
	return m, tea.Quit
}

// ── Polling ──────────────────────────────────────────────────────────

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.poll()
	return m, tickCmd(m.pollTick)
}

// poll reads everything the current page shows.
func (m *Model) poll() {
	switch m.page {
	case engine.PageIndex:
		m.id = m.str(m.call(m.handler, "get_id"))
		m.jobStatus = m.str(m.call(m.handler, "get_async_job_status"))
		m.newVersion = m.str(m.call(m.handler, "get_new_version"))
		if updated, _ := m.call(m.handler, "recent_sessions_updated").(bool); updated {
			m.recentAt = time.Now()
		}
	case engine.PageRemote:
		m.sessionStatus = m.str(m.call(m.behavior, "get_status"))
	case engine.PageCM:
		if changed, _ := m.call(m.behavior, "clients_changed").(bool); changed {
			m.loadClients()
		}
	}
}

func (m *Model) loadClients() {
	raw := m.str(m.call(m.behavior, "get_clients"))
	if raw == "" {
		return
	}
	var rows []clientRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		m.notice = "bad client list: " + err.Error()
		return
	}
	m.clients = rows
	if m.selected >= len(rows) {
		m.selected = max(len(rows)-1, 0)
	}
}

func (m Model) selectedClient() (clientRow, bool) {
	if m.selected < 0 || m.selected >= len(m.clients) {
		return clientRow{}, false
	}
	return m.clients[m.selected], true
}

// call invokes name on h, recording a failure as the notice line.
func (m *Model) call(h engine.Handler, name string, args ...engine.Value) engine.Value {
	if h == nil {
		return nil
	}
	v, err := h.Call(name, args)
	if err != nil {
		m.notice = fmt.Sprintf("%s: %v", name, err)
		if m.logger != nil {
			m.logger.Debug("ui call %s: %v", name, err)
		}
		return nil
	}
	return v
}

func (m *Model) str(v engine.Value) string {
	s, _ := v.(string)
	return s
}

// ── Rendering ────────────────────────────────────────────────────────

func (m Model) renderHeader() string {
	title := m.title
	if title == "" {
		title = "rdesk"
	}
	return m.styles.Title.Render(title) + "  " + m.styles.Page.Render(m.page.String())
}

func (m Model) renderBody() string {
	switch m.page {
	case engine.PageIndex:
		return m.renderIndex()
	case engine.PageInstall:
		return m.styles.Text.Render("Install rdesk on this machine.")
	case engine.PageRemote:
		return m.renderRemote()
	case engine.PageCM:
		return m.renderClients()
	default:
		return ""
	}
}

func (m Model) renderIndex() string {
	var b strings.Builder
	b.WriteString(m.field("ID", m.styles.Text.Render(m.id)))
	if m.jobStatus != "" {
		status := m.jobStatus
		if status == " " {
			status = "working..."
		}
		b.WriteString("\n")
		b.WriteString(m.field("Job", m.styles.statusStyle(m.jobStatus).Render(status)))
	}
	if m.newVersion != "" {
		b.WriteString("\n")
		b.WriteString(m.field("Update", m.styles.Warning.Render(m.newVersion+" available")))
	}
	if !m.recentAt.IsZero() {
		b.WriteString("\n")
		b.WriteString(m.field("Sessions", m.styles.Muted.Render("updated "+m.recentAt.Format("15:04:05"))))
	}
	return b.String()
}

func (m Model) renderRemote() string {
	status := m.sessionStatus
	if status == "" {
		status = "unknown"
	}
	return m.field("Status", m.styles.statusStyle(status).Render(status))
}

func (m Model) renderClients() string {
	if len(m.clients) == 0 {
		return m.styles.Muted.Render("No incoming connections.")
	}
	lines := make([]string, 0, len(m.clients))
	for i, c := range m.clients {
		state := "waiting"
		if c.Authorized {
			state = "authorized"
		}
		line := fmt.Sprintf("%-4d %-12s %-20s %s", c.ID, c.PeerID, c.Name, state)
		if i == m.selected {
			line = m.styles.Selected.Render(line)
		} else {
			line = m.styles.Text.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) field(label, value string) string {
	return m.styles.Label.Render(label) + value
}

func (m Model) footer() string {
	if m.prompt != promptNone {
		return "enter submit  esc cancel"
	}
	switch m.page {
	case engine.PageIndex:
		return "i change id  n new session  q quit"
	case engine.PageRemote:
		return "f release keys  x disconnect  q quit"
	case engine.PageCM:
		return "j/k select  a accept  x close  q quit"
	default:
		return "q quit"
	}
}

// Messages

type tickMsg time.Time

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
