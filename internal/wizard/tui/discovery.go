package tui

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifistat/internal/discovery"
	"github.com/muurk/wifistat/internal/provision"
)

type scanStartMsg struct{}

type scanCompleteMsg struct {
	portals []*discovery.Portal
	err     error
}

// portalSelectedMsg moves the wizard to the credentials screen.
type portalSelectedMsg struct {
	name    string
	baseURL string
}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual address entry
type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// portalItem wraps a Portal for use with bubbles/list
type portalItem struct {
	portal *discovery.Portal
}

func (p portalItem) FilterValue() string {
	return p.portal.Instance + " " + p.portal.IP
}

// portalDelegate renders one portal per two lines.
type portalDelegate struct{}

func (portalDelegate) Height() int                               { return 2 }
func (portalDelegate) Spacing() int                              { return 1 }
func (portalDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (portalDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(portalItem)
	if !ok {
		return
	}
	p := pi.portal
	name := p.Instance
	detail := fmt.Sprintf("    %s  firmware %s", net.JoinHostPort(p.IP, strconv.Itoa(p.Port)), p.Version())
	if index == m.Index() {
		fmt.Fprintf(w, "%s\n%s", SelectedStyle.Render("→ "+name), detail)
		return
	}
	fmt.Fprintf(w, "  %s\n%s", name, SubtitleStyle.Render(detail))
}

// DiscoveryModel is the portal discovery screen.
type DiscoveryModel struct {
	scan func(ctx context.Context) ([]*discovery.Portal, error)

	Scanning bool
	Portals  list.Model
	Err      error

	ManualMode bool
	AddrInput  textinput.Model
	ManualErr  string

	Width      int
	Height     int
	Spinner    spinner.Model
	Help       help.Model
	Keys       discoveryKeyMap
	ManualKeys manualKeyMap
}

// NewDiscoveryModel returns a discovery screen using scan to browse.
func NewDiscoveryModel(scan func(ctx context.Context) ([]*discovery.Portal, error)) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	addr := textinput.New()
	addr.Placeholder = provision.DefaultAddress
	addr.CharLimit = 64
	addr.Width = 30

	portals := list.New([]list.Item{}, portalDelegate{}, MinTerminalWidth, 12)
	portals.Title = "Setup portals"
	portals.SetShowStatusBar(false)
	portals.SetShowHelp(false)
	portals.SetFilteringEnabled(false)
	portals.Styles.Title = TitleStyle

	return DiscoveryModel{
		scan:      scan,
		Portals:   portals,
		AddrInput: addr,
		Spinner:   s,
		Help:      help.New(),
		Keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "configure")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manual address")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		},
		ManualKeys: manualKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
}

// Init starts the first scan.
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.scanCmd(),
		m.Spinner.Tick,
	)
}

func (m DiscoveryModel) scanCmd() tea.Cmd {
	scan := m.scan
	return func() tea.Msg {
		portals, err := scan(context.Background())
		return scanCompleteMsg{portals: portals, err: err}
	}
}

// Update handles scanning, selection and manual entry.
func (m DiscoveryModel) Update(msg tea.Msg) (DiscoveryModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManual(msg)
		}
		return m.updateNormal(msg)

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.Portals.SetWidth(contentWidth(msg.Width) - 4)
		m.Portals.SetHeight(max(msg.Height-10, 6))
		return m, nil

	case scanStartMsg:
		m.Scanning = true
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.portals))
		for i, p := range msg.portals {
			items[i] = portalItem{portal: p}
		}
		return m, m.Portals.SetItems(items)

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DiscoveryModel) updateNormal(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.ManualErr = ""
		m.AddrInput.SetValue("")
		return m, m.AddrInput.Focus()

	case m.Scanning:
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		m.Scanning = true
		return m, tea.Batch(m.scanCmd(), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Enter):
		item, ok := m.Portals.SelectedItem().(portalItem)
		if !ok {
			return m, nil
		}
		return m, selectPortal(item.portal.Instance, item.portal.BaseURL())
	}

	var cmd tea.Cmd
	m.Portals, cmd = m.Portals.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManual(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.AddrInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		baseURL, err := manualBaseURL(m.AddrInput.Value())
		if err != nil {
			m.ManualErr = err.Error()
			return m, nil
		}
		m.ManualMode = false
		m.AddrInput.Blur()
		return m, selectPortal("Manual: "+strings.TrimPrefix(baseURL, "http://"), baseURL)
	}

	var cmd tea.Cmd
	m.AddrInput, cmd = m.AddrInput.Update(msg)
	return m, cmd
}

func selectPortal(name, baseURL string) tea.Cmd {
	return func() tea.Msg { return portalSelectedMsg{name: name, baseURL: baseURL} }
}

// manualBaseURL turns "host" or "host:port" into a portal URL. An empty
// entry means the access point default.
func manualBaseURL(entry string) (string, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		entry = provision.DefaultAddress
	}
	host, port := entry, strconv.Itoa(provision.DefaultPort)
	if h, p, err := net.SplitHostPort(entry); err == nil {
		host, port = h, p
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}
	if net.ParseIP(host) == nil && strings.ContainsAny(host, " /") {
		return "", fmt.Errorf("invalid host %q", host)
	}
	return "http://" + net.JoinHostPort(host, port), nil
}

// View renders the screen body.
func (m DiscoveryModel) View() string {
	var b strings.Builder

	if m.ManualMode {
		b.WriteString("Portal address (host or host:port)\n\n")
		b.WriteString(m.AddrInput.View())
		b.WriteString("\n")
		if m.ManualErr != "" {
			b.WriteString("\n" + ErrorTextStyle.Render(m.ManualErr) + "\n")
		}
		b.WriteString("\n" + m.Help.View(m.ManualKeys))
		return b.String()
	}

	switch {
	case m.Scanning:
		b.WriteString(m.Spinner.View() + " Browsing for setup portals...\n")
	case m.Err != nil:
		b.WriteString(ErrorTextStyle.Render("Discovery failed: "+m.Err.Error()) + "\n")
		b.WriteString(SubtitleStyle.Render("Press m to enter the address by hand.") + "\n")
	case len(m.Portals.Items()) == 0:
		b.WriteString(WarningTextStyle.Render("No setup portals found.") + "\n")
		b.WriteString(SubtitleStyle.Render("Join the device's setup network, then press r to rescan.") + "\n")
	default:
		b.WriteString(m.Portals.View() + "\n")
	}

	b.WriteString("\n" + m.Help.View(m.Keys))
	return b.String()
}
