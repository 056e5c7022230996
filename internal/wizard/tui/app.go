package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/discovery"
	"github.com/muurk/wifistat/internal/provision"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery   Screen = "discovery"
	ScreenCredentials Screen = "credentials"
	ScreenSending     Screen = "sending"
	ScreenSuccess     Screen = "success"
	ScreenFailure     Screen = "failure"
)

// Services are the network operations the wizard performs.
type Services struct {
	Scan      func(ctx context.Context) ([]*discovery.Portal, error)
	Provision func(ctx context.Context, baseURL string, creds credentials.Credentials) (string, error)
}

// DefaultServices browses with the mDNS scanner and sends with the
// provisioning client.
func DefaultServices() Services {
	return Services{
		Scan: func(ctx context.Context) ([]*discovery.Portal, error) {
			return discovery.NewScanner().Scan(ctx)
		},
		Provision: func(ctx context.Context, baseURL string, creds credentials.Credentials) (string, error) {
			return provision.NewClientWithURL(baseURL).Provision(ctx, creds)
		},
	}
}

type provisionDoneMsg struct {
	reply string
	err   error
}

// resultKeyMap defines key bindings for the result screens
type resultKeyMap struct {
	Retry    key.Binding
	Edit     key.Binding
	Discover key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k resultKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Edit, k.Discover, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k resultKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Retry, k.Edit, k.Discover, k.Quit}}
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	services Services

	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	FormModel      FormModel

	// Shared state
	TargetName string
	TargetURL  string
	Pending    credentials.Credentials
	Reply      string
	LastError  error

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    resultKeyMap
}

// NewAppModel starts at discovery, or at the credentials screen when
// baseURL is already known.
func NewAppModel(services Services, baseURL string) AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := AppModel{
		services:       services,
		CurrentScreen:  ScreenDiscovery,
		DiscoveryModel: NewDiscoveryModel(services.Scan),
		Spinner:        s,
		Help:           help.New(),
		Keys: resultKeyMap{
			Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
			Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
			Discover: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discover")),
			Quit:     key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		},
	}
	if baseURL != "" {
		m.TargetName = strings.TrimPrefix(baseURL, "http://")
		m.TargetURL = baseURL
		m.FormModel = NewFormModel(m.TargetName)
		m.CurrentScreen = ScreenCredentials
	}
	return m
}

// Init initializes the current screen.
func (m AppModel) Init() tea.Cmd {
	if m.CurrentScreen == ScreenCredentials {
		return m.FormModel.Init()
	}
	return m.DiscoveryModel.Init()
}

// Update routes messages to the active screen.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.DiscoveryModel, _ = m.DiscoveryModel.Update(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case portalSelectedMsg:
		m.TargetName, m.TargetURL = msg.name, msg.baseURL
		m.FormModel = NewFormModel(msg.name)
		m.CurrentScreen = ScreenCredentials
		return m, m.FormModel.Init()

	case goBackMsg:
		m.CurrentScreen = ScreenDiscovery
		return m, m.DiscoveryModel.Init()

	case submitMsg:
		m.Pending = msg.creds
		return m.send()

	case provisionDoneMsg:
		m.Reply, m.LastError = msg.reply, msg.err
		if msg.err != nil {
			m.CurrentScreen = ScreenFailure
		} else {
			m.CurrentScreen = ScreenSuccess
		}
		return m, nil

	case spinner.TickMsg:
		if m.CurrentScreen == ScreenSending {
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
	}

	switch m.CurrentScreen {
	case ScreenDiscovery:
		m.DiscoveryModel, cmd = m.DiscoveryModel.Update(msg)
	case ScreenCredentials:
		m.FormModel, cmd = m.FormModel.Update(msg)
	case ScreenSuccess, ScreenFailure:
		if msg, ok := msg.(tea.KeyMsg); ok {
			return m.updateResult(msg)
		}
	}
	return m, cmd
}

func (m AppModel) send() (tea.Model, tea.Cmd) {
	m.CurrentScreen = ScreenSending
	provisionFn, baseURL, creds := m.services.Provision, m.TargetURL, m.Pending
	return m, tea.Batch(m.Spinner.Tick, func() tea.Msg {
		reply, err := provisionFn(context.Background(), baseURL, creds)
		return provisionDoneMsg{reply: reply, err: err}
	})
}

func (m AppModel) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Retry) && m.CurrentScreen == ScreenFailure:
		return m.send()
	case key.Matches(msg, m.Keys.Edit):
		m.CurrentScreen = ScreenCredentials
		return m, m.FormModel.Init()
	case key.Matches(msg, m.Keys.Discover):
		m.CurrentScreen = ScreenDiscovery
		return m, m.DiscoveryModel.Init()
	}
	return m, nil
}

// View renders the header and the active screen.
func (m AppModel) View() string {
	var body string
	switch m.CurrentScreen {
	case ScreenDiscovery:
		body = m.DiscoveryModel.View()
	case ScreenCredentials:
		body = m.FormModel.View()
	case ScreenSending:
		body = fmt.Sprintf("%s Sending credentials for %q to %s...\n",
			m.Spinner.View(), m.Pending.NetworkName, m.TargetName)
	case ScreenSuccess:
		body = m.successView()
	case ScreenFailure:
		body = m.failureView()
	}
	return header() + "\n" + body
}

func (m AppModel) successView() string {
	box := SuccessBoxStyle.Width(contentWidth(m.Width) - 6).Render(
		"Credentials saved\n\n" + strings.TrimSpace(m.Reply),
	)
	return box + "\n\n" + m.Help.View(resultKeyMap{Edit: m.Keys.Edit, Discover: m.Keys.Discover, Quit: m.Keys.Quit})
}

func (m AppModel) failureView() string {
	var b strings.Builder
	b.WriteString("Provisioning failed\n\n")
	b.WriteString(ErrorTextStyle.Render(provision.ShortMessage(m.LastError)))
	if tips := provision.Troubleshooting(m.LastError); len(tips) > 0 {
		b.WriteString("\n")
		for _, tip := range tips {
			b.WriteString("\n• " + tip)
		}
	}
	box := ErrorBoxStyle.Width(contentWidth(m.Width) - 6).Render(b.String())
	return box + "\n\n" + m.Help.View(m.Keys)
}
