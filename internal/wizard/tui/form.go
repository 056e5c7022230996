package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifistat/internal/credentials"
)

// submitMsg carries the entered credentials to AppModel.
type submitMsg struct {
	creds credentials.Credentials
}

type goBackMsg struct{}

// formKeyMap defines key bindings for the credentials screen
type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Back   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Submit, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev}, {k.Submit, k.Back}}
}

const (
	fieldNetwork = iota
	fieldSecret
	fieldCount
)

// FormModel collects the network name and secret.
type FormModel struct {
	Target string
	Inputs [fieldCount]textinput.Model
	Focus  int
	Err    string

	Help help.Model
	Keys formKeyMap
}

// NewFormModel returns an empty form for the named portal.
func NewFormModel(target string) FormModel {
	network := textinput.New()
	network.Placeholder = "HomeNetwork"
	network.CharLimit = 32
	network.Width = 32
	network.Prompt = ""
	network.Focus()

	secret := textinput.New()
	secret.Placeholder = "secret"
	secret.CharLimit = 64
	secret.Width = 32
	secret.Prompt = ""
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'

	return FormModel{
		Target: target,
		Inputs: [fieldCount]textinput.Model{network, secret},
		Help:   help.New(),
		Keys: formKeyMap{
			Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
			Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous")),
			Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
			Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		},
	}
}

// Init starts the cursor blink.
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Credentials returns the current field values.
func (m FormModel) Credentials() credentials.Credentials {
	return credentials.Credentials{
		NetworkName: strings.TrimSpace(m.Inputs[fieldNetwork].Value()),
		Secret:      m.Inputs[fieldSecret].Value(),
	}
}

// Update handles field navigation and submission.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.Keys.Back):
			return m, func() tea.Msg { return goBackMsg{} }

		case key.Matches(msg, m.Keys.Next):
			return m, m.setFocus((m.Focus + 1) % fieldCount)

		case key.Matches(msg, m.Keys.Prev):
			return m, m.setFocus((m.Focus + fieldCount - 1) % fieldCount)

		case key.Matches(msg, m.Keys.Submit):
			if m.Focus == fieldNetwork {
				return m, m.setFocus(fieldSecret)
			}
			creds := m.Credentials()
			switch {
			case creds.NetworkName == "":
				m.Err = "Network name is required"
				return m, m.setFocus(fieldNetwork)
			case creds.Secret == "":
				m.Err = "Secret is required"
				return m, nil
			}
			m.Err = ""
			return m, func() tea.Msg { return submitMsg{creds: creds} }
		}
	}

	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	return m, cmd
}

func (m *FormModel) setFocus(i int) tea.Cmd {
	m.Inputs[m.Focus].Blur()
	m.Focus = i
	return m.Inputs[i].Focus()
}

// View renders the form.
func (m FormModel) View() string {
	var b strings.Builder
	b.WriteString("Send network credentials to " + SelectedStyle.Render(m.Target) + "\n\n")
	b.WriteString(LabelStyle.Render("Network name") + m.Inputs[fieldNetwork].View() + "\n")
	b.WriteString(LabelStyle.Render("Secret") + m.Inputs[fieldSecret].View() + "\n")
	if m.Err != "" {
		b.WriteString("\n" + ErrorTextStyle.Render(m.Err) + "\n")
	}
	b.WriteString("\n" + m.Help.View(m.Keys))
	return b.String()
}
