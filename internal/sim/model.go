// Package sim runs the device state machine behind a full-screen terminal
// simulator: the display is drawn as a panel and the keyboard drives the
// button.
package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wifistat/internal/display"
	"github.com/muurk/wifistat/internal/version"
)

const holdTick = 100 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

// Button is the edge sink the keyboard drives.
type Button interface {
	HandleEdge(level bool)
}

// Options configures the model.
type Options struct {
	ActiveLow bool
	Debounce  time.Duration
	LongPress time.Duration
	PanelURL  string // Shown in the footer when the websocket panel runs
}

type (
	frameMsg   display.Frame
	haltedMsg  struct{ err error }
	releaseMsg struct{ seq int }
	holdMsg    struct{ seq int }
)

// Model is the bubbletea model of the simulator.
type Model struct {
	frames <-chan display.Frame
	halted <-chan error
	button Button
	opts   Options

	frame     display.Frame
	pressing  bool
	pressedAt time.Time
	seq       int
	now       func() time.Time

	hold     progress.Model
	keys     keyMap
	help     help.Model
	done     bool
	err      error
	quitting bool
}

// NewModel returns a model reading frames and the controller's exit status.
func NewModel(frames <-chan display.Frame, halted <-chan error, button Button, opts Options) Model {
	return Model{
		frames: frames,
		halted: halted,
		button: button,
		opts:   opts,
		frame:  display.Frame{Lines: make([]string, display.Rows)},
		now:    time.Now,
		hold:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(display.Columns+4)),
		keys:   newKeyMap(),
		help:   help.New(),
	}
}

func waitForFrame(frames <-chan display.Frame) tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-frames)
	}
}

func waitForHalt(halted <-chan error) tea.Cmd {
	return func() tea.Msg {
		return haltedMsg{err: <-halted}
	}
}

// Init starts listening for frames and for the controller to stop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.frames), waitForHalt(m.halted))
}

// Update handles keys, frames and the hold timer.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.frame = display.Frame(msg)
		return m, waitForFrame(m.frames)

	case haltedMsg:
		m.done = true
		m.err = msg.err
		m.pressing = false
		return m, nil

	case holdMsg:
		if !m.pressing || msg.seq != m.seq {
			return m, nil
		}
		return m, m.holdTick()

	case releaseMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.release()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.pressing {
			m.release()
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.done {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if m.pressing {
			m.release()
			return m, nil
		}
		m.press()
		return m, m.holdTick()

	case key.Matches(msg, m.keys.Short):
		return m.pressFor(m.opts.Debounce + 300*time.Millisecond)

	case key.Matches(msg, m.keys.Long):
		return m.pressFor(m.opts.LongPress + 200*time.Millisecond)
	}
	return m, nil
}

// pressFor holds the button for d and releases it.
func (m Model) pressFor(d time.Duration) (tea.Model, tea.Cmd) {
	if m.pressing {
		return m, nil
	}
	m.press()
	seq := m.seq
	return m, tea.Batch(
		m.holdTick(),
		tea.Tick(d, func(time.Time) tea.Msg { return releaseMsg{seq: seq} }),
	)
}

func (m *Model) press() {
	m.seq++
	m.pressing = true
	m.pressedAt = m.now()
	m.button.HandleEdge(!m.opts.ActiveLow)
}

func (m *Model) release() {
	if !m.pressing {
		return
	}
	m.seq++
	m.pressing = false
	m.button.HandleEdge(m.opts.ActiveLow)
}

func (m Model) holdTick() tea.Cmd {
	seq := m.seq
	return tea.Tick(holdTick, func(time.Time) tea.Msg { return holdMsg{seq: seq} })
}

// holdFraction is the share of the long press threshold held so far.
func (m Model) holdFraction() float64 {
	if !m.pressing || m.opts.LongPress <= 0 {
		return 0
	}
	return min(float64(m.now().Sub(m.pressedAt))/float64(m.opts.LongPress), 1)
}

// View renders the panel, the hold bar and the help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("wifistat simulator %s", version.Short())))
	b.WriteString("\n")
	b.WriteString(display.RenderFrame(m.frame))
	b.WriteString("\n\n")

	label := "button released"
	if m.pressing {
		label = "button held"
		if m.holdFraction() >= 1 {
			label = "button held, release to reset"
		}
	}
	b.WriteString(m.hold.ViewAs(m.holdFraction()))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(label))
	b.WriteString("\n")

	if m.opts.PanelURL != "" {
		b.WriteString(statusStyle.Render("panel: " + m.opts.PanelURL))
		b.WriteString("\n")
	}
	if m.done {
		if m.err != nil {
			b.WriteString(errorStyle.Render("device stopped: " + m.err.Error()))
		} else {
			b.WriteString(statusStyle.Render("device halted, press q to exit"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
