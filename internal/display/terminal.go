package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelColor = lipgloss.Color("#7D56F4")
	offColor   = lipgloss.Color("#626262")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelColor).
			Width(Columns).
			Padding(0, 1)

	offStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(offColor).
			Foreground(offColor).
			Width(Columns).
			Padding(0, 1)
)

// RenderFrame draws a frame as a bordered panel.
func RenderFrame(f Frame) string {
	if f.Off {
		lines := make([]string, Rows)
		lines[Rows/2-1] = centre("(display off)")
		return offStyle.Render(strings.Join(lines, "\n"))
	}
	lines := make([]string, Rows)
	copy(lines, f.Lines)
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func centre(s string) string {
	if pad := (Columns - len(s)) / 2; pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

// Terminal prints each flushed frame to a writer. Used by the headless host
// build.
type Terminal struct {
	w    io.Writer
	grid Grid
}

// NewTerminal returns a terminal display writing to w.
func NewTerminal(w io.Writer) *Terminal {
	t := &Terminal{w: w}
	t.grid.Clear()
	return t
}

func (t *Terminal) Clear()                 { t.grid.Clear() }
func (t *Terminal) SetCursor(col, row int) { t.grid.SetCursor(col, row) }
func (t *Terminal) Print(text string)      { t.grid.Print(text) }

func (t *Terminal) Flush() error {
	_, err := fmt.Fprintln(t.w, RenderFrame(Frame{Lines: t.grid.Lines()}))
	return err
}

func (t *Terminal) PowerOff() error {
	_, err := fmt.Fprintln(t.w, RenderFrame(Frame{Off: true}))
	return err
}
