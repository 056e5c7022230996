// Package display renders the device's text pages.
//
// A Display is the driver contract: clear, set cursor, print, flush and
// power off. Grid implements the text layout shared by the host backends;
// Presenter is the single entry point the device uses to show a page.
package display

import (
	"errors"
	"strings"
	"sync"
)

// Text grid of the device panel.
const (
	Columns = 21
	Rows    = 8
)

// Display is the driver contract.
type Display interface {
	Clear()
	SetCursor(col, row int)
	Print(text string)
	Flush() error
	PowerOff() error
}

// Frame is what the panel shows after a flush.
type Frame struct {
	Lines []string `json:"lines"`
	Off   bool     `json:"off"`
}

// Text joins the frame lines with trailing blank lines removed.
func (f Frame) Text() string {
	lines := f.Lines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// Grid is a Columns x Rows character buffer with a cursor. Text past the
// last column wraps; text past the last row is dropped.
type Grid struct {
	cells    [Rows][Columns]rune
	col, row int
}

// Clear blanks the buffer and homes the cursor.
func (g *Grid) Clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.col, g.row = 0, 0
}

// SetCursor moves the cursor, clamped to the grid.
func (g *Grid) SetCursor(col, row int) {
	g.col = min(max(col, 0), Columns-1)
	g.row = min(max(row, 0), Rows-1)
}

// Print writes text at the cursor.
func (g *Grid) Print(text string) {
	for _, r := range text {
		if r == '\n' {
			g.col = 0
			g.row++
			continue
		}
		if r == '\r' {
			continue
		}
		if g.col >= Columns {
			g.col = 0
			g.row++
		}
		if g.row >= Rows {
			return
		}
		g.cells[g.row][g.col] = r
		g.col++
	}
}

// Lines returns the buffer rows with trailing spaces trimmed.
func (g *Grid) Lines() []string {
	lines := make([]string, Rows)
	for r := range g.cells {
		s := strings.TrimRight(string(g.cells[r][:]), " \x00")
		lines[r] = strings.ReplaceAll(s, "\x00", " ")
	}
	return lines
}

// Memory is a Display that keeps every flushed frame. The simulator reads
// it from other goroutines, so access is locked.
type Memory struct {
	mu     sync.Mutex
	grid   Grid
	frames []Frame
	off    bool

	FailFlush error
}

// NewMemory returns a blank in-memory display.
func NewMemory() *Memory {
	m := &Memory{}
	m.grid.Clear()
	return m
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid.Clear()
}

func (m *Memory) SetCursor(col, row int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid.SetCursor(col, row)
}

func (m *Memory) Print(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid.Print(text)
}

func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFlush != nil {
		return m.FailFlush
	}
	m.off = false
	m.frames = append(m.frames, Frame{Lines: m.grid.Lines()})
	return nil
}

func (m *Memory) PowerOff() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.off = true
	m.frames = append(m.frames, Frame{Off: true})
	return nil
}

// Frames returns a copy of every frame flushed so far.
func (m *Memory) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Frame(nil), m.frames...)
}

// Texts returns the text of every lit frame, in order.
func (m *Memory) Texts() []string {
	var out []string
	for _, f := range m.Frames() {
		if !f.Off {
			out = append(out, f.Text())
		}
	}
	return out
}

// Last returns the most recent frame.
func (m *Memory) Last() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return Frame{}
	}
	return m.frames[len(m.frames)-1]
}

// IsOff reports whether the panel was powered off after the last flush.
func (m *Memory) IsOff() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.off
}

// Multi fans every call out to several displays.
type Multi []Display

func (m Multi) Clear() {
	for _, d := range m {
		d.Clear()
	}
}

func (m Multi) SetCursor(col, row int) {
	for _, d := range m {
		d.SetCursor(col, row)
	}
}

func (m Multi) Print(text string) {
	for _, d := range m {
		d.Print(text)
	}
}

func (m Multi) Flush() error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.Flush())
	}
	return errors.Join(errs...)
}

func (m Multi) PowerOff() error {
	var errs []error
	for _, d := range m {
		errs = append(errs, d.PowerOff())
	}
	return errors.Join(errs...)
}
