package sim

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifistat/internal/display"
)

type edgeRecorder struct {
	levels []bool
}

func (r *edgeRecorder) HandleEdge(level bool) { r.levels = append(r.levels, level) }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func newTestModel(btn Button) Model {
	m := NewModel(make(chan display.Frame), make(chan error), btn, Options{
		ActiveLow: true,
		Debounce:  500 * time.Millisecond,
		LongPress: 3 * time.Second,
	})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func TestModel_SpaceTogglesButton(t *testing.T) {
	btn := &edgeRecorder{}
	m := newTestModel(btn)

	m, cmd := update(t, m, space)
	if !m.pressing {
		t.Fatal("first space did not press")
	}
	if cmd == nil {
		t.Error("press did not start the hold timer")
	}
	m, _ = update(t, m, space)
	if m.pressing {
		t.Fatal("second space did not release")
	}

	want := []bool{false, true}
	if len(btn.levels) != len(want) {
		t.Fatalf("edges = %v, want %v", btn.levels, want)
	}
	for i := range want {
		if btn.levels[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, btn.levels[i], want[i])
		}
	}
}

func TestModel_TimedPressReleases(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{name: "short", key: runes("s")},
		{name: "long", key: runes("l")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			btn := &edgeRecorder{}
			m := newTestModel(btn)

			m, _ = update(t, m, tt.key)
			if !m.pressing {
				t.Fatal("key did not press")
			}
			// A second timed press while held is ignored.
			m, _ = update(t, m, tt.key)

			m, _ = update(t, m, releaseMsg{seq: m.seq})
			if m.pressing {
				t.Error("release message did not release")
			}
			if len(btn.levels) != 2 {
				t.Errorf("edges = %v, want press and release", btn.levels)
			}
		})
	}
}

func TestModel_StaleReleaseIgnored(t *testing.T) {
	btn := &edgeRecorder{}
	m := newTestModel(btn)

	m, _ = update(t, m, runes("s"))
	stale := m.seq
	m, _ = update(t, m, space) // manual release
	m, _ = update(t, m, space) // manual press
	m, _ = update(t, m, releaseMsg{seq: stale})

	if !m.pressing {
		t.Error("stale release ended the newer press")
	}
}

func TestModel_HoldFraction(t *testing.T) {
	m := newTestModel(&edgeRecorder{})
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start
	m.now = func() time.Time { return now }

	m, _ = update(t, m, space)
	now = start.Add(1500 * time.Millisecond)
	if got := m.holdFraction(); got != 0.5 {
		t.Errorf("holdFraction() = %v, want 0.5", got)
	}
	now = start.Add(10 * time.Second)
	if got := m.holdFraction(); got != 1 {
		t.Errorf("holdFraction() = %v, want 1", got)
	}
	if !strings.Contains(m.View(), "release to reset") {
		t.Error("view does not warn about the reset threshold")
	}
}

func TestModel_FramesAndHalt(t *testing.T) {
	btn := &edgeRecorder{}
	m := newTestModel(btn)

	m, cmd := update(t, m, frameMsg(display.Frame{Lines: []string{"Setup mode"}}))
	if cmd == nil {
		t.Error("frame did not re-arm the listener")
	}
	if !strings.Contains(m.View(), "Setup mode") {
		t.Error("view does not show the frame")
	}

	m, _ = update(t, m, haltedMsg{err: errors.New("boom")})
	if !strings.Contains(m.View(), "device stopped: boom") {
		t.Error("view does not report the stop")
	}

	m, _ = update(t, m, space)
	if len(btn.levels) != 0 {
		t.Errorf("button driven after halt: %v", btn.levels)
	}

	_, cmd = update(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestDisplay_DropsWhenFull(t *testing.T) {
	d := NewDisplay()
	for i := 0; i < frameBuffer+5; i++ {
		d.Print("x")
		if err := d.Flush(); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
	}
	if got := len(d.Frames()); got != frameBuffer {
		t.Errorf("buffered frames = %d, want %d", got, frameBuffer)
	}
	if err := d.PowerOff(); err != nil {
		t.Errorf("PowerOff() error = %v", err)
	}
}
