package display

import (
	"fmt"

	"github.com/muurk/wifistat/internal/logging"
	"go.uber.org/zap"
)

// Presenter shows one page at a time on a Display.
type Presenter struct {
	d       Display
	current string
	shown   bool
	off     bool
}

// NewPresenter wraps a display driver.
func NewPresenter(d Display) *Presenter {
	return &Presenter{d: d}
}

// Show renders text from the top-left corner and flushes. Showing the text
// already on screen is a no-op.
func (p *Presenter) Show(text string) error {
	if p.shown && !p.off && text == p.current {
		return nil
	}
	p.d.Clear()
	p.d.SetCursor(0, 0)
	p.d.Print(text)
	if err := p.d.Flush(); err != nil {
		logging.Warn("Display flush failed", zap.Error(err))
		return fmt.Errorf("display flush: %w", err)
	}
	p.current = text
	p.shown = true
	p.off = false
	return nil
}

// Current returns the text on screen.
func (p *Presenter) Current() string { return p.current }

// PowerOff blanks the panel. The next Show lights it again.
func (p *Presenter) PowerOff() error {
	p.off = true
	if err := p.d.PowerOff(); err != nil {
		return fmt.Errorf("display power off: %w", err)
	}
	return nil
}
