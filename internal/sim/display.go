package sim

import (
	"github.com/muurk/wifistat/internal/display"
)

const frameBuffer = 32

// Display is a display.Display whose frames are read by the simulator model.
// Flush never blocks; when the model falls behind the frame is dropped and
// the next flush carries the newer state.
type Display struct {
	grid   display.Grid
	frames chan display.Frame
}

// NewDisplay returns an empty simulator display.
func NewDisplay() *Display {
	d := &Display{frames: make(chan display.Frame, frameBuffer)}
	d.grid.Clear()
	return d
}

// Frames is the channel the model listens on.
func (d *Display) Frames() <-chan display.Frame { return d.frames }

func (d *Display) Clear()                 { d.grid.Clear() }
func (d *Display) SetCursor(col, row int) { d.grid.SetCursor(col, row) }
func (d *Display) Print(text string)      { d.grid.Print(text) }

func (d *Display) Flush() error {
	d.push(display.Frame{Lines: d.grid.Lines()})
	return nil
}

func (d *Display) PowerOff() error {
	d.push(display.Frame{Off: true})
	return nil
}

func (d *Display) push(f display.Frame) {
	select {
	case d.frames <- f:
	default:
	}
}
