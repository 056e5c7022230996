// Package input turns raw button edges into debounced ShortPress and
// LongPress events.
//
// HandleEdge is the interrupt side: it only reads the clock and stores
// atomics. Poll is the main-cycle side and the only consumer.
package input

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/logging"
)

// EventKind is a logical button event.
type EventKind int

const (
	ShortPress EventKind = iota + 1
	LongPress
)

func (k EventKind) String() string {
	switch k {
	case ShortPress:
		return "short_press"
	case LongPress:
		return "long_press"
	default:
		return "unknown"
	}
}

// Event is one resolved press cycle.
type Event struct {
	Kind EventKind
	Held time.Duration
}

// Config holds the button timing.
type Config struct {
	Debounce  time.Duration
	LongPress time.Duration
	ActiveLow bool
}

// pendingSlots bounds the press cycles resolved by the edge handler that
// Poll has not consumed yet.
const pendingSlots = 8

// Controller is the state machine of one button.
//
// State shared with the edge handler is kept in word-sized atomics. press
// carries a press sequence number with the held flag in the low bit, so a
// resolution that raced with a newer press fails its CompareAndSwap. raw
// packs the latest level with its timestamp. Presses resolved by the
// handler are queued in slots; Poll is the only consumer.
type Controller struct {
	clock    clock.PassiveClock
	cfg      Config
	activity *Latch

	lastAccepted atomic.Int64 // UnixNano of the last accepted edge, 0 = none
	pressStart   atomic.Int64
	press        atomic.Int64
	raw          atomic.Int64

	slots   [pendingSlots]atomic.Int64 // held durations, 0 = empty
	head    atomic.Uint64
	tail    atomic.Uint64
	dropped atomic.Int64
}

// NewController returns a controller signalling activity on latch.
func NewController(clk clock.PassiveClock, cfg Config, activity *Latch) *Controller {
	if activity == nil {
		activity = &Latch{}
	}
	return &Controller{clock: clk, cfg: cfg, activity: activity}
}

// Activity returns the latch accepted edges signal.
func (c *Controller) Activity() *Latch { return c.activity }

// Held reports whether a press is in progress.
func (c *Controller) Held() bool { return c.press.Load()&1 == 1 }

func packRaw(at int64, pressed bool) int64 {
	v := at << 1
	if pressed {
		v |= 1
	}
	return v
}

func unpackRaw(v int64) (at int64, pressed bool) {
	return v >> 1, v&1 == 1
}

// HandleEdge is called on every level change of the button pin with the new
// level. It never blocks.
func (c *Controller) HandleEdge(level bool) {
	now := c.clock.Now().UnixNano()
	pressed := level != c.cfg.ActiveLow
	prevAt, prevPressed := unpackRaw(c.raw.Swap(packRaw(now, pressed)))

	last := c.lastAccepted.Load()
	if last != 0 && time.Duration(now-last) < c.cfg.Debounce {
		return
	}

	p := c.press.Load()
	held := p&1 == 1
	switch {
	case pressed && !held:
		c.startPress(p, now)
	case pressed && !prevPressed:
		// The release before this press bounced inside the window and has
		// not been polled yet.
		if c.press.CompareAndSwap(p, p&^1) {
			c.enqueue(prevAt - c.pressStart.Load())
		}
		c.startPress(p, now)
	case !pressed && held && c.press.CompareAndSwap(p, p&^1):
		c.enqueue(now - c.pressStart.Load())
	default:
		// Repeated level, nothing to accept.
		return
	}
	c.lastAccepted.Store(now)
	c.activity.Signal()
}

func (c *Controller) startPress(p, now int64) {
	c.pressStart.Store(now)
	c.press.Store(p&^1 + 3)
}

func (c *Controller) enqueue(held int64) {
	held = max(held, 1)
	for {
		t := c.tail.Load()
		if t-c.head.Load() >= pendingSlots {
			c.dropped.Add(1)
			return
		}
		if c.tail.CompareAndSwap(t, t+1) {
			c.slots[t%pendingSlots].Store(held)
			return
		}
	}
}

// Poll returns the press cycles completed since the previous call, oldest
// first.
//
// A release that arrived inside the debounce window was not accepted as an
// edge; once the window has passed and the latched level still reads
// released, the press is resolved here with the release time of that edge.
func (c *Controller) Poll() []Event {
	var events []Event

	for h := c.head.Load(); h < c.tail.Load(); h++ {
		d := c.slots[h%pendingSlots].Swap(0)
		if d == 0 {
			break
		}
		c.head.Store(h + 1)
		events = append(events, c.classify(time.Duration(d)))
	}

	if p := c.press.Load(); p&1 == 1 {
		start := c.pressStart.Load()
		at, pressed := unpackRaw(c.raw.Load())
		now := c.clock.Now().UnixNano()
		if !pressed && time.Duration(now-c.lastAccepted.Load()) >= c.cfg.Debounce && c.press.CompareAndSwap(p, p&^1) {
			events = append(events, c.classify(time.Duration(max(at-start, 1))))
		}
	}

	if n := c.dropped.Swap(0); n > 0 {
		logging.Warn("Button presses dropped", zap.Int64("count", n))
	}
	for _, ev := range events {
		logging.LogButton(ev.Kind.String(), ev.Held.Milliseconds())
	}
	return events
}

func (c *Controller) classify(held time.Duration) Event {
	if held >= c.cfg.LongPress {
		return Event{Kind: LongPress, Held: held}
	}
	return Event{Kind: ShortPress, Held: held}
}
