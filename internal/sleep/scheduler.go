// Package sleep tracks user inactivity and decides when the device powers
// down.
package sleep

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/input"
	"github.com/muurk/wifistat/internal/logging"
	"go.uber.org/zap"
)

// DefaultTimeout is the idle time after which the device sleeps.
const DefaultTimeout = 60 * time.Second

// Scheduler owns the idle deadline. It is driven from the main cycle only;
// producers reach it through the activity latch.
type Scheduler struct {
	clock    clock.PassiveClock
	timeout  time.Duration
	activity *input.Latch

	lastActivity time.Time
	fired        bool
}

// NewScheduler starts the idle clock at the current time.
func NewScheduler(clk clock.PassiveClock, timeout time.Duration, activity *input.Latch) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if activity == nil {
		activity = &input.Latch{}
	}
	return &Scheduler{
		clock:        clk,
		timeout:      timeout,
		activity:     activity,
		lastActivity: clk.Now(),
	}
}

// Check consumes pending activity and reports true exactly once, on the
// first call at or after the idle deadline.
func (s *Scheduler) Check() bool {
	if s.fired {
		return false
	}
	if s.activity.Take() {
		s.lastActivity = s.clock.Now()
		return false
	}
	if s.clock.Since(s.lastActivity) < s.timeout {
		return false
	}
	s.fired = true
	logging.Info("Idle timeout reached",
		zap.Duration("timeout", s.timeout),
		zap.Time("last_activity", s.lastActivity),
	)
	return true
}

// Deadline is when the device sleeps if no further activity arrives.
func (s *Scheduler) Deadline() time.Time {
	return s.lastActivity.Add(s.timeout)
}
