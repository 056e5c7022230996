package sleep

import (
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/muurk/wifistat/internal/input"
)

func TestScheduler_FiresOnceAtDeadline(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(1700000000, 0))
	s := NewScheduler(clk, 60*time.Second, nil)

	clk.Step(59999 * time.Millisecond)
	if s.Check() {
		t.Fatal("Check() fired before the deadline")
	}

	clk.Step(time.Millisecond)
	if !s.Check() {
		t.Fatal("Check() did not fire at 60000ms")
	}

	for i := 0; i < 5; i++ {
		clk.Step(10 * time.Second)
		if s.Check() {
			t.Fatal("Check() fired more than once")
		}
	}
}

func TestScheduler_ActivityDelaysDeadline(t *testing.T) {
	tests := []struct {
		name       string
		activityAt time.Duration
	}{
		{"early", time.Second},
		{"midway", 30 * time.Second},
		{"last millisecond", 59999 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := testingclock.NewFakeClock(time.Unix(1700000000, 0))
			latch := &input.Latch{}
			s := NewScheduler(clk, 60*time.Second, latch)

			clk.Step(tt.activityAt)
			latch.Signal()
			if s.Check() {
				t.Fatal("Check() fired while consuming activity")
			}

			clk.Step(60*time.Second - tt.activityAt)
			if s.Check() {
				t.Fatal("Check() fired at 60000ms despite activity")
			}

			clk.Step(tt.activityAt - time.Millisecond)
			if s.Check() {
				t.Fatal("Check() fired before the moved deadline")
			}
			clk.Step(time.Millisecond)
			if !s.Check() {
				t.Fatal("Check() did not fire at the moved deadline")
			}
		})
	}
}

func TestScheduler_ActivitySignalledBetweenChecks(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(1700000000, 0))
	latch := &input.Latch{}
	s := NewScheduler(clk, 60*time.Second, latch)

	// Signalled before the deadline but observed after it: not lost.
	clk.Step(59 * time.Second)
	latch.Signal()
	clk.Step(2 * time.Second)
	if s.Check() {
		t.Fatal("pending activity must be consumed before the deadline test")
	}
	if got := s.Deadline().Sub(clk.Now()); got != 60*time.Second {
		t.Errorf("time to deadline = %v, want 60s", got)
	}
}

func TestNewScheduler_DefaultTimeout(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Unix(1700000000, 0))
	s := NewScheduler(clk, 0, nil)
	if got := s.Deadline().Sub(clk.Now()); got != DefaultTimeout {
		t.Errorf("deadline in %v, want %v", got, DefaultTimeout)
	}
}
