// Package diagnostics measures reachability of the gateway and a public host
// while the device is joined to a network.
package diagnostics

import (
	"context"
	"errors"
	"time"

	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/network"
)

const (
	// DefaultPeriod is the probe period.
	DefaultPeriod = 5 * time.Second

	// DefaultTimeout bounds a single echo.
	DefaultTimeout = time.Second

	// DefaultPublicHost is probed alongside the gateway.
	DefaultPublicHost = "1.1.1.1"
)

// Probe targets.
const (
	TargetGateway = "gateway"
	TargetPublic  = "public"
)

// ErrNotJoined marks samples recorded without a probe because the link was
// down.
var ErrNotJoined = errors.New("not joined")

// ErrNoAddress marks a gateway sample when the radio reports no gateway.
var ErrNoAddress = errors.New("no address to probe")

// Sample is the latest result for one target. OK is false for a failed
// probe and for a round where the device was not joined.
type Sample struct {
	Target string
	Addr   string
	RTT    time.Duration
	OK     bool
	Err    error
	At     time.Time
}

// Prober sends a single echo and returns its round trip time.
type Prober interface {
	Probe(ctx context.Context, addr string, timeout time.Duration) (time.Duration, error)
}

// LinkSource reports the client link.
type LinkSource interface {
	Link() network.LinkInfo
}

// Config holds the probe schedule.
type Config struct {
	Period     time.Duration
	Timeout    time.Duration
	PublicHost string
}

// Monitor runs one probe round per period from the main cycle.
type Monitor struct {
	clock  clock.PassiveClock
	prober Prober
	link   LinkSource
	cfg    Config

	lastRound time.Time
	rounds    int
	gateway   Sample
	public    Sample
}

// NewMonitor returns a monitor whose first round is one period from now.
func NewMonitor(clk clock.PassiveClock, prober Prober, link LinkSource, cfg Config) *Monitor {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PublicHost == "" {
		cfg.PublicHost = DefaultPublicHost
	}
	return &Monitor{
		clock:     clk,
		prober:    prober,
		link:      link,
		cfg:       cfg,
		lastRound: clk.Now(),
		gateway:   Sample{Target: TargetGateway},
		public:    Sample{Target: TargetPublic, Addr: cfg.PublicHost},
	}
}

// Tick runs a probe round if a period has elapsed since the previous one and
// reports whether it did. Missed periods are not made up.
func (m *Monitor) Tick(ctx context.Context) bool {
	now := m.clock.Now()
	if now.Sub(m.lastRound) < m.cfg.Period {
		return false
	}
	m.lastRound = now
	m.rounds++

	link := m.link.Link()
	if !link.Connected {
		m.gateway = Sample{Target: TargetGateway, Addr: link.Gateway, Err: ErrNotJoined, At: now}
		m.public = Sample{Target: TargetPublic, Addr: m.cfg.PublicHost, Err: ErrNotJoined, At: now}
		logging.Debug("Diagnostics skipped, not joined")
		return true
	}

	m.gateway = m.probe(ctx, TargetGateway, link.Gateway)
	m.public = m.probe(ctx, TargetPublic, m.cfg.PublicHost)
	return true
}

func (m *Monitor) probe(ctx context.Context, target, addr string) Sample {
	s := Sample{Target: target, Addr: addr, At: m.clock.Now()}
	if addr == "" {
		s.Err = ErrNoAddress
		logging.LogProbe(target, addr, 0, s.Err)
		return s
	}
	rtt, err := m.prober.Probe(ctx, addr, m.cfg.Timeout)
	logging.LogProbe(target, addr, rtt.Milliseconds(), err)
	if err != nil {
		s.Err = err
		return s
	}
	s.RTT = rtt
	s.OK = true
	return s
}

// Samples returns the latest gateway and public host results.
func (m *Monitor) Samples() (gateway, public Sample) {
	return m.gateway, m.public
}

// Rounds counts completed probe rounds.
func (m *Monitor) Rounds() int { return m.rounds }
