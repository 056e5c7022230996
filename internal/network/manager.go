// Package network owns the radio mode: access point for setup, or a client
// join with a fixed retry budget.
package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/credentials"
	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/radio"
	"go.uber.org/zap"
)

const (
	// DefaultJoinAttempts is the client join budget.
	DefaultJoinAttempts = 20

	// DefaultJoinInterval is the fixed wait between join attempts.
	DefaultJoinInterval = time.Second
)

// ErrJoinExhausted is returned when the radio did not report a connection
// within the whole join budget.
var ErrJoinExhausted = errors.New("network join attempts exhausted")

// State is the manager's radio mode.
type State int

const (
	StateIdle State = iota
	StateAccessPoint
	StateJoining
	StateJoined
	StateJoinFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccessPoint:
		return "access_point"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateJoinFailed:
		return "join_failed"
	default:
		return "unknown"
	}
}

// LinkInfo is a snapshot of the client link read straight from the radio.
type LinkInfo struct {
	Connected bool
	SSID      string
	RSSI      int
	Channel   int
	BSSID     string
	LocalAddr string
	Gateway   string
}

// Config is the join retry policy.
type Config struct {
	JoinAttempts int
	JoinInterval time.Duration
}

// Manager drives the radio. It is used from the main cycle only.
type Manager struct {
	clock clock.Clock
	radio radio.Radio
	store *credentials.Store
	cfg   Config

	state State
	ssid  string
}

// NewManager returns an idle manager.
func NewManager(clk clock.Clock, r radio.Radio, store *credentials.Store, cfg Config) *Manager {
	if cfg.JoinAttempts <= 0 {
		cfg.JoinAttempts = DefaultJoinAttempts
	}
	if cfg.JoinInterval <= 0 {
		cfg.JoinInterval = DefaultJoinInterval
	}
	return &Manager{clock: clk, radio: r, store: store, cfg: cfg}
}

// State returns the current mode.
func (m *Manager) State() State { return m.state }

func (m *Manager) setState(s State) {
	if s == m.state {
		return
	}
	logging.LogTransition("network", m.state.String(), s.String())
	m.state = s
}

// StartAccessPoint tells the radio to advertise the setup network.
func (m *Manager) StartAccessPoint(ap radio.AccessPoint) error {
	if err := m.radio.StartAccessPoint(ap); err != nil {
		return fmt.Errorf("start access point %q: %w", ap.SSID, err)
	}
	m.ssid = ap.SSID
	m.setState(StateAccessPoint)
	logging.Info("Access point started",
		zap.String("ssid", ap.SSID),
		zap.String("address", ap.Address),
	)
	return nil
}

// JoinAsClient joins the network in creds, checking the radio once per
// interval for up to the configured number of attempts. onAttempt, if set,
// is called with the attempt number before each wait.
//
// The wait between attempts is not interruptible; ctx is checked between
// attempts.
func (m *Manager) JoinAsClient(ctx context.Context, creds credentials.Credentials, onAttempt func(attempt, max int)) error {
	m.ssid = creds.NetworkName
	m.setState(StateJoining)

	begun := false
	for attempt := 1; attempt <= m.cfg.JoinAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			m.setState(StateIdle)
			return err
		}
		if !begun {
			if err := m.radio.Begin(creds.NetworkName, creds.Secret); err != nil {
				logging.Warn("Radio refused join", zap.String("ssid", creds.NetworkName), zap.Error(err))
			} else {
				begun = true
			}
		}
		if onAttempt != nil {
			onAttempt(attempt, m.cfg.JoinAttempts)
		}

		m.clock.Sleep(m.cfg.JoinInterval)

		status := m.radio.Status()
		logging.Debug("Join attempt",
			zap.Int("attempt", attempt),
			zap.Int("max", m.cfg.JoinAttempts),
			zap.String("status", status.String()),
		)
		if status == radio.StatusConnected {
			m.setState(StateJoined)
			logging.Info("Joined network",
				zap.String("ssid", creds.NetworkName),
				zap.Int("attempts", attempt),
				zap.String("address", m.radio.LocalAddr()),
			)
			return nil
		}
	}

	m.setState(StateJoinFailed)
	logging.Warn("Join failed",
		zap.String("ssid", creds.NetworkName),
		zap.Int("attempts", m.cfg.JoinAttempts),
	)
	return fmt.Errorf("join %q: %w", creds.NetworkName, ErrJoinExhausted)
}

// Joined reports whether the client link is up right now.
func (m *Manager) Joined() bool {
	return m.state == StateJoined && m.radio.Status() == radio.StatusConnected
}

// Link reads the current link state from the radio.
func (m *Manager) Link() LinkInfo {
	info := LinkInfo{SSID: m.ssid}
	if m.state != StateJoined || m.radio.Status() != radio.StatusConnected {
		return info
	}
	info.Connected = true
	info.RSSI = m.radio.RSSI()
	info.Channel = m.radio.Channel()
	info.BSSID = m.radio.BSSID()
	info.LocalAddr = m.radio.LocalAddr()
	info.Gateway = m.radio.Gateway()
	return info
}

// ForgetCredentials erases the stored record after a failed join.
func (m *Manager) ForgetCredentials() error {
	if err := m.store.Erase(); err != nil {
		return fmt.Errorf("forget credentials: %w", err)
	}
	logging.Info("Stored credentials erased", zap.String("ssid", m.ssid))
	return nil
}

// Shutdown stops the access point or drops the client link.
func (m *Manager) Shutdown() error {
	var err error
	switch m.state {
	case StateAccessPoint:
		err = m.radio.StopAccessPoint()
	case StateJoining, StateJoined, StateJoinFailed:
		err = m.radio.Disconnect()
	}
	m.setState(StateIdle)
	if err != nil {
		return fmt.Errorf("radio shutdown: %w", err)
	}
	return nil
}
