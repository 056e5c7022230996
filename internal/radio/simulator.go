package radio

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/muurk/wifistat/internal/config"
	"github.com/muurk/wifistat/internal/logging"
	"go.uber.org/zap"
)

type simMode int

const (
	simOff simMode = iota
	simClient
	simAP
)

// Simulator is a Radio backed by a list of configured networks. A join
// succeeds JoinDelay after Begin when the network exists and the secret
// matches.
type Simulator struct {
	clock clock.PassiveClock

	mu        sync.Mutex
	joinDelay time.Duration
	networks  map[string]config.Network
	mode      simMode
	target    string
	secret    string
	begunAt   time.Time
	linkDown  bool
	ap        AccessPoint
	begins    int
}

// NewSimulator builds a simulator from the radio section of the config.
func NewSimulator(clk clock.PassiveClock, cfg config.Radio) *Simulator {
	s := &Simulator{
		clock:     clk,
		joinDelay: cfg.JoinDelay,
		networks:  make(map[string]config.Network, len(cfg.Networks)),
	}
	for _, n := range cfg.Networks {
		s.networks[n.SSID] = n
	}
	return s
}

// AddNetwork makes a network visible to later joins.
func (s *Simulator) AddNetwork(n config.Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[n.SSID] = n
}

// SetLinkDown simulates losing (true) or regaining the uplink.
func (s *Simulator) SetLinkDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkDown = down
}

// Begin implements Radio.
func (s *Simulator) Begin(ssid, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == simAP {
		return ErrBusy
	}
	s.mode = simClient
	s.target = ssid
	s.secret = secret
	s.begunAt = s.clock.Now()
	s.begins++
	logging.Debug("Radio join started", zap.String("ssid", ssid))
	return nil
}

// Begins counts calls to Begin.
func (s *Simulator) Begins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begins
}

// Status implements Radio.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Simulator) status() Status {
	if s.mode != simClient {
		return StatusIdle
	}
	n, ok := s.networks[s.target]
	if !ok {
		return StatusNoNetwork
	}
	if s.clock.Since(s.begunAt) < s.joinDelay {
		return StatusConnecting
	}
	if n.Secret != s.secret {
		return StatusConnectFailed
	}
	if s.linkDown {
		return StatusDisconnected
	}
	return StatusConnected
}

// Disconnect implements Radio.
func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == simClient {
		s.mode = simOff
		s.target = ""
		s.secret = ""
	}
	return nil
}

// StartAccessPoint implements Radio.
func (s *Simulator) StartAccessPoint(ap AccessPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == simClient {
		return ErrBusy
	}
	s.mode = simAP
	s.ap = ap
	logging.Debug("Radio advertising access point", zap.String("ssid", ap.SSID))
	return nil
}

// StopAccessPoint implements Radio.
func (s *Simulator) StopAccessPoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == simAP {
		s.mode = simOff
		s.ap = AccessPoint{}
	}
	return nil
}

// Advertising returns the active access point identity, if any.
func (s *Simulator) Advertising() (AccessPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ap, s.mode == simAP
}

// connected returns the joined network, or false.
func (s *Simulator) connected() (config.Network, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status() != StatusConnected {
		return config.Network{}, false
	}
	return s.networks[s.target], true
}

// RSSI implements Radio.
func (s *Simulator) RSSI() int {
	n, _ := s.connected()
	return n.RSSI
}

// Channel implements Radio.
func (s *Simulator) Channel() int {
	n, _ := s.connected()
	return n.Channel
}

// BSSID implements Radio.
func (s *Simulator) BSSID() string {
	n, _ := s.connected()
	return n.BSSID
}

// LocalAddr implements Radio.
func (s *Simulator) LocalAddr() string {
	n, _ := s.connected()
	return n.Address
}

// Gateway implements Radio.
func (s *Simulator) Gateway() string {
	n, _ := s.connected()
	return n.Gateway
}
