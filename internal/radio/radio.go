// Package radio defines the contract of the wireless radio stack and a
// simulated implementation for host builds and tests.
package radio

import "errors"

// Status is the client link state as reported by the radio.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusNoNetwork
	StatusConnectFailed
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusNoNetwork:
		return "no_network"
	case StatusConnectFailed:
		return "connect_failed"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// AccessPoint is the identity the radio advertises in access point mode.
type AccessPoint struct {
	SSID    string
	Secret  string
	Address string
	Gateway string
	Subnet  string
}

// ErrBusy is returned when the radio is asked to switch mode while another
// mode is active.
var ErrBusy = errors.New("radio busy in another mode")

// Radio is the narrow surface the device needs from the radio stack.
//
// Begin starts an asynchronous join; progress is read through Status. All
// query methods read current radio state and return zero values when not
// connected.
type Radio interface {
	Begin(ssid, secret string) error
	Status() Status
	Disconnect() error

	StartAccessPoint(ap AccessPoint) error
	StopAccessPoint() error

	RSSI() int
	Channel() int
	BSSID() string
	LocalAddr() string
	Gateway() string
}
