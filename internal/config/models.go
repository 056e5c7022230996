package config

import (
	"time"
)

// Config is the on-disk device configuration.
// Every field has a default (see Default); the file only needs the values
// that differ.
type Config struct {
	Version     int         `yaml:"version"`
	Timing      Timing      `yaml:"timing"`
	Button      Button      `yaml:"button"`
	AccessPoint AccessPoint `yaml:"access_point"`
	Storage     Storage     `yaml:"storage"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
	Portal      Portal      `yaml:"portal"`
	Panel       Panel       `yaml:"panel"`
	Radio       Radio       `yaml:"radio"`
}

// Timing holds every interval the device state machine uses.
type Timing struct {
	Debounce     time.Duration `yaml:"debounce"`      // Minimum gap between accepted button edges
	LongPress    time.Duration `yaml:"long_press"`    // Hold time that turns a press into a factory reset
	IdleTimeout  time.Duration `yaml:"idle_timeout"`  // Inactivity before the device powers down
	PingPeriod   time.Duration `yaml:"ping_period"`   // Diagnostics probe period
	PingTimeout  time.Duration `yaml:"ping_timeout"`  // Single echo timeout
	JoinAttempts int           `yaml:"join_attempts"` // Client join budget
	JoinInterval time.Duration `yaml:"join_interval"` // Fixed wait between join attempts
	PollInterval time.Duration `yaml:"poll_interval"` // Main cycle cadence
}

// Button describes the single physical input.
type Button struct {
	ActiveLow bool `yaml:"active_low"` // Pulled up, pressed reads low
}

// AccessPoint is the fallback identity advertised while no credentials exist.
type AccessPoint struct {
	SSID    string `yaml:"ssid"`
	Secret  string `yaml:"secret"`
	Address string `yaml:"address"`
	Gateway string `yaml:"gateway"`
	Subnet  string `yaml:"subnet"`
}

// Storage selects where the credential record lives.
type Storage struct {
	Dir   string `yaml:"dir,omitempty"` // Empty = <config dir>/data
	Codec string `yaml:"codec"`         // "json" or "yaml"
}

// Diagnostics configures the reachability probes.
type Diagnostics struct {
	PublicHost string `yaml:"public_host"`
	Privileged bool   `yaml:"privileged"` // Raw ICMP sockets instead of unprivileged UDP pings
}

// Portal configures the setup HTTP server.
type Portal struct {
	Listen string `yaml:"listen"` // Empty disables the listener
	MDNS   bool   `yaml:"mdns"`   // Advertise the portal as _http._tcp
}

// Panel configures the websocket display mirror.
type Panel struct {
	Listen string `yaml:"listen,omitempty"` // Empty disables the panel
}

// Radio configures the simulated radio used by host builds.
type Radio struct {
	JoinDelay time.Duration `yaml:"join_delay"`
	Networks  []Network     `yaml:"networks,omitempty"`
}

// Network is one network the simulated radio can see.
type Network struct {
	SSID    string `yaml:"ssid"`
	Secret  string `yaml:"secret"`
	RSSI    int    `yaml:"rssi"`
	Channel int    `yaml:"channel"`
	BSSID   string `yaml:"bssid"`
	Address string `yaml:"address"`
	Gateway string `yaml:"gateway"`
}

// Default returns the configuration the firmware ships with.
func Default() *Config {
	return &Config{
		Version: 1,
		Timing: Timing{
			Debounce:     500 * time.Millisecond,
			LongPress:    3 * time.Second,
			IdleTimeout:  60 * time.Second,
			PingPeriod:   5 * time.Second,
			PingTimeout:  time.Second,
			JoinAttempts: 20,
			JoinInterval: time.Second,
			PollInterval: 10 * time.Millisecond,
		},
		Button: Button{ActiveLow: true},
		AccessPoint: AccessPoint{
			SSID:    "wifistat-setup",
			Secret:  "configureme",
			Address: "192.168.4.1",
			Gateway: "192.168.4.1",
			Subnet:  "255.255.255.0",
		},
		Storage: Storage{Codec: "json"},
		Diagnostics: Diagnostics{
			PublicHost: "1.1.1.1",
		},
		Portal: Portal{
			Listen: "127.0.0.1:8080",
			MDNS:   false,
		},
		Radio: Radio{
			JoinDelay: 3 * time.Second,
		},
	}
}

// FindNetwork returns the simulated network with the given SSID.
func (r *Radio) FindNetwork(ssid string) *Network {
	for i := range r.Networks {
		if r.Networks[i].SSID == ssid {
			return &r.Networks[i]
		}
	}
	return nil
}
