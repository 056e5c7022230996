package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Portal is a discovered setup portal.
type Portal struct {
	// Instance is the mDNS instance name (e.g., "wifistat-setup")
	Instance string

	// Hostname is the advertised host (e.g., "wifistat.local.")
	Hostname string

	// IP is the portal address, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Metadata holds the TXT record ("path", "version")
	Metadata map[string]string

	// DiscoveredAt is when the portal answered
	DiscoveredAt time.Time
}

// String returns a human-readable description
func (p *Portal) String() string {
	return fmt.Sprintf("%s at %s", p.Instance, net.JoinHostPort(p.IP, strconv.Itoa(p.Port)))
}

// BaseURL returns the HTTP base URL of the portal
func (p *Portal) BaseURL() string {
	return "http://" + net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// Version returns the firmware version from the TXT record, if any
func (p *Portal) Version() string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata["version"]
}
