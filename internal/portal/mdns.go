package portal

import (
	"fmt"
	"strings"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/version"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service the portal registers.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."

	// InstancePrefix starts every advertised instance name.
	InstancePrefix = "wifistat-"
)

// InstanceName is the mDNS instance for an access point identity.
func InstanceName(ssid string) string {
	if strings.HasPrefix(ssid, InstancePrefix) {
		return ssid
	}
	return InstancePrefix + ssid
}

// Advertiser keeps an mDNS registration alive.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance as an HTTP service on port.
func Advertise(instance string, port int) (*Advertiser, error) {
	txt := []string{"path=/", "version=" + version.Version}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Portal advertised",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: server}, nil
}

// Close withdraws the registration.
func (a *Advertiser) Close() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}
