package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/wifistat/internal/logging"
	"github.com/muurk/wifistat/internal/portal"
	"go.uber.org/zap"
)

const (
	// DefaultScanTimeout is the default browse duration
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 80
)

// Scanner browses for portals.
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan collects every portal that answers before the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Portal, error) {
	var (
		mu      sync.Mutex
		portals []*Portal
		seen    = map[string]bool{}
	)
	err := s.browse(ctx, func(p *Portal) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[p.Instance] {
			seen[p.Instance] = true
			portals = append(portals, p)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	return portals, nil
}

// WaitFor returns the portal with the given instance name as soon as it
// answers.
func (s *Scanner) WaitFor(ctx context.Context, instance string) (*Portal, error) {
	var (
		mu    sync.Mutex
		found *Portal
	)
	err := s.browse(ctx, func(p *Portal) bool {
		if p.Instance != instance {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if found == nil {
			found = p
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	if found == nil {
		return nil, fmt.Errorf("portal %s not found within %s", instance, s.Timeout)
	}
	return found, nil
}

// browse feeds parsed entries to visit until it returns true or the timeout
// passes. visit runs on a single goroutine, and browse returns only after
// it has finished.
func (s *Scanner) browse(ctx context.Context, visit func(*Portal) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			p := parseServiceEntry(entry)
			if p == nil {
				continue
			}
			logging.Debug("Portal discovered", zap.String("instance", p.Instance), zap.String("addr", p.IP))
			if visit(p) {
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, portal.ServiceType, portal.ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once the browse context ends.
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}

// parseServiceEntry converts a zeroconf entry to a Portal, or nil if the
// entry is not a wifistat portal.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Portal {
	if entry == nil || !strings.HasPrefix(entry.Instance, portal.InstancePrefix) {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Portal{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
