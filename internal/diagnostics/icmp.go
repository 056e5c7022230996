package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ErrNoReply is returned when the echo timed out.
var ErrNoReply = errors.New("no echo reply")

// ICMPProber sends echo requests with pro-bing. Unprivileged mode uses UDP
// ping sockets, which on Linux needs net.ipv4.ping_group_range to include
// the process group.
type ICMPProber struct {
	Privileged bool
}

// Probe implements Prober.
func (p ICMPProber) Probe(ctx context.Context, addr string, timeout time.Duration) (time.Duration, error) {
	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", addr, err)
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(p.Privileged)

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			return 0, fmt.Errorf("ping %s: %w", addr, err)
		}
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return 0, ctx.Err()
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("ping %s: %w", addr, ErrNoReply)
	}
	return stats.AvgRtt, nil
}
