package scanner

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/go-ping/ping"
)

// PingScanner performs ICMP liveness checks
type PingScanner struct {
	privileged bool
}

// NewPingScanner creates a ping scanner. ICMP needs raw sockets, so without
// them every check reports not alive and the probe relies on port checks.
func NewPingScanner() *PingScanner {
	privileged := os.Geteuid() == 0 || canUseRawSocket()
	return &PingScanner{privileged: privileged}
}

// Alive sends a single echo request
func (ps *PingScanner) Alive(ctx context.Context, ip string, timeout time.Duration) (bool, error) {
	if !ps.privileged {
		return false, nil
	}

	pinger, err := ping.NewPinger(ip)
	if err != nil {
		return false, fmt.Errorf("creating pinger: %w", err)
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(true)

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case err := <-done:
		if err != nil {
			return false, fmt.Errorf("pinging %s: %w", ip, err)
		}
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return false, ctx.Err()
	}

	return pinger.Statistics().PacketsRecv > 0, nil
}

// canUseRawSocket checks if we can use raw sockets
func canUseRawSocket() bool {
	conn, err := net.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
