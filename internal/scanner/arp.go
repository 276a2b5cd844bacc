package scanner

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/j-keck/arping"
)

// ARPScanner resolves MAC addresses on the local segment
type ARPScanner struct{}

// NewARPScanner sets the arping reply timeout, which is package-global in arping
func NewARPScanner(timeout time.Duration) *ARPScanner {
	if timeout > 0 {
		arping.SetTimeout(timeout)
	}
	return &ARPScanner{}
}

type arpResult struct {
	mac net.HardwareAddr
	err error
}

// GetMAC returns the MAC address answering for an IPv4 address. Printers on a
// routed subnet never answer and time out.
func (as *ARPScanner) GetMAC(ctx context.Context, ip string) (string, error) {
	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return "", fmt.Errorf("arping needs an IPv4 address, got %q", ip)
	}

	done := make(chan arpResult, 1)
	go func() {
		mac, _, err := arping.Ping(addr)
		done <- arpResult{mac: mac, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("arping %s: %w", ip, res.err)
		}
		return res.mac.String(), nil
	}
}
