package scanner

import (
	"context"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"
)

// PrinterPorts maps the TCP ports a network label printer may expose to the
// service behind them
var PrinterPorts = map[int]string{
	9100: "RAW",
	631:  "IPP",
	515:  "LPD",
	80:   "HTTP",
	443:  "HTTPS",
}

// DefaultPorts returns the printer ports in ascending order
func DefaultPorts() []int {
	ports := make([]int, 0, len(PrinterPorts))
	for p := range PrinterPorts {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// PortScanner performs TCP connect checks
type PortScanner struct{}

// NewPortScanner creates a new port scanner
func NewPortScanner() *PortScanner {
	return &PortScanner{}
}

// OpenPorts returns the ports accepting TCP connections, in ascending order
func (ps *PortScanner) OpenPorts(ctx context.Context, ip string, ports []int, timeout time.Duration) []int {
	openPorts := []int{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	dialer := net.Dialer{Timeout: timeout}
	for _, port := range ports {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()

			conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(p)))
			if err != nil {
				return
			}
			conn.Close()
			mu.Lock()
			openPorts = append(openPorts, p)
			mu.Unlock()
		}(port)
	}

	wg.Wait()
	sort.Ints(openPorts)
	return openPorts
}

// ServiceNames names the services behind open printer ports
func ServiceNames(ports []int) []string {
	var services []string
	for _, p := range ports {
		if name, ok := PrinterPorts[p]; ok {
			services = append(services, name)
		}
	}
	return services
}
