package scanner

import (
	"context"
	"os"
	"time"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
)

const DefaultProbeTimeout = 2 * time.Second

// Pinger reports ICMP liveness
type Pinger interface {
	Alive(ctx context.Context, ip string, timeout time.Duration) (bool, error)
}

// MACResolver resolves a MAC address for a live host
type MACResolver interface {
	GetMAC(ctx context.Context, ip string) (string, error)
}

// Config controls the probe
type Config struct {
	Timeout time.Duration
	Ports   []int
	SNMP    *SNMPConfig
}

// Prober checks whether a printer is reachable and what state it reports.
// It only reads from the network and never changes fleet state.
type Prober struct {
	timeout     time.Duration
	ports       []int
	snmp        *SNMPConfig
	pinger      Pinger
	portScanner *PortScanner
	arp         MACResolver
	dialSNMP    SNMPDialer
	now         func() time.Time
}

// NewProber creates a prober. A nil SNMP config disables the SNMP stage.
func NewProber(cfg Config) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ports := cfg.Ports
	if len(ports) == 0 {
		ports = DefaultPorts()
	}
	return &Prober{
		timeout:     timeout,
		ports:       ports,
		snmp:        cfg.SNMP,
		pinger:      NewPingScanner(),
		portScanner: NewPortScanner(),
		arp:         NewARPScanner(timeout),
		dialSNMP:    DialSNMP,
		now:         time.Now,
	}
}

// Probe runs ping, port, ARP and SNMP checks against a printer
func (pr *Prober) Probe(ctx context.Context, p model.Printer) *model.PrinterStatus {
	status := &model.PrinterStatus{
		PrinterID: p.ID,
		Address:   p.Address,
		OpenPorts: []int{},
	}
	log.Debug("Probing printer", "printer_id", p.ID, "address", p.Address)

	if device, ok := model.DevicePath(p.Address); ok {
		// Locally attached: the device node is all there is to check
		_, err := os.Stat(device)
		status.Reachable = err == nil
		status.CheckedAt = pr.now().UTC()
		return status
	}
	host := model.NetworkHost(p.Address)
	if host == "" {
		status.CheckedAt = pr.now().UTC()
		return status
	}

	// Stage 1: ICMP (privileged only)
	alive, err := pr.pinger.Alive(ctx, host, pr.timeout)
	if err != nil {
		log.Debug("Ping failed", "address", host, "error", err)
	}
	status.PingOK = alive

	// Stage 2: printer ports, including the record's own port
	ports := pr.ports
	if p.Port > 0 && !containsPort(ports, p.Port) {
		ports = append(append([]int{}, ports...), p.Port)
	}
	status.OpenPorts = pr.portScanner.OpenPorts(ctx, host, ports, pr.timeout)
	status.Services = ServiceNames(status.OpenPorts)
	status.Reachable = alive || len(status.OpenPorts) > 0

	// Stage 3: MAC address
	if alive {
		if mac, err := pr.arp.GetMAC(ctx, host); err == nil {
			status.MACAddress = mac
		} else {
			log.Debug("ARP lookup failed", "address", host, "error", err)
		}
	}

	// Stage 4: SNMP status
	if pr.snmp != nil && status.Reachable {
		pr.querySNMP(host, status)
	}

	status.CheckedAt = pr.now().UTC()
	return status
}

func (pr *Prober) querySNMP(address string, status *model.PrinterStatus) {
	client, err := pr.dialSNMP(*pr.snmp, address, pr.timeout)
	if err != nil {
		log.Debug("SNMP connect failed", "address", address, "error", err)
		return
	}
	defer client.Close()

	snmpStatus, err := QuerySNMPStatus(client)
	if err != nil {
		log.Debug("SNMP query failed", "address", address, "error", err)
		return
	}
	status.Description = snmpStatus.Description
	status.DeviceStatus = snmpStatus.DeviceStatus
	status.PrinterState = snmpStatus.PrinterState
}

func containsPort(ports []int, port int) bool {
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}
