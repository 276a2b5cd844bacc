package scanner

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

const (
	oidSysDescr        = "1.3.6.1.2.1.1.1.0"
	oidHrDeviceStatus  = "1.3.6.1.2.1.25.3.2.1.5.1"
	oidHrPrinterStatus = "1.3.6.1.2.1.25.3.5.1.1.1"
)

// hrDeviceStatus values from HOST-RESOURCES-MIB
var deviceStatusNames = map[int]string{
	1: "unknown",
	2: "running",
	3: "warning",
	4: "testing",
	5: "down",
}

// hrPrinterStatus values from HOST-RESOURCES-MIB
var printerStatusNames = map[int]string{
	1: "other",
	2: "unknown",
	3: "idle",
	4: "printing",
	5: "warmup",
}

// SNMPConfig holds SNMP connection parameters
type SNMPConfig struct {
	Community string
	Version   gosnmp.SnmpVersion
}

// ParseSNMPVersion converts "1", "2c" or "3". Empty defaults to v2c.
func ParseSNMPVersion(v string) (gosnmp.SnmpVersion, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "v1":
		return gosnmp.Version1, nil
	case "", "2c", "v2c":
		return gosnmp.Version2c, nil
	case "3", "v3":
		return gosnmp.Version3, nil
	default:
		return gosnmp.Version2c, fmt.Errorf("unsupported SNMP version: %s", v)
	}
}

// SNMPClient defines the SNMP operations the probe needs
type SNMPClient interface {
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

type gosnmpClient struct {
	conn *gosnmp.GoSNMP
}

func (c *gosnmpClient) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	return c.conn.Get(oids)
}

func (c *gosnmpClient) Close() error {
	return c.conn.Conn.Close()
}

// SNMPDialer opens an SNMP session to a target
type SNMPDialer func(cfg SNMPConfig, target string, timeout time.Duration) (SNMPClient, error)

// DialSNMP connects to target on the standard SNMP port
func DialSNMP(cfg SNMPConfig, target string, timeout time.Duration) (SNMPClient, error) {
	if target == "" {
		return nil, fmt.Errorf("target IP required")
	}
	community := cfg.Community
	if community == "" {
		community = "public"
	}

	conn := &gosnmp.GoSNMP{
		Target:    target,
		Port:      161,
		Community: community,
		Version:   cfg.Version,
		Timeout:   timeout,
		Retries:   1,
	}
	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return &gosnmpClient{conn: conn}, nil
}

// SNMPStatus is the printer's self-reported state
type SNMPStatus struct {
	Description  string
	DeviceStatus string
	PrinterState string
}

// QuerySNMPStatus reads sysDescr, hrDeviceStatus and hrPrinterStatus
func QuerySNMPStatus(client SNMPClient) (*SNMPStatus, error) {
	packet, err := client.Get([]string{oidSysDescr, oidHrDeviceStatus, oidHrPrinterStatus})
	if err != nil {
		return nil, fmt.Errorf("snmp get: %w", err)
	}

	status := &SNMPStatus{}
	for _, v := range packet.Variables {
		switch strings.TrimPrefix(v.Name, ".") {
		case oidSysDescr:
			if b, ok := v.Value.([]byte); ok {
				status.Description = strings.TrimSpace(string(b))
			}
		case oidHrDeviceStatus:
			if v.Type == gosnmp.Integer {
				status.DeviceStatus = statusName(deviceStatusNames, gosnmp.ToBigInt(v.Value).Int64())
			}
		case oidHrPrinterStatus:
			if v.Type == gosnmp.Integer {
				status.PrinterState = statusName(printerStatusNames, gosnmp.ToBigInt(v.Value).Int64())
			}
		}
	}
	return status, nil
}

func statusName(names map[int]string, code int64) string {
	if name, ok := names[int(code)]; ok {
		return name
	}
	return fmt.Sprintf("code %d", code)
}
