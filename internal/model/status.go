package model

import "time"

// PrinterStatus is the result of an on-demand reachability probe
type PrinterStatus struct {
	PrinterID    string    `json:"printer_id"`
	Address      string    `json:"address"`
	Reachable    bool      `json:"reachable"`
	PingOK       bool      `json:"ping_ok"`
	OpenPorts    []int     `json:"open_ports"`
	Services     []string  `json:"services,omitempty"`
	MACAddress   string    `json:"mac_address,omitempty"`
	Description  string    `json:"description,omitempty"`  // SNMP sysDescr
	DeviceStatus string    `json:"device_status,omitempty"` // hrDeviceStatus
	PrinterState string    `json:"printer_state,omitempty"` // hrPrinterStatus
	CheckedAt    time.Time `json:"checked_at"`
}
