package model

import "time"

// Origin records how a printer entered the live table
type Origin string

const (
	OriginDiscovered Origin = "discovered"
	OriginManual     Origin = "manual"
)

const (
	// StatusManual marks operator-registered printers; persistence filters on it.
	StatusManual  = "Manual"
	StatusUnknown = "Unknown"
	StatusOnline  = "Online"

	UnknownModel       = "Unknown"
	DefaultManualModel = "QL-500"
	DefaultPort        = 9100
	DefaultLabelSize   = "62"

	// DefaultPrinterName is the display name preferred by DefaultPrinter.
	DefaultPrinterName = "Default Printer"
)

// Printer is one physical or manually declared label printer
type Printer struct {
	ID       string    `json:"name"`
	Address  string    `json:"address"`
	Port     int       `json:"port"`
	Model    string    `json:"model"`
	Origin   Origin    `json:"origin"`
	LastSeen time.Time `json:"last_seen"`
	Status   string    `json:"status"`
}

// IsManual reports whether the printer was registered by an operator
func (p Printer) IsManual() bool {
	return p.Origin == OriginManual || p.Status == StatusManual
}

// ConnectionString returns the transport endpoint for the printer
func (p Printer) ConnectionString() string {
	return Endpoint(p.Address, p.Port)
}

// PrinterListing is a live printer merged with its operator configuration
type PrinterListing struct {
	PrinterID        string    `json:"printer_id"`
	DisplayName      string    `json:"display_name"`
	DefaultLabelSize string    `json:"default_label_size"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Port             int       `json:"port"`
	Model            string    `json:"model"`
	Origin           Origin    `json:"origin"`
	LastSeen         time.Time `json:"last_seen"`
	Status           string    `json:"status"`
	ConnectionString string    `json:"connection_string"`
}

// NewPrinterListing merges a live record with its display name and label size
func NewPrinterListing(p Printer, displayName, labelSize string) PrinterListing {
	return PrinterListing{
		PrinterID:        p.ID,
		DisplayName:      displayName,
		DefaultLabelSize: labelSize,
		Name:             p.ID,
		Address:          p.Address,
		Port:             p.Port,
		Model:            p.Model,
		Origin:           p.Origin,
		LastSeen:         p.LastSeen,
		Status:           p.Status,
		ConnectionString: p.ConnectionString(),
	}
}

// ManualPrinterRequest holds the fields for registering a printer by hand
type ManualPrinterRequest struct {
	PrinterID        string `json:"printer_id"`
	Address          string `json:"address"`
	Port             int    `json:"port,omitempty"`
	Model            string `json:"model,omitempty"`
	DisplayName      string `json:"display_name,omitempty"`
	DefaultLabelSize string `json:"default_label_size,omitempty"`
}

// LabelSizes lists the label size tokens understood by QL series renderers
var LabelSizes = []string{
	"12", "29", "38", "50", "54", "62", "62red", "102",
	"17x54", "17x87", "23x23", "29x42", "29x90", "39x90", "39x48",
	"52x29", "62x29", "62x100", "102x51", "102x152",
	"d12", "d24", "d58",
}
