package model

// FleetConfig is the durable printer configuration document
type FleetConfig struct {
	DisplayNames      map[string]string        `json:"display_names"`
	DefaultLabelSizes map[string]string        `json:"default_label_sizes"`
	ManualPrinters    map[string]ManualPrinter `json:"manual_printers"`
}

// ManualPrinter is the persisted endpoint of an operator-registered printer
type ManualPrinter struct {
	Address string `json:"address"`
	Port    int    `json:"port,omitempty"`
	Model   string `json:"model,omitempty"`
}

// NewFleetConfig returns an empty configuration with all maps allocated
func NewFleetConfig() *FleetConfig {
	return &FleetConfig{
		DisplayNames:      make(map[string]string),
		DefaultLabelSizes: make(map[string]string),
		ManualPrinters:    make(map[string]ManualPrinter),
	}
}

// Event is a fleet change pushed to subscribers
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventPrinterFound   = "printer.found"
	EventPrinterRemoved = "printer.removed"
	EventPrinterRenamed = "printer.renamed"
	EventPrinterUpdated = "printer.updated"
	EventPrinterDeleted = "printer.deleted"
	EventJobFinished    = "job.finished"
)
