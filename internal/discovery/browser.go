package discovery

import (
	"context"
	"errors"
)

// DefaultServiceTypes are the DNS-SD service types QL printers advertise on
var DefaultServiceTypes = []string{
	"_ipp._tcp",
	"_printer._tcp",
	"_pdl-datastream._tcp",
}

// EventKind distinguishes browse notifications
type EventKind int

const (
	EventAdded EventKind = iota
	EventUpdated
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a service notification delivered by a Browser
type Event struct {
	Kind        EventKind
	ServiceType string
	Name        string
}

// ServiceInfo is a resolved service instance
type ServiceInfo struct {
	Name       string
	Server     string
	Addresses  []string
	Port       int
	Properties map[string]string
}

// ErrServiceNotFound is returned by Resolve when a service cannot be resolved
var ErrServiceNotFound = errors.New("service not found")

// Browser is the local-network service discovery boundary
type Browser interface {
	// Browse delivers events for the given service types until ctx is done.
	// It must not close events.
	Browse(ctx context.Context, serviceTypes []string, events chan<- Event) error

	// Resolve returns the addresses, port and properties of a named service.
	Resolve(ctx context.Context, serviceType, name string) (*ServiceInfo, error)
}
