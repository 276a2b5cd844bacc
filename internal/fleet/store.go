package fleet

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/martinsuchenak/labeld/internal/discovery"
	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/martinsuchenak/labeld/internal/session"
)

// Registry is the live printer table the store reconciles against
type Registry interface {
	SetCallbacks(found, removed discovery.PrinterFunc)
	AddManual(id, address string, port int, printerModel string) model.Printer
	Remove(id string) (model.Printer, bool)
	Printer(id string) (model.Printer, bool)
	Printers() []model.Printer
}

// Notifier receives fleet change events
type Notifier interface {
	Notify(event model.Event)
}

// Store holds the durable operator configuration for the fleet: display names,
// default label sizes and manual printers.
//
// Lock order is store, then session cache, then registry. The registry never
// calls into the store while holding its own lock, so callbacks may take the
// store lock freely.
type Store struct {
	path     string
	baseline string
	registry Registry
	sessions *session.Cache
	notifyMu sync.RWMutex
	notifier Notifier

	mu           sync.Mutex
	displayNames map[string]string
	labelSizes   map[string]string
	loading      bool
	dirty        bool
}

// NewStore creates a store persisted at path, registers its callbacks with the
// registry and loads the existing configuration. baselineLabelSize is assigned
// to printers seen for the first time.
func NewStore(path, baselineLabelSize string, registry Registry, sessions *session.Cache) *Store {
	if baselineLabelSize == "" {
		baselineLabelSize = model.DefaultLabelSize
	}
	if sessions == nil {
		sessions = session.NewCache()
	}
	s := &Store{
		path:         path,
		baseline:     baselineLabelSize,
		registry:     registry,
		sessions:     sessions,
		displayNames: make(map[string]string),
		labelSizes:   make(map[string]string),
	}
	registry.SetCallbacks(s.OnPrinterFound, s.OnPrinterRemoved)
	s.load()
	return s
}

// SetNotifier registers the receiver of fleet events
func (s *Store) SetNotifier(n Notifier) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notifier = n
}

func (s *Store) notify(eventType string, payload any) {
	s.notifyMu.RLock()
	n := s.notifier
	s.notifyMu.RUnlock()
	if n != nil {
		n.Notify(model.Event{Type: eventType, Payload: payload})
	}
}

// load restores the configuration and re-registers manual printers through
// the registry so they appear exactly like a fresh manual add
func (s *Store) load() {
	cfg, err := readConfig(s.path)
	if err != nil {
		log.Error("Failed to load printer configurations", "path", s.path, "error", err)
	}

	s.mu.Lock()
	s.displayNames = cfg.DisplayNames
	s.labelSizes = cfg.DefaultLabelSizes
	s.loading = true
	s.mu.Unlock()

	ids := make([]string, 0, len(cfg.ManualPrinters))
	for id := range cfg.ManualPrinters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		mp := cfg.ManualPrinters[id]
		if id == "" || mp.Address == "" {
			log.Warn("Skipping manual printer without address", "printer_id", id)
			continue
		}
		port := mp.Port
		if port == 0 {
			port = model.DefaultPort
		}
		printerModel := mp.Model
		if printerModel == "" {
			printerModel = model.DefaultManualModel
		}
		s.registry.AddManual(id, mp.Address, port, printerModel)
	}

	s.mu.Lock()
	s.loading = false
	if s.dirty {
		s.dirty = false
		s.save()
	}
	s.mu.Unlock()

	log.Info("Loaded printer configurations", "path", s.path, "display_names", len(cfg.DisplayNames), "manual_printers", len(ids))
}

// save persists the full configuration. Must be called with mu held. Failures
// are logged; the in-memory state stays authoritative.
func (s *Store) save() {
	if s.loading {
		s.dirty = true
		return
	}

	cfg := model.NewFleetConfig()
	for id, name := range s.displayNames {
		cfg.DisplayNames[id] = name
	}
	for id, size := range s.labelSizes {
		cfg.DefaultLabelSizes[id] = size
	}
	for _, p := range s.registry.Printers() {
		if !p.IsManual() {
			continue
		}
		cfg.ManualPrinters[p.ID] = model.ManualPrinter{
			Address: p.Address,
			Port:    p.Port,
			Model:   p.Model,
		}
	}

	if err := writeConfig(s.path, cfg); err != nil {
		log.Error("Failed to save printer configurations", "path", s.path, "error", err)
		return
	}
	log.Debug("Printer configurations saved", "path", s.path)
}

// Close writes the final configuration snapshot
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save()
}

// OnPrinterFound assigns default display name and label size on first sight.
// The default name is the identity unless another printer already holds it.
func (s *Store) OnPrinterFound(p model.Printer) {
	s.mu.Lock()
	changed := false
	if _, ok := s.displayNames[p.ID]; !ok {
		name := s.freeNameLocked(p.ID)
		if name != p.ID {
			log.Warn("Display name already in use, assigning fallback", "printer_id", p.ID, "display_name", name)
		}
		s.displayNames[p.ID] = name
		changed = true
	}
	if _, ok := s.labelSizes[p.ID]; !ok {
		s.labelSizes[p.ID] = s.baseline
		changed = true
	}

	// A re-discovered printer may have moved; drop a handle bound to the old endpoint
	name := s.displayNames[p.ID]
	if h, ok := s.sessions.Get(name); ok && h.PrinterID == p.ID &&
		(h.Address != p.Address || h.Port != p.Port || h.Model != p.Model) {
		s.sessions.Evict(name)
	}

	if changed {
		s.save()
	}
	listing := model.NewPrinterListing(p, name, s.labelSizes[p.ID])
	s.mu.Unlock()

	s.notify(model.EventPrinterFound, listing)
}

// OnPrinterRemoved evicts the cached session of a printer that went away
func (s *Store) OnPrinterRemoved(p model.Printer) {
	s.mu.Lock()
	name := s.displayNames[p.ID]
	if name != "" {
		s.sessions.Evict(name)
	}
	s.mu.Unlock()

	s.notify(model.EventPrinterRemoved, map[string]string{"printer_id": p.ID, "display_name": name})
}

// ListPrinters returns every live printer merged with its configuration
func (s *Store) ListPrinters() []model.PrinterListing {
	printers := s.registry.Printers()

	s.mu.Lock()
	defer s.mu.Unlock()

	listings := make([]model.PrinterListing, 0, len(printers))
	for _, p := range printers {
		listings = append(listings, s.listingLocked(p))
	}
	return listings
}

// Printer returns the listing entry for one identity
func (s *Store) Printer(id string) (model.PrinterListing, error) {
	p, ok := s.registry.Printer(id)
	if !ok {
		return model.PrinterListing{}, fmt.Errorf("%s: %w", id, ErrPrinterNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listingLocked(p), nil
}

// LabelSize returns the default label size for an identity
func (s *Store) LabelSize(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size, ok := s.labelSizes[id]; ok {
		return size
	}
	return s.baseline
}

// SetDisplayName binds newName to id and re-keys any cached session
func (s *Store) SetDisplayName(id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrInvalidDisplayName
	}

	s.mu.Lock()
	p, ok := s.registry.Printer(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrPrinterNotFound)
	}
	if owner, taken := s.ownerLocked(newName, id); taken {
		s.mu.Unlock()
		return fmt.Errorf("%q is used by %s: %w", newName, owner, ErrDisplayNameInUse)
	}

	old := s.displayNames[id]
	s.displayNames[id] = newName
	if old != newName {
		s.sessions.Evict(newName)
		if old != "" {
			s.sessions.Rename(old, newName)
		}
	}
	s.save()
	listing := s.listingLocked(p)
	s.mu.Unlock()

	log.Info("Printer renamed", "printer_id", id, "old_name", old, "new_name", newName)
	s.notify(model.EventPrinterRenamed, listing)
	return nil
}

// SetDefaultLabelSize records the label size used when a print names none
func (s *Store) SetDefaultLabelSize(id, size string) error {
	size = strings.TrimSpace(size)
	if size == "" {
		return ErrInvalidLabelSize
	}

	s.mu.Lock()
	p, ok := s.registry.Printer(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrPrinterNotFound)
	}
	s.labelSizes[id] = size
	s.save()
	listing := s.listingLocked(p)
	s.mu.Unlock()

	s.notify(model.EventPrinterUpdated, listing)
	return nil
}

// AddManualPrinter registers a printer by hand. An explicit display name that
// belongs to another identity is rejected before anything is created.
func (s *Store) AddManualPrinter(req model.ManualPrinterRequest) (model.PrinterListing, error) {
	id := strings.TrimSpace(req.PrinterID)
	address := strings.TrimSpace(req.Address)
	displayName := strings.TrimSpace(req.DisplayName)
	labelSize := strings.TrimSpace(req.DefaultLabelSize)
	printerModel := strings.TrimSpace(req.Model)
	port := req.Port

	if id == "" {
		return model.PrinterListing{}, fmt.Errorf("printer id is required: %w", ErrInvalidPrinter)
	}
	if address == "" {
		return model.PrinterListing{}, fmt.Errorf("address is required: %w", ErrInvalidPrinter)
	}
	if model.IsEndpointURI(address) {
		endpoint, err := model.ParseEndpointURI(address)
		if err != nil {
			return model.PrinterListing{}, fmt.Errorf("%v: %w", err, ErrInvalidPrinter)
		}
		if endpoint.Scheme == "tcp" {
			port = endpoint.Port
		}
	}
	if port == 0 {
		port = model.DefaultPort
	}
	if port < 1 || port > 65535 {
		return model.PrinterListing{}, fmt.Errorf("port %d out of range: %w", port, ErrInvalidPrinter)
	}
	if printerModel == "" {
		printerModel = model.DefaultManualModel
	}
	if labelSize == "" {
		labelSize = s.baseline
	}

	if displayName != "" {
		s.mu.Lock()
		owner, taken := s.ownerLocked(displayName, id)
		s.mu.Unlock()
		if taken {
			return model.PrinterListing{}, fmt.Errorf("%q is used by %s: %w", displayName, owner, ErrDisplayNameInUse)
		}
	}

	// Runs OnPrinterFound, which takes the store lock
	p := s.registry.AddManual(id, address, port, printerModel)

	s.mu.Lock()
	if _, ok := s.registry.Printer(id); !ok {
		s.mu.Unlock()
		return model.PrinterListing{}, fmt.Errorf("%s: %w", id, ErrPrinterNotFound)
	}

	var nameErr error
	old := s.displayNames[id]
	if old != "" {
		// The endpoint may have changed; the next print builds a fresh handle
		s.sessions.Evict(old)
	}
	switch {
	case displayName == "":
		if old == "" {
			s.displayNames[id] = id
		}
	default:
		if owner, taken := s.ownerLocked(displayName, id); taken {
			nameErr = fmt.Errorf("%q is used by %s: %w", displayName, owner, ErrDisplayNameInUse)
		} else {
			s.displayNames[id] = displayName
			s.sessions.Evict(displayName)
		}
	}
	s.labelSizes[id] = labelSize
	s.save()
	listing := s.listingLocked(p)
	s.mu.Unlock()

	s.notify(model.EventPrinterUpdated, listing)
	if nameErr != nil {
		return listing, nameErr
	}
	return listing, nil
}

// RemovePrinter deletes a manual printer and all of its configuration
func (s *Store) RemovePrinter(id string) error {
	s.mu.Lock()
	p, ok := s.registry.Printer(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrPrinterNotFound)
	}
	if !p.IsManual() {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", id, ErrNotManual)
	}

	s.registry.Remove(id)
	name := s.displayNames[id]
	delete(s.displayNames, id)
	delete(s.labelSizes, id)
	if name != "" {
		s.sessions.Evict(name)
	}
	s.save()
	s.mu.Unlock()

	log.Info("Removed manual printer", "printer_id", id, "display_name", name)
	s.notify(model.EventPrinterDeleted, map[string]string{"printer_id": id, "display_name": name})
	return nil
}

// DefaultPrinter returns the display name used when a print names no printer:
// the printer called DefaultPrinterName if present, else the first listed.
func (s *Store) DefaultPrinter() (string, bool) {
	listings := s.ListPrinters()
	if len(listings) == 0 {
		return "", false
	}
	for _, l := range listings {
		if l.DisplayName == model.DefaultPrinterName {
			return l.DisplayName, true
		}
	}
	return listings[0].DisplayName, true
}

// Session returns the cached handle for a display name, creating it from the
// live record on a miss
func (s *Store) Session(displayName string) (*session.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.GetOrCreate(displayName, s.resolveLocked)
}

// resolveLocked maps a display name to its live printer. Must be called with mu held.
func (s *Store) resolveLocked(displayName string) (model.Printer, bool) {
	for _, p := range s.registry.Printers() {
		if s.displayNames[p.ID] == displayName {
			return p, true
		}
	}
	return model.Printer{}, false
}

// ownerLocked reports another identity already mapped to name. Must be called with mu held.
func (s *Store) ownerLocked(name, id string) (string, bool) {
	for pid, dname := range s.displayNames {
		if dname == name && pid != id {
			return pid, true
		}
	}
	return "", false
}

// freeNameLocked returns id, or id-2, id-3... when another identity already
// holds that display name. Must be called with mu held.
func (s *Store) freeNameLocked(id string) string {
	name := id
	for n := 2; ; n++ {
		if _, taken := s.ownerLocked(name, id); !taken {
			return name
		}
		name = fmt.Sprintf("%s-%d", id, n)
	}
}

// listingLocked must be called with mu held
func (s *Store) listingLocked(p model.Printer) model.PrinterListing {
	name, ok := s.displayNames[p.ID]
	if !ok {
		name = p.ID
	}
	size, ok := s.labelSizes[p.ID]
	if !ok {
		size = s.baseline
	}
	return model.NewPrinterListing(p, name, size)
}
