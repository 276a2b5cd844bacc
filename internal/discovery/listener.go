package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
)

// PrinterFunc receives a copy of a printer record
type PrinterFunc func(model.Printer)

// Listener maintains the live printer table from discovery events and manual
// registrations. Callbacks always run after the table lock is released, so a
// callback may call back into the Listener.
type Listener struct {
	browser      Browser
	serviceTypes []string
	now          func() time.Time

	mu        sync.Mutex
	printers  map[string]*model.Printer
	order     []string
	onFound   PrinterFunc
	onRemoved PrinterFunc

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewListener creates a listener for the given service types. A nil browser
// yields a listener that only holds manually added printers.
func NewListener(browser Browser, serviceTypes []string) *Listener {
	if len(serviceTypes) == 0 {
		serviceTypes = DefaultServiceTypes
	}
	return &Listener{
		browser:      browser,
		serviceTypes: serviceTypes,
		now:          time.Now,
		printers:     make(map[string]*model.Printer),
	}
}

// SetCallbacks registers the found and removed callbacks
func (l *Listener) SetCallbacks(found, removed PrinterFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFound = found
	l.onRemoved = removed
}

// Start begins browsing in the background. Failure to browse is logged and
// the listener keeps serving manually added printers.
func (l *Listener) Start(ctx context.Context) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.cancel != nil {
		return
	}
	if l.browser == nil {
		log.Warn("Printer discovery disabled, only manual printers will be available")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 32)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := l.browser.Browse(ctx, l.serviceTypes, events); err != nil {
			log.Error("Printer discovery failed to start", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				l.HandleEvent(ctx, ev)
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	log.Info("Printer discovery service started", "service_types", l.serviceTypes)
}

// Stop ends browsing and waits for the background goroutines to exit. An event
// already being handled completes first.
func (l *Listener) Stop() {
	l.runMu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info("Printer discovery service stopped")
}

// HandleEvent applies one browse event; update is treated as add
func (l *Listener) HandleEvent(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Discovery event handler panicked", "service", ev.Name, "kind", ev.Kind.String(), "panic", fmt.Sprint(r))
		}
	}()

	switch ev.Kind {
	case EventAdded, EventUpdated:
		l.AddService(ctx, ev.ServiceType, ev.Name)
	case EventRemoved:
		l.RemoveService(ev.ServiceType, ev.Name)
	}
}

// AddService resolves a service and upserts it when it is a supported printer
func (l *Listener) AddService(ctx context.Context, serviceType, name string) {
	log.Debug("Discovered service", "service_type", serviceType, "service", name)

	if l.browser == nil {
		return
	}
	info, err := l.browser.Resolve(ctx, serviceType, name)
	if err != nil {
		log.Error("Failed to resolve service", "service", name, "error", err)
		return
	}

	printer, ok := l.upsertDiscovered(info, name)
	if !ok {
		return
	}

	log.Info("Discovered printer", "printer_id", printer.ID, "address", printer.Address, "port", printer.Port, "model", printer.Model)

	if found := l.foundCallback(); found != nil {
		found(printer)
	}
}

func (l *Listener) upsertDiscovered(info *ServiceInfo, name string) (model.Printer, bool) {
	if !IsTargetPrinter(info) {
		log.Debug("Ignoring non-printer service", "service", name)
		return model.Printer{}, false
	}

	printerModel := ExtractModel(info)
	if !IsSupportedModel(printerModel) {
		log.Debug("Ignoring unsupported printer model", "service", name, "model", printerModel)
		return model.Printer{}, false
	}

	if len(info.Addresses) == 0 {
		log.Error("Discovered printer has no address", "service", name)
		return model.Printer{}, false
	}

	id := Identity(info, name)

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.printers[id]; ok && existing.IsManual() {
		log.Debug("Discovered service matches a manual printer, keeping manual entry", "printer_id", id)
		return model.Printer{}, false
	}

	printer := &model.Printer{
		ID:       id,
		Address:  info.Addresses[0],
		Port:     info.Port,
		Model:    printerModel,
		Origin:   model.OriginDiscovered,
		LastSeen: l.now(),
		Status:   model.StatusOnline,
	}
	l.put(printer)
	return *printer, true
}

// RemoveService drops the first discovered printer whose identity loosely
// matches the removed service name. Manual printers are never matched.
func (l *Listener) RemoveService(serviceType, name string) {
	l.mu.Lock()
	var removed *model.Printer
	for _, id := range l.order {
		p := l.printers[id]
		if p.IsManual() || !MatchesRemoval(id, name) {
			continue
		}
		removed = p
		l.delete(id)
		break
	}
	callback := l.onRemoved
	l.mu.Unlock()

	if removed == nil {
		log.Debug("Removed service matched no printer", "service_type", serviceType, "service", name)
		return
	}

	log.Info("Removed printer", "printer_id", removed.ID, "service", name)
	if callback != nil {
		callback(*removed)
	}
}

// AddManual inserts an operator-registered printer and runs the found callback
func (l *Listener) AddManual(id, address string, port int, printerModel string) model.Printer {
	printer := &model.Printer{
		ID:       id,
		Address:  address,
		Port:     port,
		Model:    printerModel,
		Origin:   model.OriginManual,
		LastSeen: l.now(),
		Status:   model.StatusManual,
	}

	l.mu.Lock()
	l.put(printer)
	callback := l.onFound
	l.mu.Unlock()

	log.Info("Manually added printer", "printer_id", id, "address", address, "port", port)

	if callback != nil {
		callback(*printer)
	}
	return *printer
}

// Remove deletes a printer without running callbacks
func (l *Listener) Remove(id string) (model.Printer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.printers[id]
	if !ok {
		return model.Printer{}, false
	}
	l.delete(id)
	return *p, true
}

// Printer returns a copy of one live record
func (l *Listener) Printer(id string) (model.Printer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.printers[id]
	if !ok {
		return model.Printer{}, false
	}
	return *p, true
}

// Printers returns copies of all live records in insertion order
func (l *Listener) Printers() []model.Printer {
	l.mu.Lock()
	defer l.mu.Unlock()

	printers := make([]model.Printer, 0, len(l.order))
	for _, id := range l.order {
		printers = append(printers, *l.printers[id])
	}
	return printers
}

func (l *Listener) foundCallback() PrinterFunc {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.onFound
}

// put must be called with mu held
func (l *Listener) put(p *model.Printer) {
	if _, ok := l.printers[p.ID]; !ok {
		l.order = append(l.order, p.ID)
	}
	l.printers[p.ID] = p
}

// delete must be called with mu held
func (l *Listener) delete(id string) {
	delete(l.printers, id)
	for i, existing := range l.order {
		if existing == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}
