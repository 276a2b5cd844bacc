package discovery

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/martinsuchenak/labeld/internal/log"
)

const (
	defaultBrowseInterval = 10 * time.Second
	defaultRoundTimeout   = 3 * time.Second
	defaultMissedRounds   = 3
	defaultDomain         = "local."
)

var errResolver = errors.New("creating mDNS resolver")

// ZeroconfBrowser discovers services over mDNS/DNS-SD.
//
// zeroconf does not report goodbye packets to subscribers, so the browser runs
// bounded browse rounds and infers removal when a service is absent for
// MissedRounds consecutive successful rounds.
type ZeroconfBrowser struct {
	Interval     time.Duration
	RoundTimeout time.Duration
	MissedRounds int
	Domain       string

	once    sync.Once
	tracker *roundTracker
}

// NewZeroconfBrowser creates a browser with default timings
func NewZeroconfBrowser() *ZeroconfBrowser {
	return &ZeroconfBrowser{
		Interval:     defaultBrowseInterval,
		RoundTimeout: defaultRoundTimeout,
		MissedRounds: defaultMissedRounds,
		Domain:       defaultDomain,
	}
}

func (b *ZeroconfBrowser) rounds() *roundTracker {
	b.once.Do(func() { b.tracker = newRoundTracker() })
	return b.tracker
}

// Browse runs browse rounds for each service type until ctx is done
func (b *ZeroconfBrowser) Browse(ctx context.Context, serviceTypes []string, events chan<- Event) error {
	tracker := b.rounds()
	missed := b.MissedRounds
	if missed <= 0 {
		missed = defaultMissedRounds
	}

	interval := b.Interval
	if interval <= 0 {
		interval = defaultBrowseInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	succeeded := false
	for {
		for _, st := range serviceTypes {
			seen, err := b.browseRound(ctx, st)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				// Multicast sockets that never opened mean discovery cannot start
				if !succeeded && errors.Is(err, errResolver) {
					return err
				}
				log.Debug("mDNS browse round failed", "service_type", st, "error", err)
				continue
			}
			succeeded = true
			for _, ev := range tracker.observe(st, seen, missed) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// browseRound collects every entry answering within RoundTimeout
func (b *ZeroconfBrowser) browseRound(ctx context.Context, serviceType string) (map[string]*ServiceInfo, error) {
	// A resolver shuts its sockets down when its browse context ends
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errResolver, err)
	}

	timeout := b.RoundTimeout
	if timeout <= 0 {
		timeout = defaultRoundTimeout
	}
	roundCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := resolver.Browse(roundCtx, serviceType, b.domain(), entries); err != nil {
		return nil, fmt.Errorf("browsing %s: %w", serviceType, err)
	}

	seen := make(map[string]*ServiceInfo)
	for entry := range entries {
		if entry == nil {
			continue
		}
		seen[entry.Instance] = entryInfo(entry)
	}
	return seen, nil
}

// Resolve returns the last browsed info for a service, looking it up on a miss
func (b *ZeroconfBrowser) Resolve(ctx context.Context, serviceType, name string) (*ServiceInfo, error) {
	if info, ok := b.rounds().lookup(serviceType, name); ok {
		return info, nil
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errResolver, err)
	}

	timeout := b.RoundTimeout
	if timeout <= 0 {
		timeout = defaultRoundTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 1)
	if err := resolver.Lookup(lookupCtx, name, serviceType, b.domain(), entries); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", name, err)
	}

	for entry := range entries {
		if entry != nil && entry.Instance == name {
			cancel()
			go drain(entries)
			return entryInfo(entry), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrServiceNotFound)
}

func (b *ZeroconfBrowser) domain() string {
	if b.Domain == "" {
		return defaultDomain
	}
	return b.Domain
}

func drain(entries <-chan *zeroconf.ServiceEntry) {
	for range entries {
	}
}

// entryInfo converts a zeroconf entry, preferring IPv4 addresses
func entryInfo(e *zeroconf.ServiceEntry) *ServiceInfo {
	info := &ServiceInfo{
		Name:       e.Instance,
		Server:     e.HostName,
		Port:       e.Port,
		Properties: parseTXT(e.Text),
	}
	v4 := make([]string, 0, len(e.AddrIPv4))
	for _, ip := range e.AddrIPv4 {
		v4 = append(v4, ip.String())
	}
	v6 := make([]string, 0, len(e.AddrIPv6))
	for _, ip := range e.AddrIPv6 {
		v6 = append(v6, ip.String())
	}
	sort.Strings(v4)
	sort.Strings(v6)
	info.Addresses = append(v4, v6...)
	return info
}

// parseTXT splits DNS-SD TXT records of the form key=value
func parseTXT(records []string) map[string]string {
	props := make(map[string]string, len(records))
	for _, rec := range records {
		if rec == "" {
			continue
		}
		key, value, _ := strings.Cut(rec, "=")
		props[key] = value
	}
	return props
}

type trackedService struct {
	info   *ServiceInfo
	missed int
}

// roundTracker turns browse-round snapshots into add/update/remove events
type roundTracker struct {
	mu       sync.Mutex
	services map[string]map[string]*trackedService // service type -> instance
}

func newRoundTracker() *roundTracker {
	return &roundTracker{
		services: make(map[string]map[string]*trackedService),
	}
}

func (t *roundTracker) observe(serviceType string, seen map[string]*ServiceInfo, maxMissed int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	known, ok := t.services[serviceType]
	if !ok {
		known = make(map[string]*trackedService)
		t.services[serviceType] = known
	}

	var events []Event
	for name, info := range seen {
		prev, exists := known[name]
		switch {
		case !exists:
			known[name] = &trackedService{info: info}
			events = append(events, Event{Kind: EventAdded, ServiceType: serviceType, Name: name})
		case !reflect.DeepEqual(prev.info, info):
			prev.info = info
			prev.missed = 0
			events = append(events, Event{Kind: EventUpdated, ServiceType: serviceType, Name: name})
		default:
			prev.missed = 0
		}
	}

	for name, svc := range known {
		if _, ok := seen[name]; ok {
			continue
		}
		svc.missed++
		if svc.missed >= maxMissed {
			delete(known, name)
			events = append(events, Event{Kind: EventRemoved, ServiceType: serviceType, Name: name})
		}
	}
	return events
}

func (t *roundTracker) lookup(serviceType, name string) (*ServiceInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	svc, ok := t.services[serviceType][name]
	if !ok {
		return nil, false
	}
	return svc.info, true
}
