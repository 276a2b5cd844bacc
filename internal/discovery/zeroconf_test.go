package discovery

import (
	"net"
	"sort"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventKinds(events []Event) map[string]EventKind {
	kinds := make(map[string]EventKind, len(events))
	for _, ev := range events {
		kinds[ev.Name] = ev.Kind
	}
	return kinds
}

func TestRoundTrackerAddUpdateRemove(t *testing.T) {
	tracker := newRoundTracker()
	const st = "_ipp._tcp"

	first := map[string]*ServiceInfo{
		"a": qlService("a", "a.local.", "10.0.0.1", 9100),
		"b": qlService("b", "b.local.", "10.0.0.2", 9100),
	}
	events := tracker.observe(st, first, 2)
	assert.Equal(t, map[string]EventKind{"a": EventAdded, "b": EventAdded}, eventKinds(events))

	// Unchanged a, moved b
	second := map[string]*ServiceInfo{
		"a": qlService("a", "a.local.", "10.0.0.1", 9100),
		"b": qlService("b", "b.local.", "10.0.0.3", 9100),
	}
	events = tracker.observe(st, second, 2)
	assert.Equal(t, map[string]EventKind{"b": EventUpdated}, eventKinds(events))

	// a missing once is not enough
	third := map[string]*ServiceInfo{"b": second["b"]}
	assert.Empty(t, tracker.observe(st, third, 2))

	events = tracker.observe(st, third, 2)
	assert.Equal(t, map[string]EventKind{"a": EventRemoved}, eventKinds(events))

	_, ok := tracker.lookup(st, "a")
	assert.False(t, ok)
	info, ok := tracker.lookup(st, "b")
	require.True(t, ok)
	assert.Equal(t, []string{"10.0.0.3"}, info.Addresses)
}

func TestRoundTrackerMissCounterResetsOnReturn(t *testing.T) {
	tracker := newRoundTracker()
	const st = "_printer._tcp"
	seen := map[string]*ServiceInfo{"a": qlService("a", "a.local.", "10.0.0.1", 9100)}

	tracker.observe(st, seen, 2)
	assert.Empty(t, tracker.observe(st, map[string]*ServiceInfo{}, 2))
	assert.Empty(t, tracker.observe(st, seen, 2))
	assert.Empty(t, tracker.observe(st, map[string]*ServiceInfo{}, 2))
}

func TestRoundTrackerSeparatesServiceTypes(t *testing.T) {
	tracker := newRoundTracker()
	seen := map[string]*ServiceInfo{"a": qlService("a", "a.local.", "10.0.0.1", 9100)}

	assert.Len(t, tracker.observe("_ipp._tcp", seen, 1), 1)
	assert.Len(t, tracker.observe("_printer._tcp", seen, 1), 1)

	events := tracker.observe("_ipp._tcp", nil, 1)
	require.Len(t, events, 1)
	assert.Equal(t, EventRemoved, events[0].Kind)
	_, ok := tracker.lookup("_printer._tcp", "a")
	assert.True(t, ok)
}

func TestEntryInfo(t *testing.T) {
	entry := zeroconf.NewServiceEntry("Brother QL-820NWB", "_ipp._tcp", "local.")
	entry.HostName = "BRW0080.local."
	entry.Port = 631
	entry.Text = []string{"ty=Brother QL-820NWB", "note=Office", "flag", ""}
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.50"), net.ParseIP("192.168.1.10")}
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	info := entryInfo(entry)
	assert.Equal(t, "Brother QL-820NWB", info.Name)
	assert.Equal(t, "BRW0080.local.", info.Server)
	assert.Equal(t, 631, info.Port)
	assert.Equal(t, []string{"192.168.1.10", "192.168.1.50", "fe80::1"}, info.Addresses)
	assert.Equal(t, map[string]string{"ty": "Brother QL-820NWB", "note": "Office", "flag": ""}, info.Properties)
}

func TestEventKindString(t *testing.T) {
	names := []string{EventAdded.String(), EventUpdated.String(), EventRemoved.String(), EventKind(99).String()}
	sort.Strings(names)
	assert.Equal(t, []string{"added", "removed", "unknown", "updated"}, names)
}
