package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	alive bool
	err   error
}

func (f *fakePinger) Alive(ctx context.Context, ip string, timeout time.Duration) (bool, error) {
	return f.alive, f.err
}

type fakeARP struct{ mac string }

func (f *fakeARP) GetMAC(ctx context.Context, ip string) (string, error) {
	if f.mac == "" {
		return "", errors.New("no reply")
	}
	return f.mac, nil
}

type fakeSNMP struct {
	packet *gosnmp.SnmpPacket
	err    error
	closed bool
}

func (f *fakeSNMP) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	return f.packet, f.err
}

func (f *fakeSNMP) Close() error {
	f.closed = true
	return nil
}

func listen(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, func() { ln.Close() }
}

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func printerPacket() *gosnmp.SnmpPacket {
	return &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{
		{Name: "." + oidSysDescr, Type: gosnmp.OctetString, Value: []byte("Brother NC-16004w, Firmware Ver.1.03 ")},
		{Name: "." + oidHrDeviceStatus, Type: gosnmp.Integer, Value: 2},
		{Name: "." + oidHrPrinterStatus, Type: gosnmp.Integer, Value: 3},
	}}
}

func newTestProber(ports []int, snmp *SNMPConfig, client *fakeSNMP) *Prober {
	pr := NewProber(Config{Timeout: time.Second, Ports: ports, SNMP: snmp})
	pr.pinger = &fakePinger{}
	pr.arp = &fakeARP{}
	pr.dialSNMP = func(cfg SNMPConfig, target string, timeout time.Duration) (SNMPClient, error) {
		if client == nil {
			return nil, errors.New("unreachable")
		}
		return client, nil
	}
	return pr
}

func TestOpenPorts(t *testing.T) {
	open, stop := listen(t)
	defer stop()
	closed := closedPort(t)

	ports := NewPortScanner().OpenPorts(context.Background(), "127.0.0.1", []int{closed, open}, time.Second)
	assert.Equal(t, []int{open}, ports)
}

func TestDefaultPortsAndServiceNames(t *testing.T) {
	assert.Equal(t, []int{80, 443, 515, 631, 9100}, DefaultPorts())
	assert.Equal(t, []string{"IPP", "RAW"}, ServiceNames([]int{631, 12345, 9100}))
	assert.Nil(t, ServiceNames(nil))
}

func TestProbeReachableByPort(t *testing.T) {
	open, stop := listen(t)
	defer stop()
	client := &fakeSNMP{packet: printerPacket()}
	pr := newTestProber([]int{closedPort(t)}, &SNMPConfig{Community: "public"}, client)

	status := pr.Probe(context.Background(), model.Printer{ID: "p1", Address: "127.0.0.1", Port: open})

	assert.True(t, status.Reachable)
	assert.False(t, status.PingOK)
	assert.Equal(t, []int{open}, status.OpenPorts)
	assert.Empty(t, status.MACAddress)
	assert.Equal(t, "Brother NC-16004w, Firmware Ver.1.03", status.Description)
	assert.Equal(t, "running", status.DeviceStatus)
	assert.Equal(t, "idle", status.PrinterState)
	assert.True(t, client.closed)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestProbeUnreachable(t *testing.T) {
	client := &fakeSNMP{packet: printerPacket()}
	pr := newTestProber([]int{closedPort(t)}, &SNMPConfig{}, client)

	status := pr.Probe(context.Background(), model.Printer{ID: "p1", Address: "127.0.0.1"})

	assert.False(t, status.Reachable)
	assert.Empty(t, status.OpenPorts)
	assert.NotNil(t, status.OpenPorts)
	assert.Empty(t, status.Description)
	assert.False(t, client.closed)
}

func TestProbePingAndARP(t *testing.T) {
	pr := newTestProber([]int{closedPort(t)}, nil, nil)
	pr.pinger = &fakePinger{alive: true}
	pr.arp = &fakeARP{mac: "00:80:77:31:01:07"}

	status := pr.Probe(context.Background(), model.Printer{ID: "p1", Address: "127.0.0.1"})

	assert.True(t, status.Reachable)
	assert.True(t, status.PingOK)
	assert.Equal(t, "00:80:77:31:01:07", status.MACAddress)
}

func TestProbeSNMPFailureIsNotFatal(t *testing.T) {
	open, stop := listen(t)
	defer stop()
	pr := newTestProber([]int{open}, &SNMPConfig{}, &fakeSNMP{err: errors.New("timeout")})

	status := pr.Probe(context.Background(), model.Printer{ID: "p1", Address: "127.0.0.1"})
	assert.True(t, status.Reachable)
	assert.Empty(t, status.DeviceStatus)
}

func TestLocalDeviceReachability(t *testing.T) {
	device := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(device, nil, 0644))
	client := &fakeSNMP{packet: printerPacket()}
	pr := newTestProber(nil, &SNMPConfig{}, client)
	pr.pinger = &fakePinger{alive: true}

	status := pr.Probe(context.Background(), model.Printer{ID: "usb", Address: "file://" + device})
	assert.True(t, status.Reachable)
	assert.False(t, status.PingOK)
	assert.False(t, client.closed)

	status = pr.Probe(context.Background(), model.Printer{ID: "usb", Address: "file://" + device + "-missing"})
	assert.False(t, status.Reachable)
}

func TestTCPEndpointAddressReachability(t *testing.T) {
	open, stop := listen(t)
	defer stop()
	pr := newTestProber([]int{closedPort(t)}, nil, nil)

	status := pr.Probe(context.Background(), model.Printer{ID: "p1", Address: fmt.Sprintf("tcp://127.0.0.1:%d", open), Port: open})
	assert.True(t, status.Reachable)
	assert.Equal(t, []int{open}, status.OpenPorts)
}

func TestQuerySNMPStatusUnknownCodes(t *testing.T) {
	status, err := QuerySNMPStatus(&fakeSNMP{packet: &gosnmp.SnmpPacket{Variables: []gosnmp.SnmpPDU{
		{Name: oidHrDeviceStatus, Type: gosnmp.Integer, Value: 9},
		{Name: oidHrPrinterStatus, Type: gosnmp.NoSuchInstance},
	}}})
	require.NoError(t, err)
	assert.Equal(t, "code 9", status.DeviceStatus)
	assert.Empty(t, status.PrinterState)
}

func TestParseSNMPVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    gosnmp.SnmpVersion
		wantErr bool
	}{
		{"", gosnmp.Version2c, false},
		{"1", gosnmp.Version1, false},
		{"2c", gosnmp.Version2c, false},
		{"V3", gosnmp.Version3, false},
		{"4", gosnmp.Version2c, true},
	}
	for _, tt := range tests {
		got, err := ParseSNMPVersion(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
