package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "tcp://10.0.0.5:9100", Endpoint("10.0.0.5", 9100))
	assert.Equal(t, "tcp://[fe80::1]:9100", Endpoint("fe80::1", 9100))
	assert.Equal(t, "file:///dev/usb/lp0", Endpoint("file:///dev/usb/lp0", 9100))
	assert.Equal(t, "tcp://printer.lan:9101", Endpoint("tcp://printer.lan:9101", 9100))
}

func TestParseEndpointURI(t *testing.T) {
	e, err := ParseEndpointURI("tcp://printer.lan:9101")
	require.NoError(t, err)
	assert.Equal(t, EndpointURI{Scheme: "tcp", Host: "printer.lan", Port: 9101}, e)

	e, err = ParseEndpointURI("file:///dev/usb/lp0")
	require.NoError(t, err)
	assert.Equal(t, EndpointURI{Scheme: "file", Path: "/dev/usb/lp0"}, e)

	for _, bad := range []string{"tcp://printer.lan", "tcp://:9100", "tcp://host:0", "file://lp0", "file://", "usb://04f9:2042"} {
		_, err := ParseEndpointURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestDevicePathAndNetworkHost(t *testing.T) {
	path, ok := DevicePath("file:///dev/usb/lp0")
	assert.True(t, ok)
	assert.Equal(t, "/dev/usb/lp0", path)

	_, ok = DevicePath("10.0.0.5")
	assert.False(t, ok)

	assert.Equal(t, "10.0.0.5", NetworkHost("10.0.0.5"))
	assert.Equal(t, "printer.lan", NetworkHost("tcp://printer.lan:9101"))
	assert.Empty(t, NetworkHost("file:///dev/usb/lp0"))
}
