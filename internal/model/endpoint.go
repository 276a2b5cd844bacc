package model

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint returns the transport URI for a printer. Manual printers may give a
// full URI such as file:///dev/usb/lp0 as their address; it is used unchanged.
func Endpoint(address string, port int) string {
	if IsEndpointURI(address) {
		return address
	}
	return "tcp://" + net.JoinHostPort(address, strconv.Itoa(port))
}

// IsEndpointURI reports whether an address carries its own scheme
func IsEndpointURI(address string) bool {
	return strings.Contains(address, "://")
}

// EndpointURI is a parsed tcp:// or file:// printer address
type EndpointURI struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// ParseEndpointURI validates an address given as a URI. tcp needs host and
// port; file needs an absolute device path.
func ParseEndpointURI(address string) (EndpointURI, error) {
	u, err := url.Parse(address)
	if err != nil {
		return EndpointURI{}, fmt.Errorf("parsing endpoint %q: %w", address, err)
	}

	switch u.Scheme {
	case "tcp":
		port, err := strconv.Atoi(u.Port())
		if u.Hostname() == "" || err != nil || port < 1 || port > 65535 {
			return EndpointURI{}, fmt.Errorf("endpoint %q needs tcp://host:port", address)
		}
		return EndpointURI{Scheme: u.Scheme, Host: u.Hostname(), Port: port}, nil
	case "file":
		if u.Host != "" || !strings.HasPrefix(u.Path, "/") {
			return EndpointURI{}, fmt.Errorf("endpoint %q needs file:///path", address)
		}
		return EndpointURI{Scheme: u.Scheme, Path: u.Path}, nil
	default:
		return EndpointURI{}, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// DevicePath returns the device of a file:// address
func DevicePath(address string) (string, bool) {
	if !IsEndpointURI(address) {
		return "", false
	}
	e, err := ParseEndpointURI(address)
	if err != nil || e.Scheme != "file" {
		return "", false
	}
	return e.Path, true
}

// NetworkHost returns the host to probe for an address, or "" when the
// printer is not reachable over the network.
func NetworkHost(address string) string {
	if !IsEndpointURI(address) {
		return address
	}
	e, err := ParseEndpointURI(address)
	if err != nil {
		return ""
	}
	return e.Host
}
