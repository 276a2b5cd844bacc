package printing

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"time"
)

const DefaultTransportTimeout = 10 * time.Second

// SchemeTransport opens a printer endpoint by URL scheme: tcp://host:port for
// network printers and file:///dev/usb/lp0 for locally attached ones.
type SchemeTransport struct {
	Timeout time.Duration
}

func (t *SchemeTransport) timeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTransportTimeout
	}
	return t.Timeout
}

func (t *SchemeTransport) Open(ctx context.Context, endpoint string) (io.WriteCloser, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("endpoint %q has no host", endpoint)
		}
		dialer := net.Dialer{Timeout: t.timeout()}
		conn, err := dialer.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		if err := conn.SetWriteDeadline(time.Now().Add(t.timeout())); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("endpoint %q has no path", endpoint)
		}
		return os.OpenFile(u.Path, os.O_WRONLY|os.O_APPEND, 0)
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}
