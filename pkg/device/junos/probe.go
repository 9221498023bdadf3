package junos

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jset-tools/jset/pkg/device"
)

// Probe tests NETCONF reachability with a bare TCP connect, the same
// lightweight pre-connection a probe-then-open client performs. No
// authentication happens; an accepted connection is enough.
type Probe struct {
	Port    int
	Timeout time.Duration
}

var _ device.Prober = (*Probe)(nil)

// Probe dials the NETCONF port and immediately closes the connection.
func (p *Probe) Probe(ctx context.Context, host string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(portOr(p.Port, DefaultNetconfPort)))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("netconf port not reachable: %w", err)
	}
	return conn.Close()
}
