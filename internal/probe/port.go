package probe

import (
	"context"
	"net"
	"time"

	"github.com/omidkh/netwatch/internal/domain"
)

// PortChecker probes service reachability with a plain TCP connect. The
// connection is closed immediately; we only care that the listener accepts.
type PortChecker struct {
	Dialer net.Dialer
}

func NewPortChecker() *PortChecker {
	return &PortChecker{}
}

func (c *PortChecker) Check(ctx context.Context, t domain.Target) domain.ProbeResult {
	start := time.Now()

	conn, err := c.Dialer.DialContext(ctx, "tcp", t.Endpoint())
	if err != nil {
		return failure(start, "connect: "+err.Error())
	}
	latency := time.Since(start)
	_ = conn.Close()

	return success(start, latency)
}
