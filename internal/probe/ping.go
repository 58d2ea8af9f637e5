package probe

import (
	"context"
	"time"

	"github.com/go-ping/ping"

	"github.com/omidkh/netwatch/internal/domain"
)

// PingChecker probes host reachability with ICMP echo. Privileged selects
// raw sockets (needs CAP_NET_RAW / root); unprivileged uses UDP ping, which
// works out of the box on Linux with ping_group_range configured.
type PingChecker struct {
	Count      int
	Privileged bool
}

func NewPingChecker(privileged bool) *PingChecker {
	return &PingChecker{Count: 1, Privileged: privileged}
}

func (c *PingChecker) Check(ctx context.Context, t domain.Target) domain.ProbeResult {
	start := time.Now()

	pinger, err := ping.NewPinger(t.Address)
	if err != nil {
		return failure(start, "resolve: "+err.Error())
	}
	pinger.Count = c.Count
	if pinger.Count < 1 {
		pinger.Count = 1
	}
	pinger.SetPrivileged(c.Privileged)
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- pinger.Run() }()

	select {
	case <-ctx.Done():
		pinger.Stop()
		<-runErr
		return failure(start, "ping: "+ctx.Err().Error())
	case err := <-runErr:
		if err != nil {
			return failure(start, "ping: "+err.Error())
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return failure(start, "ping: no reply")
	}
	return success(start, stats.AvgRtt)
}
