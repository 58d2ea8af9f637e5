package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/omidkh/netwatch/internal/domain"
)

// Checker performs one probe attempt against a target. Implementations must
// respect the context deadline; a probe that cannot finish in time returns a
// failure result rather than blocking past it.
type Checker interface {
	Check(ctx context.Context, t domain.Target) domain.ProbeResult
}

// KindChecker routes host targets to the ping checker and service targets to
// the port checker.
type KindChecker struct {
	Ping Checker
	Port Checker
}

func (c KindChecker) Check(ctx context.Context, t domain.Target) domain.ProbeResult {
	switch t.Kind {
	case domain.KindHost:
		return c.Ping.Check(ctx, t)
	case domain.KindService:
		return c.Port.Check(ctx, t)
	}
	return failure(time.Now(), fmt.Sprintf("unknown target kind %q", t.Kind))
}

func success(start time.Time, latency time.Duration) domain.ProbeResult {
	return domain.ProbeResult{
		Success:   true,
		Latency:   latency,
		CheckedAt: start,
	}
}

func failure(start time.Time, msg string) domain.ProbeResult {
	return domain.ProbeResult{
		Success:   false,
		Message:   msg,
		CheckedAt: start,
	}
}
