package notify

import (
	"context"

	"github.com/omidkh/netwatch/internal/domain"
)

// Notifier delivers one alert. The engine treats delivery as fire-and-forget:
// errors are logged by the caller, never retried.
type Notifier interface {
	Notify(ctx context.Context, ev domain.AlertEvent) error
}

// Multi fans an alert out to every configured notifier and reports the first
// error. A failing transport never blocks the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev domain.AlertEvent) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
