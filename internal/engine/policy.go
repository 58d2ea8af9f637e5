package engine

import (
	"time"

	"github.com/omidkh/netwatch/internal/domain"
)

// AlertPolicy gates notifications on transitions. The cooldown is tracked
// per target, so one flapping target cannot silence the rest, and it applies
// to both directions: intermittent connectivity would otherwise double the
// alert volume with down/up pairs.
type AlertPolicy struct {
	Cooldown time.Duration
}

func (p AlertPolicy) ShouldAlert(s *TargetState, tr domain.Transition, now time.Time) bool {
	if tr == domain.TransitionNone {
		return false
	}
	if !s.lastAlert.IsZero() && now.Sub(s.lastAlert) < p.Cooldown {
		return false
	}
	return true
}
