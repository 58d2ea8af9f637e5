package engine

import (
	"time"

	"github.com/omidkh/netwatch/internal/domain"
)

// historyCap bounds the per-target probe history kept for display.
const historyCap = 10

// TargetState tracks the rolling status of one target. It is owned by the
// engine; Record must never run concurrently for the same target.
type TargetState struct {
	target              domain.Target
	status              domain.Status
	consecutiveFailures int
	lastResult          domain.ProbeResult
	lastTransition      time.Time
	lastAlert           time.Time
	history             []domain.ProbeResult

	maxRetries int
}

func newTargetState(t domain.Target, maxRetries int) *TargetState {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TargetState{
		target:     t,
		status:     domain.StatusUnknown,
		history:    make([]domain.ProbeResult, 0, historyCap),
		maxRetries: maxRetries,
	}
}

// Record folds one probe result into the state and reports whether it caused
// a logical transition. A target only goes DOWN once maxRetries consecutive
// failures accumulate; recovery is immediate on the first success. The first
// success out of UNKNOWN is not a recovery and stays silent.
func (s *TargetState) Record(r domain.ProbeResult) domain.Transition {
	s.lastResult = r
	s.appendHistory(r)

	if r.Success {
		s.consecutiveFailures = 0
		wasDown := s.status == domain.StatusDown
		if s.status != domain.StatusUp {
			s.status = domain.StatusUp
			s.lastTransition = r.CheckedAt
		}
		if wasDown {
			return domain.WentUp
		}
		return domain.TransitionNone
	}

	s.consecutiveFailures++
	if s.consecutiveFailures >= s.maxRetries && s.status != domain.StatusDown {
		s.status = domain.StatusDown
		s.lastTransition = r.CheckedAt
		return domain.WentDown
	}
	return domain.TransitionNone
}

func (s *TargetState) appendHistory(r domain.ProbeResult) {
	if len(s.history) == historyCap {
		copy(s.history, s.history[1:])
		s.history[historyCap-1] = r
		return
	}
	s.history = append(s.history, r)
}

// markAlerted starts the cooldown window. The engine calls it together with
// a positive ShouldAlert decision, before delivery, so a slow or failing
// notifier cannot cause a double alert.
func (s *TargetState) markAlerted(now time.Time) {
	s.lastAlert = now
}

// view copies the state into a read-only TargetStatus. The history slice is
// duplicated so the snapshot never aliases engine-owned memory.
func (s *TargetState) view() TargetStatus {
	hist := make([]domain.ProbeResult, len(s.history))
	copy(hist, s.history)
	return TargetStatus{
		Target:              s.target,
		Status:              s.status,
		ConsecutiveFailures: s.consecutiveFailures,
		LastResult:          s.lastResult,
		LastTransition:      s.lastTransition,
		LastAlert:           s.lastAlert,
		History:             hist,
	}
}
