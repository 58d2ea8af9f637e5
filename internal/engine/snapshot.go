package engine

import (
	"time"

	"github.com/omidkh/netwatch/internal/domain"
)

// TargetStatus is the read-only per-target view inside a Snapshot.
type TargetStatus struct {
	Target              domain.Target        `json:"target"`
	Status              domain.Status        `json:"status"`
	ConsecutiveFailures int                  `json:"consecutive_failures"`
	LastResult          domain.ProbeResult   `json:"last_result"`
	LastTransition      time.Time            `json:"last_transition"`
	LastAlert           time.Time            `json:"last_alert"`
	History             []domain.ProbeResult `json:"history"`
}

// Snapshot is an immutable copy of all target states plus engine counters,
// captured on demand. Consumers (dashboard, HTTP API, history recorder) only
// ever see snapshots, never live engine state.
type Snapshot struct {
	TakenAt   time.Time           `json:"taken_at"`
	StartedAt time.Time           `json:"started_at"`
	Cycles    uint64              `json:"cycles"`
	Successes uint64              `json:"successes"`
	Failures  uint64              `json:"failures"`
	Targets   []TargetStatus      `json:"targets"`
	Alerts    []domain.AlertEvent `json:"alerts"`
}

// Counts tallies targets by status.
func (s Snapshot) Counts() (up, down, unknown int) {
	for _, t := range s.Targets {
		switch t.Status {
		case domain.StatusUp:
			up++
		case domain.StatusDown:
			down++
		default:
			unknown++
		}
	}
	return up, down, unknown
}

// Snapshot captures a consistent copy of the engine's state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	targets := make([]TargetStatus, 0, len(e.targets))
	for _, t := range e.targets {
		targets = append(targets, e.states[t.Name].view())
	}
	alerts := make([]domain.AlertEvent, len(e.alerts))
	copy(alerts, e.alerts)

	return Snapshot{
		TakenAt:   time.Now(),
		StartedAt: e.startedAt,
		Cycles:    e.cycles,
		Successes: e.successes,
		Failures:  e.failures,
		Targets:   targets,
		Alerts:    alerts,
	}
}
