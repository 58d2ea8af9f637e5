package domain

import (
	"net"
	"strconv"
	"time"
)

// TargetKind says how a target is probed: hosts get an ICMP ping, services
// get a TCP connect against their port.
type TargetKind string

const (
	KindHost    TargetKind = "host"
	KindService TargetKind = "service"
)

// Status is the logical reachability of a target. Unknown only exists before
// the first completed check.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusUp      Status = "up"
	StatusDown    Status = "down"
)

// Transition reports what a recorded probe result did to a target's status.
type Transition string

const (
	TransitionNone Transition = "none"
	WentDown       Transition = "down"
	WentUp         Transition = "up"
)

// Target is one monitored host or service. The target set is fixed at
// startup; a Target is never mutated after load.
type Target struct {
	Name    string     `json:"name"`
	Address string     `json:"address"`
	Port    int        `json:"port,omitempty"`
	Kind    TargetKind `json:"kind"`
	Enabled bool       `json:"enabled"`
}

// Endpoint renders the probed address, including the port for services.
func (t Target) Endpoint() string {
	if t.Kind == KindService && t.Port > 0 {
		return net.JoinHostPort(t.Address, strconv.Itoa(t.Port))
	}
	return t.Address
}

// ProbeResult is the outcome of a single probe attempt. Latency is only
// meaningful when Success is true.
type ProbeResult struct {
	Success   bool          `json:"success"`
	Latency   time.Duration `json:"latency"`
	Message   string        `json:"message,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// AlertEvent is produced when a transition passes the alert policy and is
// handed to the notifiers as-is.
type AlertEvent struct {
	Target     Target     `json:"target"`
	Transition Transition `json:"transition"`
	At         time.Time  `json:"at"`
	Message    string     `json:"message"`
}
