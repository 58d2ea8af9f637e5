package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/omidkh/netwatch/internal/domain"
	"github.com/omidkh/netwatch/internal/notify"
	"github.com/omidkh/netwatch/internal/probe"
)

// alertHistoryCap bounds the engine-level alert log kept for display.
const alertHistoryCap = 10

// ErrNoTargets is returned by New when the configuration enables nothing;
// running a monitor with an empty target set is meaningless.
var ErrNoTargets = errors.New("engine: no enabled targets")

type Config struct {
	Interval    time.Duration // time between cycles
	Timeout     time.Duration // per-probe deadline
	MaxRetries  int           // consecutive failures before DOWN
	Cooldown    time.Duration // minimum gap between alerts per target
	Concurrency int           // probe fan-out bound within one cycle
}

// Engine drives the check cycle: probe every enabled target, fold results
// into per-target state, and notify on transitions that pass the policy.
// All state mutation happens inside the cycle; everything else reads via
// Snapshot copies.
type Engine struct {
	logger   *zap.Logger
	checker  probe.Checker
	notifier notify.Notifier
	cfg      Config
	policy   AlertPolicy

	mu        sync.RWMutex
	targets   []domain.Target // enabled targets, configuration order
	states    map[string]*TargetState
	alerts    []domain.AlertEvent
	startedAt time.Time
	cycles    uint64
	successes uint64
	failures  uint64
}

func New(logger *zap.Logger, checker probe.Checker, notifier notify.Notifier, cfg Config, targets []domain.Target) (*Engine, error) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}

	enabled := make([]domain.Target, 0, len(targets))
	states := make(map[string]*TargetState, len(targets))
	for _, t := range targets {
		if !t.Enabled {
			continue
		}
		enabled = append(enabled, t)
		states[t.Name] = newTargetState(t, cfg.MaxRetries)
	}
	if len(enabled) == 0 {
		return nil, ErrNoTargets
	}

	return &Engine{
		logger:    logger,
		checker:   checker,
		notifier:  notifier,
		cfg:       cfg,
		policy:    AlertPolicy{Cooldown: cfg.Cooldown},
		targets:   enabled,
		states:    states,
		startedAt: time.Now(),
	}, nil
}

// Run executes check cycles on a fixed interval until ctx is cancelled. It
// does an immediate pass, then ticks. OnCycle, if set, receives a Snapshot
// after every cycle.
func (e *Engine) Run(ctx context.Context, onCycle func(Snapshot)) error {
	t := time.NewTicker(e.cfg.Interval)
	defer t.Stop()

	e.runCycle(ctx)
	if onCycle != nil {
		onCycle(e.Snapshot())
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine_stopped")
			return ctx.Err()
		case <-t.C:
			e.runCycle(ctx)
			if onCycle != nil {
				onCycle(e.Snapshot())
			}
		}
	}
}

// RunOnce executes exactly one cycle synchronously and returns the resulting
// snapshot. Shares the cycle code with Run; there is no behavioral
// difference between the two modes other than repetition.
func (e *Engine) RunOnce(ctx context.Context) Snapshot {
	e.runCycle(ctx)
	return e.Snapshot()
}

// runCycle probes all enabled targets, bounded by cfg.Concurrency, then
// applies the results sequentially. Results are attributed by index so a
// slow probe cannot land on the wrong target. A cancelled ctx stops new
// probes from starting; results from completed probes are still applied,
// but a probe cut short by the stop signal is discarded — it would read as
// a failure the target never earned.
func (e *Engine) runCycle(ctx context.Context) {
	results := make([]domain.ProbeResult, len(e.targets))
	ran := make([]bool, len(e.targets))

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup

fanout:
	for i, tgt := range e.targets {
		select {
		case <-ctx.Done():
			break fanout
		case sem <- struct{}{}:
		}
		// the select picks arbitrarily when both channels are ready
		if ctx.Err() != nil {
			<-sem
			break
		}
		wg.Add(1)
		go func(i int, tgt domain.Target) {
			defer wg.Done()
			defer func() { <-sem }()

			cctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
			defer cancel()

			r := e.checker.Check(cctx, tgt)
			if ctx.Err() != nil {
				return
			}
			results[i] = r
			ran[i] = true
		}(i, tgt)
	}
	wg.Wait()

	now := time.Now()
	var events []domain.AlertEvent

	e.mu.Lock()
	for i, tgt := range e.targets {
		if !ran[i] {
			continue
		}
		r := results[i]
		if r.Success {
			e.successes++
		} else {
			e.failures++
		}

		st := e.states[tgt.Name]
		tr := st.Record(r)

		e.logger.Debug("check_done",
			zap.String("target", tgt.Name),
			zap.String("endpoint", tgt.Endpoint()),
			zap.Bool("up", r.Success),
			zap.Duration("latency", r.Latency),
			zap.String("message", r.Message),
		)

		if !e.policy.ShouldAlert(st, tr, now) {
			if tr != domain.TransitionNone {
				e.logger.Info("alert_suppressed",
					zap.String("target", tgt.Name),
					zap.String("transition", string(tr)),
				)
			}
			continue
		}
		st.markAlerted(now)

		ev := domain.AlertEvent{
			Target:     tgt,
			Transition: tr,
			At:         now,
			Message:    alertMessage(tgt, tr, r),
		}
		e.appendAlertLocked(ev)
		events = append(events, ev)
	}
	e.cycles++
	e.mu.Unlock()

	// Delivery is best-effort and detached from the run context so that
	// results applied during shutdown still get their alerts out.
	for _, ev := range events {
		e.logger.Info("alert",
			zap.String("target", ev.Target.Name),
			zap.String("transition", string(ev.Transition)),
			zap.String("message", ev.Message),
		)
		nctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout)
		if err := e.notifier.Notify(nctx, ev); err != nil {
			e.logger.Warn("notify_error",
				zap.String("target", ev.Target.Name),
				zap.Error(err),
			)
		}
		cancel()
	}
}

func (e *Engine) appendAlertLocked(ev domain.AlertEvent) {
	if len(e.alerts) == alertHistoryCap {
		copy(e.alerts, e.alerts[1:])
		e.alerts[alertHistoryCap-1] = ev
		return
	}
	e.alerts = append(e.alerts, ev)
}

func alertMessage(t domain.Target, tr domain.Transition, r domain.ProbeResult) string {
	switch tr {
	case domain.WentDown:
		if r.Message != "" {
			return fmt.Sprintf("%s (%s) is DOWN: %s", t.Name, t.Endpoint(), r.Message)
		}
		return fmt.Sprintf("%s (%s) is DOWN", t.Name, t.Endpoint())
	case domain.WentUp:
		return fmt.Sprintf("%s (%s) recovered, latency %s", t.Name, t.Endpoint(), r.Latency)
	}
	return fmt.Sprintf("%s (%s): %s", t.Name, t.Endpoint(), tr)
}
