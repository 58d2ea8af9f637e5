package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/omidkh/netwatch/internal/domain"
)

// --- fakes ---

// scriptChecker returns a scripted up/down sequence per target name, then
// repeats the last entry.
type scriptChecker struct {
	mu     sync.Mutex
	script map[string][]bool
	calls  map[string]int
}

func newScriptChecker(script map[string][]bool) *scriptChecker {
	return &scriptChecker{script: script, calls: make(map[string]int)}
}

func (c *scriptChecker) Check(ctx context.Context, t domain.Target) domain.ProbeResult {
	c.mu.Lock()
	seq := c.script[t.Name]
	i := c.calls[t.Name]
	c.calls[t.Name]++
	c.mu.Unlock()

	if i >= len(seq) {
		i = len(seq) - 1
	}
	ok := len(seq) > 0 && seq[i]
	r := domain.ProbeResult{Success: ok, CheckedAt: time.Now()}
	if ok {
		r.Latency = time.Millisecond
	} else {
		r.Message = "scripted failure"
	}
	return r
}

type memNotifier struct {
	mu     sync.Mutex
	events []domain.AlertEvent
	err    error
}

func (m *memNotifier) Notify(ctx context.Context, ev domain.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *memNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func testEngine(t *testing.T, cfg Config, targets []domain.Target, chk *scriptChecker, nt *memNotifier) *Engine {
	t.Helper()
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	e, err := New(zap.NewNop(), chk, nt, cfg, targets)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func hostTarget(name string) domain.Target {
	return domain.Target{Name: name, Address: "192.0.2." + name, Kind: domain.KindHost, Enabled: true}
}

// --- tests ---

func TestNew_NoEnabledTargets(t *testing.T) {
	disabled := hostTarget("a")
	disabled.Enabled = false

	_, err := New(zap.NewNop(), newScriptChecker(nil), &memNotifier{}, Config{Interval: time.Second}, []domain.Target{disabled})
	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("want ErrNoTargets, got %v", err)
	}
}

func TestNew_NormalizesInterval(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {true}})
	e, err := New(zap.NewNop(), chk, &memNotifier{}, Config{}, []domain.Target{hostTarget("a")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// a zero interval must not panic the ticker in Run
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Run(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRunOnce_MixedTargets(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"good": {true}, "bad": {false}})
	nt := &memNotifier{}
	e := testEngine(t, Config{MaxRetries: 1, Cooldown: 5 * time.Minute, Concurrency: 4},
		[]domain.Target{hostTarget("good"), hostTarget("bad")}, chk, nt)

	snap := e.RunOnce(context.Background())

	if snap.Cycles != 1 {
		t.Fatalf("want cycles 1, got %d", snap.Cycles)
	}
	if snap.Successes != 1 || snap.Failures != 1 {
		t.Fatalf("want 1/1 counters, got %d/%d", snap.Successes, snap.Failures)
	}
	up, down, unknown := snap.Counts()
	if up != 1 || down != 1 || unknown != 0 {
		t.Fatalf("want 1 up 1 down, got up=%d down=%d unknown=%d", up, down, unknown)
	}
	// snapshot preserves configuration order
	if snap.Targets[0].Target.Name != "good" || snap.Targets[1].Target.Name != "bad" {
		t.Fatalf("unexpected order: %s, %s", snap.Targets[0].Target.Name, snap.Targets[1].Target.Name)
	}
	// exactly one alert: bad went UNKNOWN -> DOWN; good's first UP is silent
	if nt.count() != 1 {
		t.Fatalf("want 1 alert, got %d", nt.count())
	}
	if len(snap.Alerts) != 1 || snap.Alerts[0].Transition != domain.WentDown {
		t.Fatalf("unexpected alert log: %+v", snap.Alerts)
	}
}

func TestRunOnce_AlertOnlyAtThreshold(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {false, false, false}})
	nt := &memNotifier{}
	e := testEngine(t, Config{MaxRetries: 3, Cooldown: 0, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	ctx := context.Background()
	e.RunOnce(ctx)
	e.RunOnce(ctx)
	if nt.count() != 0 {
		t.Fatalf("alerted before retry threshold: %d", nt.count())
	}
	snap := e.RunOnce(ctx)
	if nt.count() != 1 {
		t.Fatalf("want exactly 1 alert on 3rd failure, got %d", nt.count())
	}
	if snap.Targets[0].Status != domain.StatusDown {
		t.Fatalf("want DOWN, got %v", snap.Targets[0].Status)
	}
}

func TestRunOnce_FlappingSuppressedByCooldown(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {false, true, false, true}})
	nt := &memNotifier{}
	e := testEngine(t, Config{MaxRetries: 1, Cooldown: 5 * time.Minute, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		e.RunOnce(ctx)
	}

	// transitions happen every cycle, but only the first DOWN alert fires
	if nt.count() != 1 {
		t.Fatalf("want 1 alert under cooldown, got %d", nt.count())
	}
	if nt.events[0].Transition != domain.WentDown {
		t.Fatalf("want the down alert, got %v", nt.events[0].Transition)
	}
}

func TestRunOnce_RecoveryAlert(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {false, true}})
	nt := &memNotifier{}
	e := testEngine(t, Config{MaxRetries: 1, Cooldown: 0, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	ctx := context.Background()
	e.RunOnce(ctx)
	snap := e.RunOnce(ctx)

	if nt.count() != 2 {
		t.Fatalf("want down+up alerts with zero cooldown, got %d", nt.count())
	}
	if nt.events[1].Transition != domain.WentUp {
		t.Fatalf("want recovery alert, got %v", nt.events[1].Transition)
	}
	if snap.Targets[0].ConsecutiveFailures != 0 {
		t.Fatalf("want counter reset, got %d", snap.Targets[0].ConsecutiveFailures)
	}
}

func TestRunOnce_NotifierErrorDoesNotStopMonitoring(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {false, true}})
	nt := &memNotifier{err: errors.New("smtp down")}
	e := testEngine(t, Config{MaxRetries: 1, Cooldown: 0, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	ctx := context.Background()
	e.RunOnce(ctx)
	snap := e.RunOnce(ctx)

	if snap.Cycles != 2 {
		t.Fatalf("cycle aborted by notifier error: cycles=%d", snap.Cycles)
	}
	if snap.Targets[0].Status != domain.StatusUp {
		t.Fatalf("state corrupted by notifier error: %v", snap.Targets[0].Status)
	}
}

func TestSnapshot_DoesNotAliasEngineState(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {true}})
	nt := &memNotifier{}
	e := testEngine(t, Config{MaxRetries: 1, Cooldown: 0, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	first := e.RunOnce(context.Background())
	first.Targets[0].History[0].Message = "tampered"
	first.Targets[0].Status = domain.StatusDown

	second := e.Snapshot()
	if second.Targets[0].History[0].Message == "tampered" {
		t.Fatalf("snapshot history aliases engine state")
	}
	if second.Targets[0].Status != domain.StatusUp {
		t.Fatalf("snapshot status aliases engine state")
	}
}

// blockingChecker parks every probe until its context ends, then reports the
// failure a real checker would produce for a cut-short dial.
type blockingChecker struct {
	mu    sync.Mutex
	calls int
}

func (c *blockingChecker) Check(ctx context.Context, tgt domain.Target) domain.ProbeResult {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	<-ctx.Done()
	return domain.ProbeResult{Success: false, Message: "connect: " + ctx.Err().Error(), CheckedAt: time.Now()}
}

func (c *blockingChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRunOnce_StopSignalDoesNotFakeFailures(t *testing.T) {
	chk := &blockingChecker{}
	nt := &memNotifier{}
	e, err := New(zap.NewNop(), chk, nt,
		Config{Interval: time.Hour, Timeout: time.Minute, MaxRetries: 1, Concurrency: 4},
		[]domain.Target{hostTarget("a")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	snap := e.RunOnce(ctx)

	// the probe only ended because of the stop signal; it must not count
	// as a failure, transition the target, or alert
	if nt.count() != 0 {
		t.Fatalf("shutdown produced %d alert(s)", nt.count())
	}
	if snap.Targets[0].Status != domain.StatusUnknown {
		t.Fatalf("want UNKNOWN after aborted probe, got %v", snap.Targets[0].Status)
	}
	if snap.Failures != 0 || snap.Successes != 0 {
		t.Fatalf("aborted probe counted: ok=%d fail=%d", snap.Successes, snap.Failures)
	}
}

func TestRunOnce_NoNewProbesAfterCancel(t *testing.T) {
	chk := &blockingChecker{}
	nt := &memNotifier{}
	// concurrency 1: the first probe holds the semaphore until cancel,
	// so targets behind it must never be probed
	e, err := New(zap.NewNop(), chk, nt,
		Config{Interval: time.Hour, Timeout: time.Minute, MaxRetries: 1, Concurrency: 1},
		[]domain.Target{hostTarget("a"), hostTarget("b"), hostTarget("c")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	e.RunOnce(ctx)

	if n := chk.callCount(); n != 1 {
		t.Fatalf("want 1 probe before cancel, got %d", n)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {true}})
	nt := &memNotifier{}
	e := testEngine(t, Config{Interval: 5 * time.Millisecond, MaxRetries: 1, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, nil) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	if e.Snapshot().Cycles == 0 {
		t.Fatalf("expected at least the immediate pass to run")
	}
}

func TestRun_OnCycleSeesEveryCycle(t *testing.T) {
	chk := newScriptChecker(map[string][]bool{"a": {true}})
	nt := &memNotifier{}
	e := testEngine(t, Config{Interval: 5 * time.Millisecond, MaxRetries: 1, Concurrency: 1},
		[]domain.Target{hostTarget("a")}, chk, nt)

	var mu sync.Mutex
	var seen []uint64
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx, func(s Snapshot) {
			mu.Lock()
			seen = append(seen, s.Cycles)
			mu.Unlock()
		})
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("want multiple cycle callbacks, got %d", len(seen))
	}
	for i, c := range seen {
		if c != uint64(i+1) {
			t.Fatalf("cycle counter out of order: %v", seen)
		}
	}
}
