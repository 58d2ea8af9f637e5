package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/omidkh/netwatch/internal/config"
	"github.com/omidkh/netwatch/internal/dashboard"
	"github.com/omidkh/netwatch/internal/domain"
	"github.com/omidkh/netwatch/internal/engine"
	"github.com/omidkh/netwatch/internal/history"
	"github.com/omidkh/netwatch/internal/httpapi"
	"github.com/omidkh/netwatch/internal/logging"
	"github.com/omidkh/netwatch/internal/notify"
	"github.com/omidkh/netwatch/internal/probe"
)

func main() {
	var (
		configPath = flag.String("config", "netwatch.yaml", "path to configuration file")
		once       = flag.Bool("once", false, "run one check cycle, print a summary, and exit")
		withTUI    = flag.Bool("dashboard", false, "run continuous monitoring with the terminal dashboard")
		initCfg    = flag.Bool("init", false, "write a sample configuration file and exit")
		testNotify = flag.Bool("test-notify", false, "send a test alert through the configured notifiers and exit")
	)
	flag.Parse()

	if *initCfg {
		if err := config.WriteSample(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println("wrote sample configuration to", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		fmt.Fprintln(os.Stderr, "hint: run with -init to create a sample configuration")
		os.Exit(1)
	}

	// The TUI owns the terminal, so suppress the console log tee there.
	logger, err := logging.NewLogger(cfg.Log.Dir, cfg.Log.Console && !*withTUI)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	notifier := buildNotifier(cfg, *withTUI)

	if *testNotify {
		os.Exit(runTestNotify(notifier))
	}

	checker := probe.KindChecker{
		Ping: &probe.PingChecker{Count: cfg.Ping.Count, Privileged: cfg.Ping.Privileged},
		Port: probe.NewPortChecker(),
	}

	eng, err := engine.New(logger, checker, notifier, engine.Config{
		Interval:    cfg.IntervalDur,
		Timeout:     cfg.TimeoutDur,
		MaxRetries:  cfg.MaxRetries,
		Cooldown:    cfg.CooldownDur,
		Concurrency: cfg.Concurrency,
	}, cfg.DomainTargets())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		os.Exit(runOnce(ctx, eng))
	}

	var onCycle func(engine.Snapshot)
	if cfg.History.File != "" {
		rec, err := history.NewRecorder(cfg.History.File)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer rec.Close()
		onCycle = func(s engine.Snapshot) {
			if err := rec.Record(s); err != nil {
				logger.Warn("history_write_error", zap.Error(err))
			}
		}
	}

	if cfg.HTTP.Addr != "" {
		api := httpapi.NewServer(logger, eng)
		srv := &http.Server{
			Addr:    cfg.HTTP.Addr,
			Handler: api.Router(cfg.HTTP.RatePerMin, cfg.HTTP.RateBurst),
		}
		go func() {
			logger.Info("api_listen", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api_serve_error", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	logger.Info("monitor_start",
		zap.Duration("interval", cfg.IntervalDur),
		zap.Int("targets", len(cfg.DomainTargets())),
	)

	if *withTUI {
		go func() {
			if err := eng.Run(ctx, onCycle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("engine_error", zap.Error(err))
			}
		}()
		if err := dashboard.Run(eng, time.Second); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		stop()
		return
	}

	if err := eng.Run(ctx, onCycle); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildNotifier(cfg *config.Config, tui bool) notify.Notifier {
	var m notify.Multi
	if cfg.Alerts.Console && !tui {
		m = append(m, notify.NewConsole())
	}
	if e := cfg.Alerts.Email; e.Enabled {
		m = append(m, notify.NewEmail(e.SMTPHost, e.SMTPPort, e.Username, e.Password, e.From, e.To))
	}
	if s := notify.NewSlack(cfg.Alerts.Slack.WebhookURL); s != nil {
		m = append(m, s)
	}
	if b := notify.NewBrevo(cfg.Alerts.Brevo.APIKey, cfg.Alerts.Brevo.From, cfg.Alerts.Brevo.To); b != nil {
		m = append(m, b)
	}
	return m
}

func runTestNotify(n notify.Notifier) int {
	ev := domain.AlertEvent{
		Target:     domain.Target{Name: "self-test", Address: "127.0.0.1", Kind: domain.KindHost, Enabled: true},
		Transition: domain.WentDown,
		At:         time.Now(),
		Message:    "netwatch notifier self-test",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := n.Notify(ctx, ev); err != nil {
		fmt.Fprintln(os.Stderr, "notifier test failed:", err)
		return 1
	}
	fmt.Println("notifier test ok")
	return 0
}

func runOnce(ctx context.Context, eng *engine.Engine) int {
	snap := eng.RunOnce(ctx)

	for _, t := range snap.Targets {
		mark := "UP  "
		detail := t.LastResult.Latency.Truncate(100 * time.Microsecond).String()
		if t.Status != domain.StatusUp {
			mark = "DOWN"
			detail = t.LastResult.Message
		}
		fmt.Printf("%s  %-20s %-24s %s\n", mark, t.Target.Name, t.Target.Endpoint(), detail)
	}

	up, down, unknown := snap.Counts()
	fmt.Printf("\n%d up, %d down, %d unknown\n", up, down, unknown)
	if down > 0 || unknown > 0 {
		return 1
	}
	return 0
}
