package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/omidkh/netwatch/internal/domain"
)

type Config struct {
	Interval    string `yaml:"interval"`    // e.g. "60s"
	Timeout     string `yaml:"timeout"`     // e.g. "5s", per-probe deadline
	MaxRetries  int    `yaml:"max_retries"` // consecutive failures before DOWN
	Cooldown    string `yaml:"cooldown"`    // e.g. "5m", per-target alert gap
	Concurrency int    `yaml:"concurrency"`

	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	Ping    PingConfig    `yaml:"ping"`
	History HistoryConfig `yaml:"history"`
	Targets []Target      `yaml:"targets"`

	// Parsed durations (filled after load)
	IntervalDur time.Duration `yaml:"-"`
	TimeoutDur  time.Duration `yaml:"-"`
	CooldownDur time.Duration `yaml:"-"`
}

type LogConfig struct {
	Dir     string `yaml:"dir"`
	Console bool   `yaml:"console"`
}

// HTTPConfig controls the optional JSON status API. An empty addr disables it.
type HTTPConfig struct {
	Addr       string `yaml:"addr,omitempty"`
	RatePerMin int    `yaml:"rate_per_min,omitempty"`
	RateBurst  int    `yaml:"rate_burst,omitempty"`
}

type PingConfig struct {
	Privileged bool `yaml:"privileged"`
	Count      int  `yaml:"count"`
}

type AlertsConfig struct {
	Console bool        `yaml:"console"`
	Email   EmailConfig `yaml:"email"`
	Slack   SlackConfig `yaml:"slack"`
	Brevo   BrevoConfig `yaml:"brevo"`
}

type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type BrevoConfig struct {
	APIKey string   `yaml:"api_key"`
	From   string   `yaml:"from"`
	To     []string `yaml:"to"`
}

type Target struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port,omitempty"`
	Kind    string `yaml:"kind"` // host or service
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// HistoryConfig controls the JSONL status-history recorder. An empty file
// disables it.
type HistoryConfig struct {
	File string `yaml:"file,omitempty"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateAndNormalize(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Interval) == "" {
		cfg.Interval = "60s"
	}
	if strings.TrimSpace(cfg.Timeout) == "" {
		cfg.Timeout = "5s"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if strings.TrimSpace(cfg.Cooldown) == "" {
		cfg.Cooldown = "5m"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if strings.TrimSpace(cfg.Log.Dir) == "" {
		cfg.Log.Dir = "logs"
	}
	if cfg.Ping.Count <= 0 {
		cfg.Ping.Count = 1
	}
	if cfg.HTTP.Addr != "" {
		if cfg.HTTP.RatePerMin <= 0 {
			cfg.HTTP.RatePerMin = 120
		}
		if cfg.HTTP.RateBurst <= 0 {
			cfg.HTTP.RateBurst = 60
		}
	}

	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Enabled == nil {
			v := true
			t.Enabled = &v
		}
		if strings.TrimSpace(t.Kind) == "" {
			if t.Port > 0 {
				t.Kind = string(domain.KindService)
			} else {
				t.Kind = string(domain.KindHost)
			}
		}
	}
}

func validateAndNormalize(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return errors.New("config: no targets provided")
	}

	var err error
	if cfg.IntervalDur, err = parsePositive("interval", cfg.Interval); err != nil {
		return err
	}
	if cfg.TimeoutDur, err = parsePositive("timeout", cfg.Timeout); err != nil {
		return err
	}
	cfg.CooldownDur, err = time.ParseDuration(cfg.Cooldown)
	if err != nil {
		return fmt.Errorf("config: invalid cooldown %q: %w", cfg.Cooldown, err)
	}
	if cfg.CooldownDur < 0 {
		return fmt.Errorf("config: cooldown must be >= 0")
	}

	seen := make(map[string]struct{}, len(cfg.Targets))
	for i := range cfg.Targets {
		t := &cfg.Targets[i]

		t.Name = strings.TrimSpace(t.Name)
		t.Address = strings.TrimSpace(t.Address)
		t.Kind = strings.ToLower(strings.TrimSpace(t.Kind))

		if t.Name == "" {
			return fmt.Errorf("config: target[%d] missing name", i)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("config: duplicate target name %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.Address == "" {
			return fmt.Errorf("config: target %q missing address", t.Name)
		}

		switch domain.TargetKind(t.Kind) {
		case domain.KindHost:
			if t.Port != 0 {
				return fmt.Errorf("config: target %q is a host but has a port; use kind: service", t.Name)
			}
		case domain.KindService:
			if t.Port < 1 || t.Port > 65535 {
				return fmt.Errorf("config: target %q needs a port in 1..65535", t.Name)
			}
		default:
			return fmt.Errorf("config: target %q invalid kind %q (use host or service)", t.Name, t.Kind)
		}
	}

	if cfg.Alerts.Email.Enabled {
		e := cfg.Alerts.Email
		if e.SMTPHost == "" || e.From == "" || len(e.To) == 0 {
			return errors.New("config: email alerts enabled but smtp_host/from/to incomplete")
		}
	}

	return nil
}

func parsePositive(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be > 0", name)
	}
	return d, nil
}

// DomainTargets converts the configured target list into domain values,
// preserving configuration order.
func (c *Config) DomainTargets() []domain.Target {
	out := make([]domain.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		out = append(out, domain.Target{
			Name:    t.Name,
			Address: t.Address,
			Port:    t.Port,
			Kind:    domain.TargetKind(t.Kind),
			Enabled: t.Enabled == nil || *t.Enabled,
		})
	}
	return out
}
