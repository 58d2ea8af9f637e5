package config

import (
	"fmt"
	"os"
)

const sampleYAML = `# netwatch configuration
interval: 60s    # time between check cycles
timeout: 5s      # per-probe deadline
max_retries: 3   # consecutive failures before a target is DOWN
cooldown: 5m     # minimum gap between alerts for one target
concurrency: 10  # probes running at once within a cycle

log:
  dir: logs
  console: true

ping:
  privileged: false # set true when running as root / with CAP_NET_RAW
  count: 1

# http:
#   addr: ":8080"   # JSON status API; omit to disable

# history:
#   file: data/status_history.jsonl

alerts:
  console: true
  email:
    enabled: false
    smtp_host: ""
    smtp_port: 587
    username: ""
    password: ""
    from: ""
    to: []
  slack:
    webhook_url: ""
  brevo:
    api_key: ""
    from: ""
    to: []

targets:
  - name: gateway
    address: 192.168.1.1
    kind: host
  - name: google-dns
    address: 8.8.8.8
    kind: host
  - name: cloudflare-dns
    address: 1.1.1.1
    kind: host
  - name: local-ssh
    address: 127.0.0.1
    port: 22
    kind: service
  - name: local-web
    address: 127.0.0.1
    port: 80
    kind: service
    enabled: false
`

// WriteSample creates a commented starter configuration. It refuses to
// clobber an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
