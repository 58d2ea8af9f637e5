package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/omidkh/netwatch/internal/domain"
)

// Email sends alerts through a plain SMTP relay with STARTTLS.
type Email struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

func NewEmail(host string, port int, username, password, from string, to []string) *Email {
	if port == 0 {
		port = 587
	}
	return &Email{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		To:       to,
	}
}

func (e *Email) Notify(_ context.Context, ev domain.AlertEvent) error {
	if e.Host == "" || len(e.To) == 0 {
		return fmt.Errorf("email notifier not configured")
	}

	subject := fmt.Sprintf("RECOVERY: %s is UP", ev.Target.Name)
	if ev.Transition == domain.WentDown {
		subject = fmt.Sprintf("ALERT: %s is DOWN", ev.Target.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\nTarget: %s\r\nEndpoint: %s\r\nTime: %s\r\n",
		ev.Message, ev.Target.Name, ev.Target.Endpoint(), ev.At.Format(time.RFC3339))

	addr := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	var auth smtp.Auth
	if e.Username != "" {
		auth = smtp.PlainAuth("", e.Username, e.Password, e.Host)
	}
	if err := smtp.SendMail(addr, auth, e.From, e.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
