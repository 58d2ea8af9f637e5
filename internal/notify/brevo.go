package notify

import (
	"context"
	"fmt"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"

	"github.com/omidkh/netwatch/internal/domain"
)

// Brevo sends alert email through the Brevo transactional API. Useful where
// outbound SMTP is blocked; otherwise the plain Email notifier does the job.
type Brevo struct {
	client *brevo.APIClient
	from   string
	to     []string
}

func NewBrevo(apiKey, from string, to []string) *Brevo {
	if apiKey == "" {
		return nil
	}
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	return &Brevo{
		client: brevo.NewAPIClient(cfg),
		from:   from,
		to:     to,
	}
}

func (b *Brevo) Notify(ctx context.Context, ev domain.AlertEvent) error {
	if b == nil || b.client == nil {
		return fmt.Errorf("brevo disabled")
	}

	subject := fmt.Sprintf("RECOVERY: %s is UP", ev.Target.Name)
	if ev.Transition == domain.WentDown {
		subject = fmt.Sprintf("ALERT: %s is DOWN", ev.Target.Name)
	}
	body := fmt.Sprintf("%s\n\nTarget: %s\nEndpoint: %s\nTime: %s\n",
		ev.Message, ev.Target.Name, ev.Target.Endpoint(), ev.At.Format(time.RFC3339))

	to := make([]brevo.SendSmtpEmailTo, 0, len(b.to))
	for _, addr := range b.to {
		to = append(to, brevo.SendSmtpEmailTo{Email: addr})
	}
	email := brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Name: "netwatch", Email: b.from},
		To:          to,
		Subject:     subject,
		TextContent: body,
	}

	if _, _, err := b.client.TransactionalEmailsApi.SendTransacEmail(ctx, email); err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}
	return nil
}
