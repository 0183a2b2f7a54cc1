package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shawnuphold/wishpark/internal/config"
	"go.uber.org/zap"
)

// SendgridNotifier delivers mail through the SendGrid API.
type SendgridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	log       *zap.Logger
}

func NewSendgridNotifier(cfg config.Config, log *zap.Logger) *SendgridNotifier {
	return &SendgridNotifier{
		client:    sendgrid.NewSendClient(cfg.SendgridAPIKey),
		fromEmail: cfg.FromEmail,
		log:       log.Named("notify.sendgrid"),
	}
}

func (n *SendgridNotifier) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail("Wishpark Concierge", n.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	resp, err := n.client.SendWithContext(ctx, email)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	n.log.Debug("notification sent",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
	)
	return nil
}
