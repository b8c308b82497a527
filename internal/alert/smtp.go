package alert

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

// SMTPSender logs in as From and sends to To, upgrading with STARTTLS when offered.
type SMTPSender struct {
	client *mail.Client
	from   string
	to     string
}

func NewSMTPSender(cfg common.SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.From),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, common.KindError(common.ErrInvalidConfig, "smtp client", err)
	}
	return &SMTPSender{client: client, from: cfg.From, to: cfg.To}, nil
}

func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(s.to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
