package alert

import (
	"log/slog"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

// NewSenderFromConfig prefers Resend when an API key is configured, SMTP otherwise.
func NewSenderFromConfig(cfg *common.Config, logger *slog.Logger) (Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Resend.APIKey != "" {
		logger.Info("alerts via resend", "to", cfg.SMTP.To)
		return NewResendSender(cfg.Resend.APIKey, cfg.Resend.From, cfg.SMTP.To), nil
	}
	logger.Info("alerts via smtp", "server", cfg.SMTP.Server, "port", cfg.SMTP.Port, "to", cfg.SMTP.To)
	return NewSMTPSender(cfg.SMTP)
}
