package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

// Sender delivers one plain-text message to the configured operator address.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// Observer is told the result of every delivery attempt.
type Observer interface {
	ObserveAlert(err error)
}

// Alerter is a best-effort notifier: delivery failures are logged, never returned.
type Alerter struct {
	sender   Sender
	observer Observer
	logger   *slog.Logger
}

func NewAlerter(sender Sender, observer Observer, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{sender: sender, observer: observer, logger: logger}
}

func Subject(subjectContext string) string {
	return "Document Processing Error for " + subjectContext
}

func Body(subjectContext, errText string) string {
	return fmt.Sprintf("Error processing file %s: %s", subjectContext, errText)
}

// Notify sends one alert. subjectContext is a file name or a connection phase such as "FTP Connection".
func (a *Alerter) Notify(ctx context.Context, subjectContext, errText string) {
	logger := common.LoggerFrom(ctx, a.logger)

	err := a.sender.Send(ctx, Subject(subjectContext), Body(subjectContext, errText))
	if a.observer != nil {
		a.observer.ObserveAlert(err)
	}
	if err != nil {
		err = common.KindError(common.ErrAlertDelivery, "send alert for "+subjectContext, err)
		logger.Error("error sending email", "context", subjectContext, "error", err)
		return
	}
	logger.Info("alert sent", "context", subjectContext)
}
