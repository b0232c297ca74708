// Package notifier tells customers and the care team about outcomes.
package notifier

import (
	"context"
	"log/slog"

	"careloop/app/util/mylog"

	"github.com/samber/do"
)

type Notification struct {
	CustomerID string
	To         string
	Subject    string
	Body       string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. Records are tagged for the
// Telegram handler so the care team sees them in chat.
type LogNotifier struct{}

func New(_ *do.Injector) (Notifier, error) {
	return LogNotifier{}, nil
}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	slog.InfoContext(ctx, "Customer notified",
		slog.String("customer_id", n.CustomerID),
		slog.String("to", n.To),
		slog.String("subject", n.Subject),
		slog.String("body", n.Body),
		slog.Bool(mylog.TelegramKey, true),
	)

	return nil
}
