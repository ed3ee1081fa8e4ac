package mentionwatch

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/notify"
)

// Notifier is the notification output interface. One call per matched
// message.
type Notifier = notify.Notifier

// NewWebhookNotifier creates a webhook POST notifier with retry.
func NewWebhookNotifier(url string, logger *slog.Logger) Notifier {
	return notify.NewWebhook(url, notify.WithWebhookLogger(logger))
}

// NewCallbackNotifier creates an in-process notifier invoking fn for each
// matched message.
func NewCallbackNotifier(fn func(ctx context.Context, msg *chatmsg.Message) error) Notifier {
	return notify.Func(fn)
}
