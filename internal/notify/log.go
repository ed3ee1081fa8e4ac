package notify

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/mentionwatch/chatmsg"
)

// Log emits one structured line per mention: timestamp, author, text.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, msg *chatmsg.Message) error {
	l.logger.Info("mention received",
		"at", msg.ReceivedAt,
		"author", msg.Author,
		"text", msg.PlainText,
		"channel", msg.ChannelURL)
	return nil
}

func (l *Log) Close() error { return nil }
