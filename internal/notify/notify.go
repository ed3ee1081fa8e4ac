// Package notify delivers mention notifications. Implementations are fanned
// out by a Router so a sound, a log line, and a webhook can fire from one
// match without blocking each other.
package notify

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/mentionwatch/chatmsg"
)

// Notifier is the output interface. One call per matched message.
type Notifier interface {
	Notify(ctx context.Context, msg *chatmsg.Message) error
	Close() error
}

// Func adapts a function into a Notifier. Used for in-process consumers
// that want matches without any serialisation.
type Func func(ctx context.Context, msg *chatmsg.Message) error

func (f Func) Notify(ctx context.Context, msg *chatmsg.Message) error {
	return f(ctx, msg)
}

func (f Func) Close() error { return nil }

// Router fans out notifications to all configured notifiers. One notifier
// error does not block the others; errors are logged and the first
// encountered is returned.
type Router struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewRouter creates a fan-out router delivering to all notifiers.
func NewRouter(logger *slog.Logger, notifiers ...Notifier) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{notifiers: notifiers, logger: logger}
}

func (r *Router) Notify(ctx context.Context, msg *chatmsg.Message) error {
	var firstErr error
	for _, n := range r.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			r.logger.Warn("notify: delivery failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, n := range r.notifiers {
		if err := n.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
