// Package mention decides whether a parsed chat message mentions a tracked
// identity and drives the side effects of a confirmed mention: one history
// append and one notification per message, never more.
package mention

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/notify"
)

// Tracker is the tracked-identity set. Built once at session bootstrap and
// read-only afterwards, so it needs no synchronisation.
type Tracker struct {
	names []string
}

// NewTracker builds a Tracker from usernames. Empty strings are dropped and
// case-insensitive duplicates collapse to the first spelling.
func NewTracker(names ...string) *Tracker {
	t := &Tracker{}
	for _, n := range names {
		n = strings.TrimSpace(strings.TrimPrefix(n, "@"))
		if n == "" || t.Matches(n) {
			continue
		}
		t.names = append(t.names, n)
	}
	return t
}

// Matches reports whether candidate equals any tracked name,
// case-insensitively.
func (t *Tracker) Matches(candidate string) bool {
	for _, n := range t.names {
		if strings.EqualFold(n, candidate) {
			return true
		}
	}
	return false
}

// Names returns a copy of the tracked names.
func (t *Tracker) Names() []string {
	return append([]string(nil), t.names...)
}

// Empty reports whether no identity is tracked. The matcher degrades to a
// no-op in that state.
func (t *Tracker) Empty() bool {
	return len(t.names) == 0
}

// Store is the subset of the history store the matcher needs.
type Store interface {
	Append(ctx context.Context, msg *chatmsg.Message) error
}

// Matcher evaluates parsed messages against the tracked set.
type Matcher struct {
	tracker  *Tracker
	store    Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewMatcher creates a Matcher. Store and notifier may each be nil, in
// which case that side effect is skipped.
func NewMatcher(tracker *Tracker, store Store, notifier notify.Notifier, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{tracker: tracker, store: store, notifier: notifier, logger: logger}
}

// Evaluate checks one message and, on a mention, stores it and notifies —
// at most once per message. Tracked identities are iterated only to decide
// match or no match, so several tracked names matching one message (or one
// name mentioned several times) still produce a single store and a single
// notification. Returns whether the message matched.
func (m *Matcher) Evaluate(ctx context.Context, msg *chatmsg.Message) (bool, error) {
	matched := false
	for _, name := range m.tracker.Names() {
		if msg.Mentions(name) {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	m.logger.Info("mention matched",
		"at", msg.ReceivedAt,
		"author", msg.Author,
		"text", msg.PlainText)

	if m.store != nil {
		if err := m.store.Append(ctx, msg); err != nil {
			return true, fmt.Errorf("mention: store: %w", err)
		}
	}
	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, msg); err != nil {
			return true, fmt.Errorf("mention: notify: %w", err)
		}
	}
	return true, nil
}
