package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/mentionwatch/internal/observer"
)

// bindingName is the JS → Go channel the injected page script posts to.
const bindingName = "__mentionwatch_binding"

// Tab wraps a Rod page with the setup the session needs: stealth, optional
// resource blocking, the event binding, and readiness polling.
type Tab struct {
	Page    *rod.Page
	PageURL string
}

// OpenTab creates a stealth tab, navigates to the channel URL, and waits
// for the initial page load.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{Page: page, PageURL: pageURL}, nil
}

// Eval runs a script in the page, discarding its result. Implements
// observer.Driver.
func (t *Tab) Eval(ctx context.Context, js string) error {
	_, err := t.Page.Context(ctx).Eval(js)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	return nil
}

// EvalBool runs a script and returns its boolean result. Implements
// observer.Driver.
func (t *Tab) EvalBool(ctx context.Context, js string) (bool, error) {
	res, err := t.Page.Context(ctx).Eval(js)
	if err != nil {
		return false, fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Bool(), nil
}

// EvalString runs a script and returns its string result.
func (t *Tab) EvalString(ctx context.Context, js string) (string, error) {
	res, err := t.Page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Str(), nil
}

// WaitReady polls the host app's readiness marker until it appears or the
// deadline passes.
func (t *Tab) WaitReady(ctx context.Context, query, attr string, interval, timeout time.Duration) error {
	return waitReady(ctx, t, query, attr, interval, timeout)
}

// LoggedIn reports whether the logged-in marker is present.
func (t *Tab) LoggedIn(ctx context.Context, query string) (bool, error) {
	return loggedIn(ctx, t, query)
}

// Events registers the page binding and returns a channel of page signals
// in arrival order. The channel is serviced until ctx is canceled.
func (t *Tab) Events(ctx context.Context, logger *slog.Logger) (<-chan observer.Event, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(t.Page); err != nil {
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}

	ch := make(chan observer.Event, 1024)
	go func() {
		defer close(ch)
		t.Page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
			if e.Name != bindingName {
				return
			}
			var events []observer.Event
			if err := json.Unmarshal([]byte(e.Payload), &events); err != nil {
				logger.Warn("browser: bad binding payload", "error", err)
				return
			}
			for _, ev := range events {
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}
		})()
	}()

	return ch, nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
