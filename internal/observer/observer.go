// Package observer attaches to the live chat container of an observed page
// and turns DOM insertions into parsed chat messages. It combines an
// injected MutationObserver (shipped through a CDP binding) with a single
// processing goroutine, so events are handled strictly in arrival order.
package observer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/mentionwatch/chatmsg"
)

//go:embed observer.js
var observerJS string

// Driver is the subset of browser-tab behaviour the observer needs. The
// rod-backed tab implements it; tests substitute a fake.
type Driver interface {
	// Eval runs a script in the page, discarding its result.
	Eval(ctx context.Context, js string) error
	// EvalBool runs a script and returns its boolean result.
	EvalBool(ctx context.Context, js string) (bool, error)
}

// MessageFunc receives each successfully parsed chat message, in order.
type MessageFunc func(ctx context.Context, msg *chatmsg.Message)

// Config for creating an Observer.
type Config struct {
	Driver Driver
	// Events feeds page signals in arrival order. The browser tab owns the
	// binding listener and closes over this channel.
	Events <-chan Event
	Parser *chatmsg.Parser
	// OnMessage is invoked for every parsed, filtered chat line.
	OnMessage MessageFunc

	// ContainerClass locates the chat message list. Default:
	// "chat-list__list-container".
	ContainerClass string
	// PageURL is the URL being observed, stamped onto parsed messages.
	PageURL string

	// SettleDelay is how long to wait after a navigation signal before
	// reattaching, letting the new page's DOM settle. Default: 500ms.
	SettleDelay time.Duration
	// ReattachAttempts bounds reattachment tries per navigation signal.
	// Default: 5.
	ReattachAttempts int
	// ReattachDelay is the pause between reattachment tries. Default: 500ms.
	ReattachDelay time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ContainerClass == "" {
		c.ContainerClass = "chat-list__list-container"
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.ReattachAttempts <= 0 {
		c.ReattachAttempts = 5
	}
	if c.ReattachDelay <= 0 {
		c.ReattachDelay = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Observer manages attachment to one page's chat container.
type Observer struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	attached bool
	pageURL  string
}

// New creates an Observer. Call Start to inject the page script and begin
// processing events.
func New(cfg Config) *Observer {
	cfg.defaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Observer{cfg: cfg, ctx: ctx, cancel: cancel, pageURL: cfg.PageURL}
}

// SetContext ties the observer lifetime to the parent session. The context
// pair created in New is released before being replaced.
func (o *Observer) SetContext(ctx context.Context) {
	if o.cancel != nil {
		o.cancel()
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
}

// Start injects the observer script, attempts the initial attachment, and
// launches the processing loop. A missing chat container is not fatal: the
// observer stays up and retries on the next navigation signal.
func (o *Observer) Start() error {
	if err := o.inject(); err != nil {
		return fmt.Errorf("observer: inject script: %w", err)
	}

	if !o.TryAttach(o.ctx) {
		o.cfg.Logger.Warn("observer: chat container not found, waiting for navigation",
			"url", o.pageURL)
	}

	go o.loop()
	return nil
}

// Stop detaches and halts the processing loop. Safe to call repeatedly.
func (o *Observer) Stop() {
	o.Detach()
	o.cancel()
}

// TryAttach binds the page-side MutationObserver to the chat container.
// Returns false when the container is not present. Calling it while already
// attached is a no-op success.
func (o *Observer) TryAttach(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.attached {
		return true
	}

	js := fmt.Sprintf("() => window.__mentionwatch.attach(%q)", o.cfg.ContainerClass)
	ok, err := o.cfg.Driver.EvalBool(ctx, js)
	if err != nil {
		o.cfg.Logger.Error("observer: attach failed", "error", err)
		return false
	}
	if !ok {
		return false
	}

	o.attached = true
	o.cfg.Logger.Info("observer: attached to chat", "url", o.pageURL)
	return true
}

// Detach disconnects the page-side MutationObserver. Idempotent: calling it
// while detached is a guarded no-op.
func (o *Observer) Detach() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.attached {
		return
	}

	if err := o.cfg.Driver.Eval(o.ctx, "() => window.__mentionwatch.detach()"); err != nil {
		o.cfg.Logger.Warn("observer: detach script failed", "error", err)
	}
	o.attached = false
	o.cfg.Logger.Info("observer: detached from chat")
}

// Attached reports the current attachment state.
func (o *Observer) Attached() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attached
}

func (o *Observer) inject() error {
	return o.cfg.Driver.Eval(o.ctx, observerJS)
}

// loop is the single processing goroutine: all parsing, matching side
// effects, and attachment transitions run here, in arrival order.
func (o *Observer) loop() {
	for {
		select {
		case <-o.ctx.Done():
			return
		case ev, ok := <-o.cfg.Events:
			if !ok {
				return
			}
			switch ev.Kind {
			case KindChatNode:
				o.handleChatNode(ev)
			case KindNavigate:
				o.handleNavigate(ev.URL)
			default:
				o.cfg.Logger.Warn("observer: unknown event kind", "kind", ev.Kind)
			}
		}
	}
}

// handleChatNode parses one added node. A malformed node fails alone: it is
// logged and skipped, never aborting the loop.
func (o *Observer) handleChatNode(ev Event) {
	msg, err := o.cfg.Parser.Parse(ev.HTML)
	if errors.Is(err, chatmsg.ErrNotChatLine) {
		return
	}
	if err != nil {
		o.cfg.Logger.Warn("observer: skipping malformed chat node", "error", err)
		return
	}
	msg.ChannelURL = o.currentURL()

	if o.cfg.OnMessage != nil {
		o.cfg.OnMessage(o.ctx, msg)
	}
}

func (o *Observer) currentURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pageURL
}

func (o *Observer) setURL(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pageURL = url
}
