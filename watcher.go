// Package mentionwatch watches a live Twitch chat for mentions of the
// signed-in viewer. It drives a real browser tab, observes the chat
// container for new message nodes, and records and announces every line
// that mentions a tracked name.
//
// mentionwatch observes one channel per session. Create a Session, Start
// it, and Stop it when done.
package mentionwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/browser"
	"github.com/hazyhaar/mentionwatch/internal/config"
	"github.com/hazyhaar/mentionwatch/internal/history"
	"github.com/hazyhaar/mentionwatch/internal/mention"
	"github.com/hazyhaar/mentionwatch/internal/notify"
	"github.com/hazyhaar/mentionwatch/internal/observer"
	"github.com/hazyhaar/mentionwatch/internal/panel"
)

// Session is the top-level orchestrator. It manages the browser, the chat
// observer, the mention matcher, and the history store. Create one per
// watched channel.
type Session struct {
	cfg    *config.Config
	logger *slog.Logger

	mgr      *browser.Manager
	resolver browser.IdentityResolver
	extra    []notify.Notifier

	mu     sync.Mutex
	tab    *browser.Tab
	obs    *observer.Observer
	store  *history.Store
	router *notify.Router
	viewer string
}

// Option adjusts a Session before Start.
type Option func(*Session)

// WithIdentityResolver overrides how the viewer's display name is
// discovered. The default clicks through the page's user menu.
func WithIdentityResolver(r browser.IdentityResolver) Option {
	return func(s *Session) { s.resolver = r }
}

// WithNotifiers adds notification outputs beyond the configured ones.
func WithNotifiers(notifiers ...notify.Notifier) Option {
	return func(s *Session) { s.extra = append(s.extra, notifiers...) }
}

// New creates a Session from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		cfg:    cfg,
		logger: logger,
		mgr: browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.Remote,
			Headful:          cfg.Browser.Headful,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			Logger:           logger,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the browser, opens the channel page, waits for the chat
// app to be ready and the viewer to be signed in, then begins observing.
// It returns once observation is running; mentions flow until Stop or
// context cancellation.
func (s *Session) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	if _, err := s.mgr.Start(ctx); err != nil {
		return fmt.Errorf("mentionwatch: start browser: %w", err)
	}

	tab, err := browser.OpenTab(ctx, s.mgr, s.cfg.Channel.URL)
	if err != nil {
		s.mgr.Close()
		return fmt.Errorf("mentionwatch: open tab: %w", err)
	}
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()

	obsCfg := s.cfg.Observer
	if err := tab.WaitReady(ctx, obsCfg.ReadyQuery, obsCfg.ReadyAttr,
		obsCfg.ReadyInterval, obsCfg.ReadyTimeout); err != nil {
		s.Stop()
		return fmt.Errorf("mentionwatch: page never became ready: %w", err)
	}

	resolver := s.resolver
	if resolver == nil {
		resolver = browser.NewMenuToggleResolver(tab, obsCfg.Identity)
	}
	viewer := s.resolveViewer(ctx, tab, resolver)
	if len(s.trackedNames(viewer)) == 0 {
		s.logger.Warn("mentionwatch: no tracked names, nothing will match")
	}

	events, err := tab.Events(ctx, s.logger)
	if err != nil {
		s.Stop()
		return fmt.Errorf("mentionwatch: event binding: %w", err)
	}

	if err := s.startPipeline(ctx, tab, events, viewer); err != nil {
		s.Stop()
		return err
	}

	s.logger.Info("mentionwatch: observing channel",
		"url", s.cfg.Channel.URL, "tracked", s.trackedNames(viewer))
	return nil
}

// loggedInProbe is the slice of the tab the signed-in gate needs.
type loggedInProbe interface {
	LoggedIn(ctx context.Context, query string) (bool, error)
}

// resolveViewer applies the signed-in gate and reads the viewer's display
// name. Every failure degrades to an empty viewer: the session stays
// resident tracking only the configured names, which may mean matching
// nothing at all.
func (s *Session) resolveViewer(ctx context.Context, probe loggedInProbe,
	resolver browser.IdentityResolver) string {

	loggedIn, err := probe.LoggedIn(ctx, s.cfg.Observer.LoggedInQuery)
	if err != nil {
		s.logger.Warn("mentionwatch: logged-in check", "error", err)
		return ""
	}
	if !loggedIn {
		s.logger.Warn("mentionwatch: no signed-in viewer, tracking configured names only",
			"url", s.cfg.Channel.URL)
		return ""
	}

	viewer, err := resolver.Resolve(ctx)
	if err != nil {
		s.logger.Warn("mentionwatch: resolve viewer name", "error", err)
		return ""
	}
	s.logger.Info("mentionwatch: viewer identified", "name", viewer)
	return viewer
}

// startPipeline wires the store, notifiers, matcher, and observer over an
// already-prepared event source.
func (s *Session) startPipeline(ctx context.Context, drv observer.Driver,
	events <-chan observer.Event, viewer string) error {

	store, err := history.Open(s.cfg.History.Path)
	if err != nil {
		return fmt.Errorf("mentionwatch: open history: %w", err)
	}

	notifiers := []notify.Notifier{notify.NewLog(s.logger)}
	if s.cfg.SoundEnabled() {
		snd, err := notify.NewSound()
		if err != nil {
			s.logger.Warn("mentionwatch: sound unavailable", "error", err)
		} else {
			notifiers = append(notifiers, snd)
		}
	}
	if s.cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers,
			notify.NewWebhook(s.cfg.Notify.WebhookURL, notify.WithWebhookLogger(s.logger)))
	}
	notifiers = append(notifiers, s.extra...)
	router := notify.NewRouter(s.logger, notifiers...)

	tracker := mention.NewTracker(s.trackedNames(viewer)...)
	matcher := mention.NewMatcher(tracker, store, router, s.logger)

	obs := observer.New(observer.Config{
		Driver:         drv,
		Events:         events,
		Parser:         chatmsg.NewParser(s.cfg.Observer.Line, nil),
		ContainerClass: s.cfg.Observer.ContainerClass,
		PageURL:        s.cfg.Channel.URL,
		OnMessage: func(ctx context.Context, msg *chatmsg.Message) {
			if _, err := matcher.Evaluate(ctx, msg); err != nil {
				s.logger.Error("mentionwatch: handle mention", "error", err)
			}
		},
		SettleDelay:      s.cfg.Observer.SettleDelay,
		ReattachAttempts: s.cfg.Observer.ReattachAttempts,
		ReattachDelay:    s.cfg.Observer.ReattachDelay,
		Logger:           s.logger,
	})
	obs.SetContext(ctx)

	if err := obs.Start(); err != nil {
		store.Close()
		router.Close()
		return fmt.Errorf("mentionwatch: start observer: %w", err)
	}

	s.mu.Lock()
	s.store = store
	s.router = router
	s.obs = obs
	s.viewer = viewer
	s.mu.Unlock()

	if s.cfg.Panel.Listen != "" {
		p := panel.New(store, s.logger)
		go func() {
			if err := p.Serve(ctx, s.cfg.Panel.Listen); err != nil {
				s.logger.Error("mentionwatch: panel stopped", "error", err)
			}
		}()
	}

	return nil
}

// trackedNames is the viewer's display name plus any configured extras.
func (s *Session) trackedNames(viewer string) []string {
	names := make([]string, 0, len(s.cfg.Channel.TrackedNames)+1)
	if viewer != "" {
		names = append(names, viewer)
	}
	return append(names, s.cfg.Channel.TrackedNames...)
}

// Viewer reports the resolved display name of the signed-in viewer. Empty
// until Start succeeds.
func (s *Session) Viewer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer
}

// History exposes the session's mention store.
func (s *Session) History() *history.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Stop gracefully shuts down the observer, notifiers, history store, and
// browser. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.obs != nil {
		s.obs.Stop()
		s.obs = nil
	}
	if s.router != nil {
		s.router.Close()
		s.router = nil
	}
	if s.store != nil {
		s.store.Close()
		s.store = nil
	}
	if s.tab != nil {
		s.tab.Close()
		s.tab = nil
	}
	s.mgr.Close()
}
