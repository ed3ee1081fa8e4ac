package mentionwatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/browser"
	"github.com/hazyhaar/mentionwatch/internal/config"
	"github.com/hazyhaar/mentionwatch/internal/notify"
	"github.com/hazyhaar/mentionwatch/internal/observer"
)

type fakeDriver struct {
	mu    sync.Mutex
	evals []string
}

func (f *fakeDriver) Eval(_ context.Context, js string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals = append(f.evals, js)
	return nil
}

func (f *fakeDriver) EvalBool(_ context.Context, js string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals = append(f.evals, js)
	return true, nil
}

const lineAliceToBob = `<div class="chat-line__message">` +
	`<span class="chat-line__username">Alice</span>` +
	`<span class="mention-fragment">@Bob</span>` +
	`<span class="text-fragment">are you there</span>` +
	`</div>`

const linePlain = `<div class="chat-line__message">` +
	`<span class="chat-line__username">Carol</span>` +
	`<span class="text-fragment">good stream</span>` +
	`</div>`

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Defaults()
	cfg.Channel.URL = "https://www.twitch.tv/somechannel"
	sound := false
	cfg.Notify.Sound = &sound
	return cfg
}

// The whole pipeline over a fake page: a chat line mentioning the viewer
// lands in the history exactly once and fires exactly one notification.
func TestSession_MentionStoredAndNotifiedOnce(t *testing.T) {
	cfg := testConfig()
	notified := make(chan *chatmsg.Message, 8)
	s := New(cfg, nil, WithNotifiers(notify.Func(
		func(_ context.Context, msg *chatmsg.Message) error {
			notified <- msg
			return nil
		})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan observer.Event, 8)
	if err := s.startPipeline(ctx, &fakeDriver{}, events, "Bob"); err != nil {
		t.Fatalf("startPipeline: %v", err)
	}
	defer s.Stop()

	events <- observer.Event{Kind: observer.KindChatNode, HTML: linePlain}
	events <- observer.Event{Kind: observer.KindChatNode, HTML: lineAliceToBob}

	var got *chatmsg.Message
	select {
	case got = <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	if got.Author != "Alice" {
		t.Errorf("author = %q, want Alice", got.Author)
	}
	if got.PlainText != "are you there" {
		t.Errorf("plain text = %q, want %q", got.PlainText, "are you there")
	}
	if len(got.MentionedNames) != 1 || got.MentionedNames[0] != "Bob" {
		t.Errorf("mentioned = %v, want [Bob]", got.MentionedNames)
	}
	if got.ChannelURL != cfg.Channel.URL {
		t.Errorf("channel = %q, want %q", got.ChannelURL, cfg.Channel.URL)
	}

	select {
	case extra := <-notified:
		t.Fatalf("unexpected second notification: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}

	msgs, err := s.History().All(ctx)
	if err != nil {
		t.Fatalf("History.All: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("history len = %d, want 1", len(msgs))
	}
	if msgs[0].PlainText != "are you there" {
		t.Errorf("stored text = %q, want %q", msgs[0].PlainText, "are you there")
	}
}

func TestSession_ExtraTrackedNames(t *testing.T) {
	cfg := testConfig()
	cfg.Channel.TrackedNames = []string{"TeamTag"}

	notified := make(chan *chatmsg.Message, 8)
	s := New(cfg, nil, WithNotifiers(notify.Func(
		func(_ context.Context, msg *chatmsg.Message) error {
			notified <- msg
			return nil
		})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan observer.Event, 8)
	if err := s.startPipeline(ctx, &fakeDriver{}, events, "Bob"); err != nil {
		t.Fatalf("startPipeline: %v", err)
	}
	defer s.Stop()

	line := `<div class="chat-line__message">` +
		`<span class="chat-line__username">Dora</span>` +
		`<span class="mention-fragment">@teamtag</span>` +
		`<span class="text-fragment">nice play</span>` +
		`</div>`
	events <- observer.Event{Kind: observer.KindChatNode, HTML: line}

	select {
	case got := <-notified:
		if got.Author != "Dora" {
			t.Errorf("author = %q, want Dora", got.Author)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestSession_StopIsIdempotent(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan observer.Event)
	if err := s.startPipeline(ctx, &fakeDriver{}, events, "Bob"); err != nil {
		t.Fatalf("startPipeline: %v", err)
	}

	s.Stop()
	s.Stop()
}

type fakeProbe struct {
	loggedIn bool
	err      error
}

func (f *fakeProbe) LoggedIn(context.Context, string) (bool, error) {
	return f.loggedIn, f.err
}

func TestSession_ResolveViewer(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, nil)

	got := s.resolveViewer(context.Background(),
		&fakeProbe{loggedIn: true}, browser.StaticResolver("Bob"))
	if got != "Bob" {
		t.Errorf("viewer = %q, want Bob", got)
	}
}

// A missing signed-in viewer is a degraded state, not a halt: the session
// keeps running with only the configured names.
func TestSession_ResolveViewer_NotLoggedInDegrades(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, nil)

	got := s.resolveViewer(context.Background(),
		&fakeProbe{loggedIn: false}, browser.StaticResolver("Bob"))
	if got != "" {
		t.Errorf("viewer = %q, want empty", got)
	}
}

func TestSession_ResolveViewer_ProbeErrorDegrades(t *testing.T) {
	cfg := testConfig()
	s := New(cfg, nil)

	got := s.resolveViewer(context.Background(),
		&fakeProbe{err: errors.New("tab gone")}, browser.StaticResolver("Bob"))
	if got != "" {
		t.Errorf("viewer = %q, want empty", got)
	}
}

func TestSession_TrackedNamesIncludeViewer(t *testing.T) {
	cfg := testConfig()
	cfg.Channel.TrackedNames = []string{"Alt"}
	s := New(cfg, nil)

	names := s.trackedNames("Bob")
	if strings.Join(names, ",") != "Bob,Alt" {
		t.Errorf("tracked = %v, want [Bob Alt]", names)
	}
}
