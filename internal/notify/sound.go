package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"

	"github.com/hazyhaar/mentionwatch/chatmsg"
)

//go:embed notification.ogg
var notificationClip []byte

// speakerGate guards the process-wide audio device against a second Init.
// The first outcome, success or failure, is latched: a failed device keeps
// failing NewSound loudly instead of handing out a silent notifier.
type speakerGate struct {
	mu   sync.Mutex
	done bool
	err  error
	init func(sr beep.SampleRate, bufSize int) error
}

var defaultSpeaker = &speakerGate{init: speaker.Init}

func (g *speakerGate) ensure(format beep.Format) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done {
		g.done = true
		g.err = g.init(format.SampleRate, format.SampleRate.N(100*time.Millisecond))
	}
	return g.err
}

// Sound plays the embedded notification clip. Playback is fire-and-forget
// with no queue: overlapping triggers overlap in playback, which is fine
// since mentions are rare relative to the clip duration.
type Sound struct {
	clip   []byte
	format beep.Format
}

// NewSound initialises the audio device against the embedded clip's sample
// rate. The clip is decoded once here to validate it and fix the format;
// each Notify decodes a fresh streamer so plays never share state.
func NewSound() (*Sound, error) {
	return newSound(defaultSpeaker)
}

func newSound(gate *speakerGate) (*Sound, error) {
	streamer, format, err := vorbis.Decode(io.NopCloser(bytes.NewReader(notificationClip)))
	if err != nil {
		return nil, fmt.Errorf("notify: decode clip: %w", err)
	}
	streamer.Close()

	if err := gate.ensure(format); err != nil {
		return nil, fmt.Errorf("notify: speaker init: %w", err)
	}

	return &Sound{clip: notificationClip, format: format}, nil
}

func (s *Sound) Notify(_ context.Context, _ *chatmsg.Message) error {
	streamer, _, err := vorbis.Decode(io.NopCloser(bytes.NewReader(s.clip)))
	if err != nil {
		return fmt.Errorf("notify: decode clip: %w", err)
	}
	speaker.Play(beep.Seq(streamer, beep.Callback(func() { streamer.Close() })))
	return nil
}

func (s *Sound) Close() error { return nil }
