// Package chatmsg defines the parsed chat message type and the parser that
// produces it from a raw chat-line DOM node. This is the public API contract:
// any consumer (matcher, history store, panel) imports this package.
package chatmsg

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is one parsed chat line. All fields are computed eagerly at parse
// time from the frozen node markup, so a Message is immutable after
// construction.
type Message struct {
	ID         string    `json:"id"`          // UUIDv7
	ReceivedAt time.Time `json:"received_at"` // local clock at parse time

	Author         string   `json:"author"`
	MentionedNames []string `json:"mentioned_names,omitempty"` // leading "@" stripped, DOM order
	PlainText      string   `json:"plain_text"`

	// RenderedHTML is a sanitised, redisplay-safe copy of the line's markup.
	// Lazy-load placeholders are revealed and interactive affordances removed.
	RenderedHTML string `json:"rendered_html,omitempty"`

	ChannelURL string `json:"channel_url,omitempty"`
}

// Mentions reports whether any mentioned name equals name, compared
// case-insensitively.
func (m *Message) Mentions(name string) bool {
	for _, n := range m.MentionedNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// MarshalMessages serialises an ordered message sequence to JSON. The
// history store keeps its whole sequence as one such document.
func MarshalMessages(msgs []*Message) ([]byte, error) {
	return json.Marshal(msgs)
}

// UnmarshalMessages deserialises an ordered message sequence from JSON.
func UnmarshalMessages(data []byte) ([]*Message, error) {
	var msgs []*Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
