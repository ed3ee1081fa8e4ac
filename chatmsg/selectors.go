package chatmsg

// LineSelectors names the structural classes that mark the parts of a
// rendered chat line. The host page contract is data, not code: overriding
// these adapts the parser to markup changes without a rebuild.
type LineSelectors struct {
	// Line marks a node as a rendered chat line. Nodes without it
	// (system messages, subscription banners) are discarded before parsing.
	Line string `yaml:"line"`
	// Username marks the single child carrying the sender display name.
	Username string `yaml:"username"`
	// Mention marks a child referencing a specific username.
	Mention string `yaml:"mention"`
}

// DefaultLineSelectors returns the Twitch chat classes.
func DefaultLineSelectors() LineSelectors {
	return LineSelectors{
		Line:     "chat-line__message",
		Username: "chat-line__username",
		Mention:  "mention-fragment",
	}
}

func (s *LineSelectors) defaults() {
	d := DefaultLineSelectors()
	if s.Line == "" {
		s.Line = d.Line
	}
	if s.Username == "" {
		s.Username = d.Username
	}
	if s.Mention == "" {
		s.Mention = d.Mention
	}
}
