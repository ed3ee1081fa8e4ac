package chatmsg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mentionwatch/idgen"
)

// ErrNotChatLine is returned for added nodes whose structural class does not
// mark them as a rendered chat line. Callers should discard these silently.
var ErrNotChatLine = errors.New("chatmsg: node is not a chat line")

// ErrNoAuthor is returned when a chat-line node has no username child. This
// is a structural-assumption violation: the single message fails, the
// pipeline does not.
var ErrNoAuthor = errors.New("chatmsg: chat line has no username child")

// Parser converts raw chat-line markup into Messages.
type Parser struct {
	sel LineSelectors
	ids idgen.Generator
}

// NewParser creates a Parser. Zero-value selectors fall back to the Twitch
// defaults; a nil generator falls back to UUIDv7.
func NewParser(sel LineSelectors, ids idgen.Generator) *Parser {
	sel.defaults()
	if ids == nil {
		ids = idgen.UUIDv7()
	}
	return &Parser{sel: sel, ids: ids}
}

// Parse converts the outer HTML of one added DOM node into a Message.
// All fields are computed here, once: same markup in, same fields out.
func (p *Parser) Parse(outerHTML string) (*Message, error) {
	root, err := parseFragment(outerHTML)
	if err != nil {
		return nil, fmt.Errorf("chatmsg: parse markup: %w", err)
	}
	if root == nil || !hasClass(root, p.sel.Line) {
		return nil, ErrNotChatLine
	}

	author := ""
	found := false
	var mentions []string
	var text strings.Builder

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			}
			continue
		}
		switch {
		case hasClass(c, p.sel.Username):
			if !found {
				author = strings.TrimSpace(collectText(c))
				found = true
			}
		case hasClass(c, p.sel.Mention):
			mentions = append(mentions, strings.TrimPrefix(strings.TrimSpace(collectText(c)), "@"))
		default:
			text.WriteString(collectText(c))
		}
	}

	if !found || author == "" {
		return nil, ErrNoAuthor
	}

	return &Message{
		ID:             p.ids(),
		ReceivedAt:     time.Now(),
		Author:         author,
		MentionedNames: mentions,
		PlainText:      cleanText(text.String()),
		RenderedHTML:   renderSafe(root),
	}, nil
}

// parseFragment parses markup as if inserted under a <div> and returns the
// first element node, which is the added chat-line node itself.
func parseFragment(markup string) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, nil
}
