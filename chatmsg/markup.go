package chatmsg

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markupPolicy keeps text content, structural classes, and emote images.
// Everything interactive (handlers, inline styles, pointer affordances) is
// stripped, so history redisplay is inert.
var markupPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("a", "b", "br", "div", "em", "i", "img", "p", "span", "strong")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowStandardURLs()
	return p
}()

// renderSafe produces a redisplay-safe copy of the chat-line markup:
// lazy-loading emote placeholders are force-revealed so history playback
// shows final rendered emotes, then the result is sanitised.
func renderSafe(root *html.Node) string {
	revealLazyImages(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return ""
	}
	return markupPolicy.Sanitize(buf.String())
}

// revealLazyImages swaps data-src into src on image elements that were
// still waiting on their lazy loader when the node was captured.
func revealLazyImages(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		if lazy := attrVal(n, "data-src"); lazy != "" {
			setAttr(n, "src", lazy)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		revealLazyImages(c)
	}
}

// StripMarkup is a convenience for consumers that only want text from stored
// rendered markup. Parsing failures degrade to the raw input.
func StripMarkup(markup string) string {
	root, err := parseFragment(markup)
	if err != nil || root == nil {
		return strings.TrimSpace(markup)
	}
	return cleanText(collectText(root))
}
