package chatmsg

import (
	"strings"
	"testing"
)

func TestParse_RenderedHTML_Sanitised(t *testing.T) {
	markup := `<div class="chat-line__message" onclick="steal()">` +
		`<span class="chat-line__username" style="cursor:pointer">Alice</span>` +
		`<span class="text-fragment">hi<script>alert(1)</script></span>` +
		`</div>`
	msg, err := testParser().Parse(markup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, bad := range []string{"onclick", "<script", "cursor:pointer"} {
		if strings.Contains(msg.RenderedHTML, bad) {
			t.Errorf("RenderedHTML contains %q: %s", bad, msg.RenderedHTML)
		}
	}
	if !strings.Contains(msg.RenderedHTML, "Alice") {
		t.Errorf("RenderedHTML lost author text: %s", msg.RenderedHTML)
	}
	if !strings.Contains(msg.RenderedHTML, `class="chat-line__username"`) {
		t.Errorf("RenderedHTML lost structural class: %s", msg.RenderedHTML)
	}
}

func TestParse_RenderedHTML_RevealsLazyEmotes(t *testing.T) {
	markup := `<div class="chat-line__message">` +
		`<span class="chat-line__username">Alice</span>` +
		`<span class="text-fragment"><img class="chat-image" alt="Kappa" src="data:image/gif;base64,R0lGOD" data-src="https://cdn.example/kappa.png"></span>` +
		`</div>`
	msg, err := testParser().Parse(markup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(msg.RenderedHTML, `src="https://cdn.example/kappa.png"`) {
		t.Errorf("RenderedHTML did not reveal lazy emote: %s", msg.RenderedHTML)
	}
}

func TestStripMarkup(t *testing.T) {
	got := StripMarkup(`<span>hello <img alt="Kappa" src="https://x/k.png"> world</span>`)
	if got != "hello Kappa world" {
		t.Errorf("StripMarkup: got %q, want %q", got, "hello Kappa world")
	}
}

func TestStripMarkup_PlainString(t *testing.T) {
	if got := StripMarkup("  just text  "); got != "just text" {
		t.Errorf("StripMarkup: got %q, want %q", got, "just text")
	}
}
