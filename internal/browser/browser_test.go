package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestShouldBlock(t *testing.T) {
	blockSet := map[string]bool{"fonts": true, "media": true}

	if !shouldBlock(blockSet, "Font") {
		t.Error("Font: got unblocked, want blocked")
	}
	if !shouldBlock(blockSet, "media") {
		t.Error("media: got unblocked, want blocked")
	}
	if shouldBlock(blockSet, "stylesheet") {
		t.Error("stylesheet: got blocked, want unblocked")
	}
	if shouldBlock(blockSet, "document") {
		t.Error("document: got blocked, want unblocked")
	}
}

func TestShouldBlock_NeverBlocksImages(t *testing.T) {
	blockSet := map[string]bool{"images": true}
	if shouldBlock(blockSet, "Image") {
		t.Error("Image: got blocked; emote alt capture depends on images")
	}
}

type fakeEvaluator struct {
	result string
	err    error
	js     string
}

func (f *fakeEvaluator) EvalString(_ context.Context, js string) (string, error) {
	f.js = js
	return f.result, f.err
}

func TestMenuToggleResolver_Resolve(t *testing.T) {
	tab := &fakeEvaluator{result: "SomeViewer"}
	r := NewMenuToggleResolver(tab, IdentitySelectors{})

	name, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "SomeViewer" {
		t.Errorf("Resolve: got %q, want SomeViewer", name)
	}
	// The script must go through the disclosure control, twice.
	if got := strings.Count(tab.js, "toggle.click()"); got != 2 {
		t.Errorf("toggle activations in script: got %d, want 2", got)
	}
	if !strings.Contains(tab.js, `user-menu-toggle`) {
		t.Errorf("script missing default toggle selector: %s", tab.js)
	}
}

func TestMenuToggleResolver_MissingName(t *testing.T) {
	tab := &fakeEvaluator{result: "  "}
	r := NewMenuToggleResolver(tab, IdentitySelectors{})

	if _, err := r.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve: expected error for empty display name")
	}
}

func TestMenuToggleResolver_EvalError(t *testing.T) {
	tab := &fakeEvaluator{err: errors.New("page gone")}
	r := NewMenuToggleResolver(tab, IdentitySelectors{})

	if _, err := r.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve: expected error when eval fails")
	}
}

func TestStaticResolver(t *testing.T) {
	name, err := StaticResolver("Bob").Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if name != "Bob" {
		t.Errorf("Resolve: got %q, want Bob", name)
	}
}
