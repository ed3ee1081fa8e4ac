package browser

import (
	"context"
	"fmt"
	"strings"
)

// IdentityResolver obtains the signed-in viewer's display name. The host UI
// offers no direct read, so the concrete resolver has to go through the
// page's own identity-disclosure control; keeping it behind an interface
// makes that strategy swappable and mockable.
type IdentityResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// IdentitySelectors names the host controls involved in reading the
// signed-in display name.
type IdentitySelectors struct {
	// MenuToggle is the user-menu disclosure control.
	MenuToggle string `yaml:"menu_toggle"`
	// DisplayName is the element carrying the rendered display name once
	// the menu has been toggled into the DOM.
	DisplayName string `yaml:"display_name"`
}

// DefaultIdentitySelectors returns the Twitch controls.
func DefaultIdentitySelectors() IdentitySelectors {
	return IdentitySelectors{
		MenuToggle:  `button[data-a-target="user-menu-toggle"]`,
		DisplayName: `h6[data-a-target="user-display-name"]`,
	}
}

func (s *IdentitySelectors) defaults() {
	d := DefaultIdentitySelectors()
	if s.MenuToggle == "" {
		s.MenuToggle = d.MenuToggle
	}
	if s.DisplayName == "" {
		s.DisplayName = d.DisplayName
	}
}

// evaluator is the script surface the resolver needs; *Tab satisfies it.
type evaluator interface {
	EvalString(ctx context.Context, js string) (string, error)
}

// MenuToggleResolver reads the display name by activating the user menu
// toggle twice: the first activation renders the dropdown (and the name)
// into the DOM, the second puts the menu away again. The toggle visibly
// flickers for a moment; no other access path is documented.
type MenuToggleResolver struct {
	tab evaluator
	sel IdentitySelectors
}

// NewMenuToggleResolver creates a resolver over the given tab. Zero-value
// selectors fall back to the Twitch defaults.
func NewMenuToggleResolver(tab evaluator, sel IdentitySelectors) *MenuToggleResolver {
	sel.defaults()
	return &MenuToggleResolver{tab: tab, sel: sel}
}

// Resolve returns the signed-in display name, or an error when the menu
// toggle or name element is missing.
func (r *MenuToggleResolver) Resolve(ctx context.Context) (string, error) {
	js := fmt.Sprintf(`() => {
		const toggle = document.querySelector(%q);
		if (toggle == null) {
			return "";
		}
		toggle.click();
		toggle.click();
		const name = document.querySelector(%q);
		return name != null ? name.innerText : "";
	}`, r.sel.MenuToggle, r.sel.DisplayName)

	name, err := r.tab.EvalString(ctx, js)
	if err != nil {
		return "", fmt.Errorf("browser: resolve identity: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("browser: display name not found in page")
	}
	return name, nil
}

// StaticResolver returns a fixed name. Used when the operator configures
// tracked names directly, and in tests.
type StaticResolver string

func (s StaticResolver) Resolve(context.Context) (string, error) {
	return string(s), nil
}
