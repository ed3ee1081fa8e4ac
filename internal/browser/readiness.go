package browser

import (
	"context"
	"fmt"
	"time"
)

// boolEvaluator runs a page script and returns its boolean result.
type boolEvaluator interface {
	EvalBool(ctx context.Context, js string) (bool, error)
}

// waitReady polls the host app's readiness marker at a fixed interval until
// it appears, the context expires, or the deadline passes. The poll stops
// exactly once, on first success.
func waitReady(ctx context.Context, ev boolEvaluator, query, attr string,
	interval, timeout time.Duration) error {

	js := fmt.Sprintf(`() => {
		const root = document.querySelector(%q);
		return root != null && root.getAttribute(%q) != null;
	}`, query, attr)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ready, err := ev.EvalBool(ctx, js)
		if err == nil && ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("browser: page not ready after %s", timeout)
		case <-ticker.C:
		}
	}
}

// loggedIn reports whether the logged-in marker is present.
func loggedIn(ctx context.Context, ev boolEvaluator, query string) (bool, error) {
	js := fmt.Sprintf(`() => document.querySelector(%q) != null`, query)
	return ev.EvalBool(ctx, js)
}
