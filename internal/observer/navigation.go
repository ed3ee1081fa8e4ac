package observer

import "time"

// handleNavigate processes an in-place navigation signal: detach from the
// old chat container (a guarded no-op when not attached), give the new
// page's DOM one settle delay, then attempt reattachment a bounded number
// of times. If the container never appears the observer logs and waits for
// the next navigation signal.
func (o *Observer) handleNavigate(newURL string) {
	o.cfg.Logger.Info("observer: navigation detected", "url", newURL)
	o.setURL(newURL)
	o.Detach()

	if !o.sleep(o.cfg.SettleDelay) {
		return
	}

	for attempt := 1; attempt <= o.cfg.ReattachAttempts; attempt++ {
		if o.TryAttach(o.ctx) {
			return
		}
		if attempt < o.cfg.ReattachAttempts && !o.sleep(o.cfg.ReattachDelay) {
			return
		}
	}

	o.cfg.Logger.Warn("observer: chat container not found after navigation",
		"url", newURL, "attempts", o.cfg.ReattachAttempts)
}

// sleep waits for d unless the observer is stopped first. Running it inside
// the processing loop means a second rapid navigation signal is simply
// queued behind the settle wait, so a stale deferred reattachment can never
// fire after a newer one.
func (o *Observer) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-o.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
