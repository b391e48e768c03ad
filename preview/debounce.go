package preview

import (
	"time"

	"github.com/buildflow/buildflow/bridge"
)

// scrollDebouncer coalesces scroll messages: only the latest position
// matters, and forwarding every intermediate one would spam the host with
// rectangle invalidations. The renderer already throttles; this is the
// host-side second stage.
type scrollDebouncer struct {
	window  time.Duration
	pending *bridge.Scroll
	timer   *time.Timer
	timerCh <-chan time.Time
	deliver func(bridge.Scroll)
}

func newScrollDebouncer(window time.Duration, deliver func(bridge.Scroll)) *scrollDebouncer {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	return &scrollDebouncer{window: window, deliver: deliver}
}

// add records the latest scroll position and (re)starts the window timer.
func (d *scrollDebouncer) add(s bridge.Scroll) {
	d.pending = &s
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.NewTimer(d.window)
	d.timerCh = d.timer.C
}

// timerC returns the channel that fires when the debounce window expires.
func (d *scrollDebouncer) timerC() <-chan time.Time {
	return d.timerCh
}

// flush delivers the pending position, if any, and resets.
func (d *scrollDebouncer) flush() {
	if d.pending == nil {
		return
	}
	s := *d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerCh = nil
	d.deliver(s)
}
