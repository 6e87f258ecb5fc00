package watcher

import "time"

// Options configures the watch loop.
type Options struct {
	// Interval between scheduled scans.
	Interval time.Duration
	// Nudge adds an fsnotify watcher on OS-backed workspaces that triggers
	// an early check after changes settle. Polling stays authoritative.
	Nudge bool
	// SettleDelay is how long nudges wait for a burst of events to end.
	SettleDelay time.Duration
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = 3 * time.Second
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 250 * time.Millisecond
	}
}
