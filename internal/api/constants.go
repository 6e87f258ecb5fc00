package api

import "time"

// Route prefixes.
const (
	apiPrefix       = "/api/v1"
	forceCheckPath  = apiPrefix + "/workspace/watch/check"
	eventStreamPath = apiPrefix + "/events"
)

// Force check throttling defaults: a burst for the editor's own refreshes,
// then one check every few seconds per client.
const (
	DefaultForceCheckBurst    = 5
	DefaultForceCheckInterval = 2 * time.Second
)
