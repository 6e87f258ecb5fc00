package store

// Keys are namespaced as "<area>:<name>".
const (
	// keyWorkspaceRoot holds the single selected workspace record.
	keyWorkspaceRoot = "workspace:root"
)
