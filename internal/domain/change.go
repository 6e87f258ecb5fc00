package domain

import "time"

// ChangeType is the kind of a detected file change.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"

	// ChangeRenamed is reserved. Renames are reported as a deleted and a created change.
	ChangeRenamed ChangeType = "renamed"
)

// FileChange is a single change found by comparing two snapshots.
type FileChange struct {
	Type      ChangeType `json:"type"`
	Path      string     `json:"path"`
	Timestamp time.Time  `json:"timestamp"`
}
