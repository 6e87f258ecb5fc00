// Package sse implements Server-Sent Events for pushing workspace changes to the display layer.
package sse

import (
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventFileCreated is sent when the watch loop finds a new file.
	EventFileCreated EventType = "file.created"
	// EventFileModified is sent when a file's size or modification time changed.
	EventFileModified EventType = "file.modified"
	// EventFileDeleted is sent when a file disappeared.
	EventFileDeleted EventType = "file.deleted"

	// EventWorkspaceSelected is sent when a workspace is selected or restored.
	EventWorkspaceSelected EventType = "workspace.selected"
	// EventWorkspaceCleared is sent when the workspace is forgotten.
	EventWorkspaceCleared EventType = "workspace.cleared"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// FileEventData is the data payload for file events.
type FileEventData struct {
	Path       string    `json:"path"`
	DetectedAt time.Time `json:"detected_at"`
}

// WorkspaceEventData is the data payload for workspace events.
type WorkspaceEventData struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewFileChangeEvent converts a detected change into its SSE event.
// ok is false for change types that have no event.
func NewFileChangeEvent(change domain.FileChange) (Event, bool) {
	var t EventType
	switch change.Type {
	case domain.ChangeCreated:
		t = EventFileCreated
	case domain.ChangeModified:
		t = EventFileModified
	case domain.ChangeDeleted:
		t = EventFileDeleted
	default:
		return Event{}, false
	}

	return Event{
		Type: t,
		Data: FileEventData{
			Path:       change.Path,
			DetectedAt: change.Timestamp,
		},
		Timestamp: time.Now(),
	}, true
}

// NewWorkspaceSelectedEvent creates a workspace.selected event.
func NewWorkspaceSelectedEvent(id, name string) Event {
	return Event{
		Type:      EventWorkspaceSelected,
		Data:      WorkspaceEventData{ID: id, Name: name},
		Timestamp: time.Now(),
	}
}

// NewWorkspaceClearedEvent creates a workspace.cleared event.
func NewWorkspaceClearedEvent() Event {
	return Event{
		Type:      EventWorkspaceCleared,
		Data:      WorkspaceEventData{},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
