package domain

import "time"

// FileMeta is the per-file state used for change detection.
type FileMeta struct {
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Snapshot maps workspace-relative paths of included files to their metadata.
// Folders are not represented. A snapshot is never mutated after it is built.
type Snapshot map[string]FileMeta

// Equal reports whether m and o describe the same file state.
func (m FileMeta) Equal(o FileMeta) bool {
	return m.Size == o.Size && m.LastModified.Equal(o.LastModified)
}
