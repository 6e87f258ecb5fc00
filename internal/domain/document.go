package domain

import (
	"path"
	"strings"
	"time"
)

// Document is the editor's view of a workspace file.
// ID equals FilePath for workspace-backed documents. UpdatedAt and Size are
// derived from what is stored and are only set by the workspace service.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Size      int64     `json:"size"`
}

// NewDocument returns a document for filePath with the title derived from the file name.
func NewDocument(filePath, content string) *Document {
	return &Document{
		ID:       filePath,
		Title:    TitleFromPath(filePath),
		Content:  content,
		FilePath: filePath,
	}
}

// MarkStored records the outcome of a read or write.
func (d *Document) MarkStored(size int64, at time.Time) {
	d.ID = d.FilePath
	d.Size = size
	d.UpdatedAt = at
	if d.CreatedAt.IsZero() {
		d.CreatedAt = at
	}
}

// TitleFromPath returns the file name without its extension.
func TitleFromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
