package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/text/cases"
)

func (s *Server) registerFilesystemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "browseFilesystem",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/filesystem",
		Summary:     "Browse directories",
		Description: "Lists the directories at a path so a workspace root can be picked",
		Tags:        []string{"Workspace"},
	}, s.handleBrowseFilesystem)
}

// === DTOs ===

// BrowseFilesystemInput contains parameters for browsing the filesystem.
type BrowseFilesystemInput struct {
	Path string `query:"path" doc:"Directory path to browse, defaults to the home directory"`
}

// DirectoryEntry represents a single directory in the filesystem.
type DirectoryEntry struct {
	Name string `json:"name" doc:"Directory name"`
	Path string `json:"path" doc:"Full path to directory"`
}

// BrowseFilesystemResponse contains the directory listing.
type BrowseFilesystemResponse struct {
	Path    string           `json:"path" doc:"Current path"`
	Parent  string           `json:"parent,omitempty" doc:"Parent directory path"`
	Entries []DirectoryEntry `json:"entries" doc:"Directories in this path"`
	IsRoot  bool             `json:"is_root" doc:"Whether this is the filesystem root"`
}

// BrowseFilesystemOutput wraps the response for Huma.
type BrowseFilesystemOutput struct {
	Body BrowseFilesystemResponse
}

// === Handler ===

func (s *Server) handleBrowseFilesystem(_ context.Context, input *BrowseFilesystemInput) (*BrowseFilesystemOutput, error) {
	path := input.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = string(filepath.Separator)
		}
		path = home
	}
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		return nil, huma.Error400BadRequest("path must be absolute")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, huma.Error404NotFound("directory not found")
		}
		if os.IsPermission(err) {
			return nil, huma.Error403Forbidden("permission denied")
		}
		return nil, huma.Error500InternalServerError("failed to access path")
	}
	if !info.IsDir() {
		return nil, huma.Error400BadRequest("path is not a directory")
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, huma.Error403Forbidden("permission denied reading directory")
		}
		return nil, huma.Error500InternalServerError("failed to read directory")
	}

	// Directories only, without hidden and system directories.
	entries := make([]DirectoryEntry, 0)
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || systemDirectories[name] {
			continue
		}
		entries = append(entries, DirectoryEntry{
			Name: name,
			Path: filepath.Join(path, name),
		})
	}

	fold := cases.Fold()
	slices.SortFunc(entries, func(a, b DirectoryEntry) int {
		return strings.Compare(fold.String(a.Name), fold.String(b.Name))
	})

	parent := filepath.Dir(path)
	isRoot := parent == path
	if isRoot {
		parent = ""
	}

	return &BrowseFilesystemOutput{
		Body: BrowseFilesystemResponse{
			Path:    path,
			Parent:  parent,
			Entries: entries,
			IsRoot:  isRoot,
		},
	}, nil
}

// systemDirectories are never offered as workspace roots.
var systemDirectories = map[string]bool{
	"proc":       true,
	"sys":        true,
	"dev":        true,
	"run":        true,
	"snap":       true,
	"lost+found": true,
	"boot":       true,
	"lib":        true,
	"lib32":      true,
	"lib64":      true,
	"libx32":     true,
	"sbin":       true,
	"bin":        true,
	"usr":        true,
	"etc":        true,
	"var":        true,
	"root":       true,
}
