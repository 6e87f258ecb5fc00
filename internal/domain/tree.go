package domain

import "time"

// NodeKind distinguishes files from folders in a workspace tree.
type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindFolder NodeKind = "folder"
)

// TreeNode is one file or folder in a built workspace tree.
// ID always equals Path. Only folders carry Children; only files carry
// Extension, Size and LastModified.
type TreeNode struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Path string   `json:"path"`
	Kind NodeKind `json:"kind"`

	Children []*TreeNode `json:"children,omitempty"`

	Extension    string     `json:"extension,omitempty"`
	Size         *int64     `json:"size,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// NewFolderNode returns a folder node. children may be empty but is never nil,
// so an empty folder still serializes its children list.
func NewFolderNode(name, path string, children []*TreeNode) *TreeNode {
	if children == nil {
		children = []*TreeNode{}
	}
	return &TreeNode{
		ID:       path,
		Name:     name,
		Path:     path,
		Kind:     NodeKindFolder,
		Children: children,
	}
}

// NewFileNode returns a file node with its metadata.
func NewFileNode(name, path, ext string, size int64, modified time.Time) *TreeNode {
	return &TreeNode{
		ID:           path,
		Name:         name,
		Path:         path,
		Kind:         NodeKindFile,
		Extension:    ext,
		Size:         &size,
		LastModified: &modified,
	}
}

// IsFolder reports whether n is a folder node.
func (n *TreeNode) IsFolder() bool {
	return n.Kind == NodeKindFolder
}

// Find returns the node at path, searching depth first, or nil.
func Find(nodes []*TreeNode, path string) *TreeNode {
	for _, n := range nodes {
		if n.Path == path {
			return n
		}
		if n.IsFolder() {
			if found := Find(n.Children, path); found != nil {
				return found
			}
		}
	}
	return nil
}

// Walk calls fn for every node in depth-first pre-order.
func Walk(nodes []*TreeNode, fn func(*TreeNode)) {
	for _, n := range nodes {
		fn(n)
		if n.IsFolder() {
			Walk(n.Children, fn)
		}
	}
}
