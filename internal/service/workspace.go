package service

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/validation"
	"github.com/inkwellapp/inkwell-server/internal/watcher"
	"github.com/inkwellapp/inkwell-server/pkg/docx"
)

const docxExt = ".docx"

// Operation names recorded in metrics.
const (
	OpTree         = "tree"
	OpRead         = "read"
	OpSave         = "save"
	OpCreateFile   = "create_file"
	OpCreateFolder = "create_folder"
	OpDelete       = "delete"
	OpSelect       = "select"
	OpClear        = "clear"
	OpForceCheck   = "force_check"
)

// Handles holds the workspace root for the session.
type Handles interface {
	SetWorkspace(ctx context.Context, root *capability.Root) error
	GetStoredHandle(ctx context.Context) (*capability.Root, bool)
	Revoke()
	Clear(ctx context.Context) error
}

// WatchLoop is the part of the watch loop the workspace service drives.
type WatchLoop interface {
	Start(ctx context.Context, root *capability.Root) error
	Stop()
	IsWatching() bool
	Root() *capability.Root
	ForceCheck(ctx context.Context) ([]domain.FileChange, error)
}

// WorkspaceInfo describes the selected workspace.
type WorkspaceInfo struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Root     string `json:"root,omitempty"`
	Name     string `json:"name"`
	Watching bool   `json:"watching"`
}

// WorkspaceService performs file and folder operations against the selected workspace.
type WorkspaceService struct {
	handles   Handles
	tree      *scanner.Scanner
	loop      WatchLoop
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time
}

// NewWorkspaceService creates a new workspace service.
func NewWorkspaceService(handles Handles, tree *scanner.Scanner, loop WatchLoop, logger *slog.Logger) *WorkspaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceService{
		handles:   handles,
		tree:      tree,
		loop:      loop,
		logger:    logger.With("component", "workspace"),
		validator: validation.New(),
		now:       time.Now,
	}
}

type pathRequest struct {
	Path string `json:"path" validate:"notblank"`
}

// CreateFileRequest contains fields for creating a file.
// A nil Content writes a placeholder heading.
type CreateFileRequest struct {
	FolderPath string  `json:"folder_path"`
	FileName   string  `json:"file_name" validate:"notblank,segment,max=255"`
	Content    *string `json:"content,omitempty"`
}

// CreateFolderRequest contains fields for creating a folder.
type CreateFolderRequest struct {
	ParentPath string `json:"parent_path"`
	FolderName string `json:"folder_name" validate:"notblank,segment,max=255"`
}

// root returns the current workspace capability.
func (s *WorkspaceService) root(ctx context.Context) (*capability.Root, error) {
	root, ok := s.handles.GetStoredHandle(ctx)
	if !ok {
		return nil, errors.NoWorkspace("no workspace selected")
	}
	return root, nil
}

// observe records the outcome of op. When a permission failure turns out to
// cover the workspace root itself, the handle is revoked and watching stops;
// a denial on a single item leaves the workspace selected.
func (s *WorkspaceService) observe(op string, err error) error {
	metrics.RecordWorkspaceOp(op, err)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrPermission) {
		return err
	}

	if s.rootAccessible() {
		s.logger.Warn("item access denied", "operation", op, "error", err)
		return err
	}

	s.logger.Warn("workspace access denied", "operation", op, "error", err)
	s.handles.Revoke()
	s.loop.Stop()
	return err
}

// rootAccessible reports whether the current workspace root can still be listed.
func (s *WorkspaceService) rootAccessible() bool {
	root, ok := s.handles.GetStoredHandle(context.Background())
	if !ok {
		return false
	}
	_, err := root.Entries()
	return !errors.Is(err, errors.ErrPermission)
}

// GetFolderStructure returns a freshly built tree of the workspace.
func (s *WorkspaceService) GetFolderStructure(ctx context.Context) (nodes []*domain.TreeNode, err error) {
	defer func() { err = s.observe(OpTree, err) }()

	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	nodes, err = s.tree.BuildTree(ctx, root.Dir)
	if err != nil {
		return nil, err
	}
	metrics.SetTreeFiles(scanner.CountFiles(nodes))
	return nodes, nil
}

// ReadFile loads the document at p. Word documents are converted to text.
func (s *WorkspaceService) ReadFile(ctx context.Context, p string) (doc *domain.Document, err error) {
	defer func() { err = s.observe(OpRead, err) }()

	if err := s.validator.Validate(pathRequest{Path: p}); err != nil {
		return nil, err
	}
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	file, err := root.ResolveFile(p, false)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	data, err := file.Read()
	if err != nil {
		return nil, err
	}

	content := string(data)
	if isDocx(file.Name()) {
		if content, err = docx.Decode(data); err != nil {
			return nil, err
		}
	}

	doc = domain.NewDocument(file.Path(), content)
	doc.CreatedAt = info.ModTime
	doc.MarkStored(int64(len(data)), info.ModTime)

	s.logger.Debug("file read", "path", doc.FilePath, "size", doc.Size)
	return doc, nil
}

// SaveFile writes doc to its FilePath, creating missing folders and the file
// itself. UpdatedAt and Size are updated on doc.
func (s *WorkspaceService) SaveFile(ctx context.Context, doc *domain.Document) (err error) {
	defer func() { err = s.observe(OpSave, err) }()

	if doc == nil {
		return errors.Validation("document is required")
	}
	if err := s.validator.Validate(pathRequest{Path: doc.FilePath}); err != nil {
		return err
	}
	root, err := s.root(ctx)
	if err != nil {
		return err
	}

	file, err := root.ResolveFile(doc.FilePath, true)
	if err != nil {
		return err
	}
	if doc.Title == "" {
		doc.Title = domain.TitleFromPath(file.Path())
	}

	data, err := encode(file.Name(), doc.Content, doc.Title)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		return err
	}

	doc.FilePath = file.Path()
	doc.MarkStored(int64(len(data)), s.now())

	s.logger.Info("file saved", "path", doc.FilePath, "size", doc.Size)
	return nil
}

// CreateFile creates a new file, creating missing folders along FolderPath.
// An existing file with the same name is never overwritten.
func (s *WorkspaceService) CreateFile(ctx context.Context, req CreateFileRequest) (doc *domain.Document, err error) {
	defer func() { err = s.observe(OpCreateFile, err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.FileName)
	folder, err := root.ResolveDir(req.FolderPath, true)
	if err != nil {
		return nil, err
	}
	exists, err := folder.Has(name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.AlreadyExistsf("%s already exists", joinPath(folder.Path(), name))
	}

	file, err := folder.File(name, true)
	if err != nil {
		return nil, err
	}

	title := domain.TitleFromPath(name)
	content := placeholder(title)
	if req.Content != nil {
		content = *req.Content
	}

	data, err := encode(name, content, title)
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(data); err != nil {
		return nil, err
	}

	doc = domain.NewDocument(file.Path(), content)
	doc.MarkStored(int64(len(data)), s.now())

	s.logger.Info("file created", "path", doc.FilePath)
	return doc, nil
}

// CreateFolder creates FolderName under ParentPath, creating missing parents,
// and returns its workspace path. Creating an existing folder succeeds.
func (s *WorkspaceService) CreateFolder(ctx context.Context, req CreateFolderRequest) (p string, err error) {
	defer func() { err = s.observe(OpCreateFolder, err) }()

	if err := s.validator.Validate(req); err != nil {
		return "", err
	}
	root, err := s.root(ctx)
	if err != nil {
		return "", err
	}

	parent, err := root.ResolveDir(req.ParentPath, true)
	if err != nil {
		return "", err
	}
	dir, err := parent.Dir(strings.TrimSpace(req.FolderName), true)
	if err != nil {
		return "", err
	}

	s.logger.Info("folder created", "path", dir.Path())
	return dir.Path(), nil
}

// DeleteItem removes the file or folder at p. Folders are removed recursively.
func (s *WorkspaceService) DeleteItem(ctx context.Context, p string) (err error) {
	defer func() { err = s.observe(OpDelete, err) }()

	if err := s.validator.Validate(pathRequest{Path: p}); err != nil {
		return err
	}
	root, err := s.root(ctx)
	if err != nil {
		return err
	}

	parent, leaf, err := root.ResolveParent(p, false)
	if err != nil {
		return err
	}
	if err := parent.Remove(leaf); err != nil {
		return err
	}

	s.logger.Info("item deleted", "path", joinPath(parent.Path(), leaf))
	return nil
}

// SelectWorkspace opens the folder at dir and makes it the workspace.
func (s *WorkspaceService) SelectWorkspace(ctx context.Context, dir string) (*WorkspaceInfo, error) {
	if err := s.validator.Validate(pathRequest{Path: dir}); err != nil {
		metrics.RecordWorkspaceOp(OpSelect, err)
		return nil, err
	}
	// A folder that cannot be opened says nothing about the current workspace,
	// so this failure does not go through observe.
	root, err := capability.OpenDir(dir)
	if err != nil {
		metrics.RecordWorkspaceOp(OpSelect, err)
		return nil, err
	}
	return s.SelectRoot(ctx, root)
}

// SelectRoot makes root the workspace, replacing any previous one, and
// starts watching it. A failed initial scan leaves the workspace selected but
// not watched.
func (s *WorkspaceService) SelectRoot(ctx context.Context, root *capability.Root) (info *WorkspaceInfo, err error) {
	defer func() { err = s.observe(OpSelect, err) }()

	if err := s.handles.SetWorkspace(ctx, root); err != nil {
		return nil, err
	}
	if err := s.loop.Start(ctx, root); err != nil {
		s.logger.Warn("failed to start watching workspace", "workspace", root.Descriptor().ID(), "error", err)
	}
	return s.info(root), nil
}

// Resume restores the stored workspace, if any, and starts watching it.
// It reports whether a workspace was restored.
func (s *WorkspaceService) Resume(ctx context.Context) (bool, error) {
	root, ok := s.handles.GetStoredHandle(ctx)
	if !ok {
		return false, nil
	}
	if err := s.loop.Start(ctx, root); err != nil {
		return true, err
	}
	return true, nil
}

// CurrentWorkspace describes the selected workspace.
func (s *WorkspaceService) CurrentWorkspace(ctx context.Context) (*WorkspaceInfo, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}
	return s.info(root), nil
}

// ClearWorkspace stops watching and forgets the stored workspace.
func (s *WorkspaceService) ClearWorkspace(ctx context.Context) (err error) {
	defer func() { err = s.observe(OpClear, err) }()

	s.loop.Stop()
	if err := s.handles.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("workspace cleared")
	return nil
}

// ForceCheck runs a change check now and returns the changes it found.
// If the workspace is not being watched, watching starts and no changes are reported.
func (s *WorkspaceService) ForceCheck(ctx context.Context) (changes []domain.FileChange, err error) {
	defer func() { err = s.observe(OpForceCheck, err) }()

	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	changes, err = s.loop.ForceCheck(ctx)
	if errors.Is(err, watcher.ErrNotWatching) {
		return []domain.FileChange{}, s.loop.Start(ctx, root)
	}
	if err != nil {
		return nil, err
	}
	if changes == nil {
		changes = []domain.FileChange{}
	}
	return changes, nil
}

func (s *WorkspaceService) info(root *capability.Root) *WorkspaceInfo {
	desc := root.Descriptor()
	return &WorkspaceInfo{
		ID:       desc.ID(),
		Kind:     string(desc.Kind),
		Root:     desc.Root,
		Name:     desc.Name,
		Watching: s.loop.IsWatching() && s.loop.Root().Same(root),
	}
}

func isDocx(name string) bool {
	return strings.EqualFold(path.Ext(name), docxExt)
}

// encode returns the bytes stored for content in a file called name.
func encode(name, content, title string) ([]byte, error) {
	if !isDocx(name) {
		return []byte(content), nil
	}
	data, err := docx.Encode(content, title)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "encode %s", name)
	}
	return data, nil
}

func placeholder(title string) string {
	return "# " + title + "\n\n"
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
