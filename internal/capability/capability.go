// Package capability wraps a user-selected directory behind a scoped handle.
//
// A Root grants read, write and enumerate access to one directory tree and
// nothing outside it. Nested folders are reached one segment at a time through
// Dir, never by joining raw path strings, so every component that walks the
// workspace goes through the same primitive.
package capability

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/inkwellapp/inkwell-server/internal/errors"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Kind identifies the storage behind a Root.
type Kind string

const (
	KindOS     Kind = "os"
	KindMemory Kind = "memory"
)

// Descriptor is the serializable identity of a Root.
type Descriptor struct {
	Kind Kind   `json:"kind"`
	Root string `json:"root"`
	Name string `json:"name"`
}

// ID identifies the directory a descriptor points at. Two roots are the same
// workspace iff their IDs are equal.
func (d Descriptor) ID() string {
	return string(d.Kind) + ":" + d.Root
}

// Persistable reports whether the descriptor can be reopened in a later session.
func (d Descriptor) Persistable() bool {
	return d.Kind == KindOS && d.Root != ""
}

// Root is the capability for a workspace's top-level directory.
type Root struct {
	*Dir
	desc Descriptor
}

// OpenDir returns a capability bound to the directory at dir.
// Every path is resolved from dir itself, so symlinks at any depth are
// followed as if dir were the filesystem root and can never escape it.
func OpenDir(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.Validation("workspace path is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "resolve %s", dir)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, classify(err, abs)
	}
	if !info.IsDir() {
		return nil, errors.PathNotFoundf("%s is not a folder", abs)
	}

	base, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, classify(err, abs)
	}

	desc := Descriptor{Kind: KindOS, Root: abs, Name: filepath.Base(abs)}
	b := &backing{fs: osfs.New(base, osfs.WithBoundOS()), local: base}
	return &Root{
		Dir:  &Dir{b: b, name: desc.Name},
		desc: desc,
	}, nil
}

// NewMemory returns an in-memory capability. It cannot be persisted.
func NewMemory(name string) *Root {
	b := &backing{fs: memfs.New(), times: &modTimes{m: map[string]time.Time{}}}
	return &Root{
		Dir:  &Dir{b: b, name: name},
		desc: Descriptor{Kind: KindMemory, Name: name},
	}
}

// backing is the storage shared by every Dir and File of one Root. Paths
// passed to fs are always relative to the root.
type backing struct {
	fs    billy.Filesystem
	local string    // symlink-free OS root, "" for memory
	times *modTimes // memory only
}

// entry converts info for the root-relative path rel.
func (b *backing) entry(rel string, info os.FileInfo) Entry {
	e := Entry{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if b.times != nil {
		e.ModTime = b.times.get(rel)
	}
	return e
}

func (b *backing) touch(rel string) {
	if b.times != nil {
		b.times.set(rel, time.Now())
	}
}

// modTimes records modification times for memfs, whose FileInfo reports the
// current time on every call.
type modTimes struct {
	mu sync.RWMutex
	m  map[string]time.Time
}

func (t *modTimes) get(rel string) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[rel]
}

func (t *modTimes) set(rel string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[rel] = at
}

// forget drops rel and everything below it.
func (t *modTimes) forget(rel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prefix := rel + "/"
	for k := range t.m {
		if k == rel || strings.HasPrefix(k, prefix) {
			delete(t.m, k)
		}
	}
}

// Reopen rebuilds a Root from a stored descriptor.
func Reopen(desc Descriptor) (*Root, error) {
	if !desc.Persistable() {
		return nil, errors.Persistence(fmt.Sprintf("workspace %q cannot be reopened", desc.ID()))
	}
	return OpenDir(desc.Root)
}

// Descriptor returns the serializable identity of r.
func (r *Root) Descriptor() Descriptor {
	return r.desc
}

// Same reports whether r and other point at the same directory.
func (r *Root) Same(other *Root) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.desc.Kind == KindMemory {
		return r == other
	}
	return r.desc.ID() == other.desc.ID()
}

// LocalPath returns the OS path of the root, or "" for memory roots.
func (r *Root) LocalPath() string {
	if r.desc.Kind != KindOS {
		return ""
	}
	return r.desc.Root
}

// Entry describes one direct child of a Dir.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Dir is a capability for one folder inside a workspace.
type Dir struct {
	b    *backing
	name string
	path string // workspace-relative, "" for the root
}

// Name returns the folder name.
func (d *Dir) Name() string {
	return d.name
}

// Path returns the workspace-relative path of the folder, "" for the root.
func (d *Dir) Path() string {
	return d.path
}

// Entries lists direct children of d. Children that disappear or cannot be
// stat'd while the folder is being listed are left out.
func (d *Dir) Entries() ([]Entry, error) {
	if d.b.local == "" {
		return d.memEntries()
	}

	full, err := securejoin.SecureJoin(d.b.local, d.path)
	if err != nil {
		return nil, classify(err, d.displayPath())
	}
	dirents, err := os.ReadDir(full)
	if err != nil {
		return nil, classify(err, d.displayPath())
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		rel := d.rel(de.Name())
		info, err := d.b.fs.Lstat(rel)
		if err != nil {
			continue
		}
		entries = append(entries, d.b.entry(rel, info))
	}
	return entries, nil
}

func (d *Dir) memEntries() ([]Entry, error) {
	infos, err := d.b.fs.ReadDir(d.rel(""))
	if err != nil {
		return nil, classify(err, d.displayPath())
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, d.b.entry(d.rel(info.Name()), info))
	}
	return entries, nil
}

// Dir returns the child folder name. With create set, a missing folder is created.
func (d *Dir) Dir(name string, create bool) (*Dir, error) {
	if err := checkSegment(name); err != nil {
		return nil, err
	}
	childPath := d.join(name)

	info, err := d.b.fs.Stat(childPath)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, errors.PathNotFoundf("%s is not a folder", childPath)
		}
	case create && isNotExist(err):
		if err := d.b.fs.MkdirAll(childPath, dirPerm); err != nil {
			return nil, classify(err, childPath)
		}
		d.b.touch(childPath)
	default:
		return nil, classify(err, childPath)
	}

	return &Dir{b: d.b, name: name, path: childPath}, nil
}

// File returns the child file name. With create set, a missing file is created empty.
func (d *Dir) File(name string, create bool) (*File, error) {
	if err := checkSegment(name); err != nil {
		return nil, err
	}
	childPath := d.join(name)

	info, err := d.b.fs.Stat(childPath)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, errors.PathNotFoundf("%s is a folder, not a file", childPath)
		}
	case create && isNotExist(err):
		if err := util.WriteFile(d.b.fs, childPath, nil, filePerm); err != nil {
			return nil, classify(err, childPath)
		}
		d.b.touch(childPath)
	default:
		return nil, classify(err, childPath)
	}

	return &File{b: d.b, name: name, path: childPath}, nil
}

// Has reports whether a child called name exists.
func (d *Dir) Has(name string) (bool, error) {
	if err := checkSegment(name); err != nil {
		return false, err
	}
	_, err := d.b.fs.Stat(d.join(name))
	if err == nil {
		return true, nil
	}
	if isNotExist(err) {
		return false, nil
	}
	return false, classify(err, d.join(name))
}

// Remove deletes the child name, recursively when it is a folder.
func (d *Dir) Remove(name string) error {
	if err := checkSegment(name); err != nil {
		return err
	}
	childPath := d.join(name)

	if _, err := d.b.fs.Stat(childPath); err != nil {
		return classify(err, childPath)
	}
	if err := util.RemoveAll(d.b.fs, childPath); err != nil {
		return classify(err, childPath)
	}
	if d.b.times != nil {
		d.b.times.forget(childPath)
	}
	return nil
}

func (d *Dir) join(name string) string {
	if d.path == "" {
		return name
	}
	return path.Join(d.path, name)
}

// rel returns the root-relative path of name, or of d itself when name is "".
func (d *Dir) rel(name string) string {
	if name == "" {
		if d.path == "" {
			return "."
		}
		return d.path
	}
	return d.join(name)
}

func (d *Dir) displayPath() string {
	if d.path == "" {
		return "/"
	}
	return d.path
}

// File is a capability for one file inside a workspace.
type File struct {
	b    *backing
	name string
	path string // workspace-relative
}

// Name returns the file name.
func (f *File) Name() string {
	return f.name
}

// Path returns the workspace-relative path of the file.
func (f *File) Path() string {
	return f.path
}

// Read returns the full file content.
func (f *File) Read() ([]byte, error) {
	data, err := util.ReadFile(f.b.fs, f.path)
	if err != nil {
		return nil, classify(err, f.path)
	}
	return data, nil
}

// Write replaces the file content and returns the resulting metadata.
func (f *File) Write(data []byte) (Entry, error) {
	if err := util.WriteFile(f.b.fs, f.path, data, filePerm); err != nil {
		return Entry{}, classify(err, f.path)
	}
	f.b.touch(f.path)
	return f.Stat()
}

// Stat returns the current file metadata.
func (f *File) Stat() (Entry, error) {
	info, err := f.b.fs.Stat(f.path)
	if err != nil {
		return Entry{}, classify(err, f.path)
	}
	return f.b.entry(f.path, info), nil
}

func checkSegment(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return errors.Validationf("invalid path segment %q", name)
	case strings.ContainsAny(name, `/\`):
		return errors.Validationf("path segment %q contains a separator", name)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// classify maps storage errors onto the workspace error taxonomy.
func classify(err error, p string) error {
	switch {
	case err == nil:
		return nil
	case isNotExist(err):
		return errors.Wrapf(err, errors.CodePathNotFound, "%s not found", p)
	case errors.Is(err, fs.ErrPermission):
		return errors.Wrapf(err, errors.CodePermission, "access to %s denied", p)
	default:
		var domainErr *errors.Error
		if errors.As(err, &domainErr) {
			return err
		}
		return errors.Wrapf(err, errors.CodeInternal, "access %s", p)
	}
}
