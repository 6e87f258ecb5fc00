package scanner

import (
	"path"
	"strings"
)

// DefaultExcludePatterns are skipped at every depth. Patterns use path.Match
// syntax so both exact names and prefix globs can be listed.
var DefaultExcludePatterns = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
	"._*",
	"~$*",
	"dist",
	"build",
	"out",
	".next",
	".cache",
	"__pycache__",
}

// DefaultExtensions are the file types shown in the workspace tree.
var DefaultExtensions = []string{".md", ".markdown", ".mdown", ".txt", ".docx"}

// Rules decides which entries are part of a workspace.
type Rules struct {
	exclude    []string
	extensions map[string]bool
}

// NewRules builds rules from exclusion patterns and an extension allowlist.
// Extensions are matched case-insensitively and may omit the leading dot.
func NewRules(exclude, extensions []string) Rules {
	r := Rules{
		exclude:    append([]string(nil), exclude...),
		extensions: make(map[string]bool, len(extensions)),
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.extensions[ext] = true
	}
	return r
}

// DefaultRules returns the built-in exclusion list and extension allowlist.
func DefaultRules() Rules {
	return NewRules(DefaultExcludePatterns, DefaultExtensions)
}

// Excluded reports whether an entry called name is skipped, whatever its kind.
func (r Rules) Excluded(name string) bool {
	for _, pattern := range r.exclude {
		if pattern == name {
			return true
		}
		// Malformed patterns never match.
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Extension returns the lower-cased extension of name and whether files with it are watched.
func (r Rules) Extension(name string) (string, bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return "", false
	}
	return ext, r.extensions[ext]
}

// IncludesFile reports whether a file called name belongs in the workspace.
func (r Rules) IncludesFile(name string) bool {
	if r.Excluded(name) {
		return false
	}
	_, ok := r.Extension(name)
	return ok
}
