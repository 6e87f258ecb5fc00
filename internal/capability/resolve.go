package capability

import (
	"strings"

	"github.com/inkwellapp/inkwell-server/internal/errors"
)

// Segments splits a workspace path on either separator and drops empty and "." parts.
func Segments(p string) []string {
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	out := parts[:0]
	for _, part := range parts {
		if part != "." {
			out = append(out, part)
		}
	}
	return out
}

// ResolveDir walks segments from d one folder at a time.
// With create set, missing folders are created; otherwise a missing
// segment fails with a path-not-found error.
func (d *Dir) ResolveDir(p string, create bool) (*Dir, error) {
	cur := d
	for _, seg := range Segments(p) {
		next, err := cur.Dir(seg, create)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// ResolveFile walks to the parent of p and returns its file capability.
func (d *Dir) ResolveFile(p string, create bool) (*File, error) {
	parent, leaf, err := d.ResolveParent(p, create)
	if err != nil {
		return nil, err
	}
	return parent.File(leaf, create)
}

// ResolveParent returns the folder holding the last segment of p and that segment.
func (d *Dir) ResolveParent(p string, create bool) (*Dir, string, error) {
	segs := Segments(p)
	if len(segs) == 0 {
		return nil, "", errors.Validationf("path %q is empty", p)
	}
	parent, err := d.ResolveDir(strings.Join(segs[:len(segs)-1], "/"), create)
	if err != nil {
		return nil, "", err
	}
	return parent, segs[len(segs)-1], nil
}
