// Package fsview provides the filesystem view treemirror operates on:
// point-in-time snapshots of a directory tree, the entries inside them, and
// the copy/create/delete primitives the synchronization engine applies.
package fsview

import (
	"os"
	"time"
)

// Kind distinguishes the two entry types a snapshot tracks.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is a read-only metadata snapshot of a single filesystem object under
// a root. RelPath is the identity key used to match entries across two
// independently rooted trees; it is always slash-normalized, regardless of
// the host separator.
type Entry struct {
	RelPath string
	AbsPath string
	Kind    Kind
	Size    int64 // files only
	ModTime time.Time
	Mode    os.FileMode
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// Depth returns the entry's path depth relative to its root. Direct children
// of the root have depth 1.
func (e Entry) Depth() int {
	depth := 1
	for _, r := range e.RelPath {
		if r == '/' {
			depth++
		}
	}
	return depth
}
