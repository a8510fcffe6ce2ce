package fsview

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Snapshot is a point-in-time, immutable enumeration of a tree's entries.
// Entries carry slash-normalized relative paths; the root entry itself is
// not included.
type Snapshot struct {
	Root    string
	entries []Entry
	byRel   map[string]int
}

// Lookup returns the entry with the given relative path, if present.
func (s *Snapshot) Lookup(relPath string) (Entry, bool) {
	i, ok := s.byRel[relPath]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns all entries in walk order.
func (s *Snapshot) Entries() []Entry {
	return s.entries
}

// Files returns the file entries in walk order.
func (s *Snapshot) Files() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.IsDir() {
			out = append(out, e)
		}
	}
	return out
}

// Dirs returns the directory entries in walk order.
func (s *Snapshot) Dirs() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.IsDir() {
			out = append(out, e)
		}
	}
	return out
}

// Capture recursively enumerates root and returns an immutable snapshot of
// its entries. Excluded entries are omitted; excluded directories are not
// descended into. Inaccessible entries are logged and skipped rather than
// failing the whole enumeration. Non-regular files (symlinks, sockets, ...)
// are skipped with a log line.
func (a *Accessor) Capture(ctx context.Context, root string) (*Snapshot, error) {
	snap := &Snapshot{
		Root:  root,
		byRel: make(map[string]int),
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// If we can't access a path, log the error but keep walking.
			a.log.Warn("Error accessing path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			a.log.Warn("Could not get relative path, skipping", "path", path, "error", err)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if relPath == "." {
			return nil // The root itself is not an entry.
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if a.dirExclusions.Matches(relPath) {
				a.log.Info("SKIPDIR", "reason", "excluded by pattern", "dir", relPath)
				return filepath.SkipDir
			}
		} else if a.fileExclusions.Matches(relPath) {
			a.log.Info("SKIP", "reason", "excluded by pattern", "file", relPath)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			a.log.Warn("Failed to get file info, skipping", "path", path, "error", err)
			return nil
		}

		if !d.IsDir() && !info.Mode().IsRegular() {
			a.log.Info("SKIP", "type", info.Mode().String(), "path", relPath)
			return nil
		}

		entry := Entry{
			RelPath: relPath,
			AbsPath: path,
			Kind:    KindFile,
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		}
		if d.IsDir() {
			entry.Kind = KindDir
		} else {
			entry.Size = info.Size()
		}

		snap.byRel[relPath] = len(snap.entries)
		snap.entries = append(snap.entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	return snap, nil
}

// CapturePair enumerates two independent roots concurrently and returns both
// snapshots. Enumeration is read-only, so running the two walks in parallel
// does not affect the strictly sequential ordering of mutations.
func (a *Accessor) CapturePair(ctx context.Context, firstRoot, secondRoot string) (*Snapshot, *Snapshot, error) {
	var first, second *Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		first, err = a.Capture(gctx, firstRoot)
		return err
	})
	g.Go(func() error {
		var err error
		second, err = a.Capture(gctx, secondRoot)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
