package mirror

import (
	"sort"
	"time"

	"github.com/gp205gti/treemirror/pkg/fsview"
)

// Diff classifies the entries of two independently captured snapshots into
// the disjoint action sets a mirroring pass executes. Matching is by
// relative path; a relative path never appears in more than one set.
type Diff struct {
	// CreateDirs are source directories with no replica counterpart,
	// including directories that are empty in the source.
	CreateDirs []fsview.Entry
	// CopyFiles are source files that are missing from the replica or whose
	// source modification time is strictly newer than the replica's.
	CopyFiles []fsview.Entry
	// DeleteFiles are replica files with no source counterpart.
	DeleteFiles []fsview.Entry
	// DeleteDirs are replica directories with no source counterpart, sorted
	// deepest-first so a now-empty subtree collapses bottom-up in one pass.
	// Emptiness is rechecked at execution time, not here.
	DeleteDirs []fsview.Entry
}

// Compute diffs a source snapshot against a replica snapshot. modTimeWindow
// truncates both timestamps before the staleness comparison; zero compares
// exact times. An equal or older source timestamp is not a copy candidate.
func Compute(source, replica *fsview.Snapshot, modTimeWindow time.Duration) Diff {
	var d Diff

	for _, src := range source.Entries() {
		// A counterpart only counts when it is the same kind of entry; a
		// replica file at a directory's path (or vice versa) is no match.
		counterpart, exists := replica.Lookup(src.RelPath)
		matched := exists && counterpart.IsDir() == src.IsDir()

		if src.IsDir() {
			if !matched {
				d.CreateDirs = append(d.CreateDirs, src)
			}
			continue
		}
		if !matched || truncateModTime(src.ModTime, modTimeWindow).After(truncateModTime(counterpart.ModTime, modTimeWindow)) {
			d.CopyFiles = append(d.CopyFiles, src)
		}
	}

	for _, rep := range replica.Entries() {
		counterpart, exists := source.Lookup(rep.RelPath)
		if exists && counterpart.IsDir() == rep.IsDir() {
			continue
		}
		if rep.IsDir() {
			d.DeleteDirs = append(d.DeleteDirs, rep)
		} else {
			d.DeleteFiles = append(d.DeleteFiles, rep)
		}
	}

	// Deepest-first ordering is required so children are evaluated for
	// emptiness and removed before their parents.
	sort.SliceStable(d.DeleteDirs, func(i, j int) bool {
		return d.DeleteDirs[i].Depth() > d.DeleteDirs[j].Depth()
	})

	return d
}

// truncateModTime adjusts a time based on the configured modification time window.
func truncateModTime(t time.Time, window time.Duration) time.Time {
	if window > 0 {
		return t.Truncate(window)
	}
	return t
}
