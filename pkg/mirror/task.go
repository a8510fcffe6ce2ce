package mirror

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gp205gti/treemirror/pkg/fsview"
	"github.com/gp205gti/treemirror/pkg/mlog"
)

// mirrorTask holds the mutable state for a single mirroring run. Each run
// gets a fresh task, which makes the Mirrorer itself stateless.
//
// The run executes as a strict sequence, each step completing before the
// next begins: create missing directories, copy missing/stale files, delete
// extraneous files, delete extraneous (now empty) directories deepest-first,
// then re-enumerate both trees and verify consistency. Per-entry failures
// are logged and counted but never abort the run.
type mirrorTask struct {
	plan    *Plan
	fs      *fsview.Accessor
	log     *mlog.Logger
	remover *removeExecutor
	outcome *Outcome

	ctx context.Context

	// createdDirs memoizes replica directories known to exist, so the copy
	// phase doesn't re-stat a parent for every file in it.
	createdDirs map[string]struct{}
}

func (t *mirrorTask) execute() (*Outcome, error) {
	start := time.Now()
	t.log.Info("Starting mirror run", "source", t.plan.Source, "replica", t.plan.Replica, "dry_run", t.plan.Removal.DryRun)

	// Step 1: directory structure. Enumerate both trees and create every
	// source directory missing from the replica, empty ones included.
	source, replica, err := t.fs.CapturePair(t.ctx, t.plan.Source, t.plan.Replica)
	if err != nil {
		return nil, err
	}
	t.createDirs(Compute(source, replica, t.plan.ModTimeWindow).CreateDirs)

	if err := t.ctx.Err(); err != nil {
		return nil, err
	}

	// Steps 2+3: files, against fresh snapshots. Copies always precede
	// deletions within a run.
	source, replica, err = t.fs.CapturePair(t.ctx, t.plan.Source, t.plan.Replica)
	if err != nil {
		return nil, err
	}
	fileDiff := Compute(source, replica, t.plan.ModTimeWindow)
	t.copyFiles(fileDiff.CopyFiles)
	t.deleteFiles(fileDiff.DeleteFiles)

	if err := t.ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: extraneous directories, deepest-first, against a fresh replica
	// enumeration (the file deletions above may have just emptied them).
	replica, err = t.fs.Capture(t.ctx, t.plan.Replica)
	if err != nil {
		return nil, err
	}
	t.deleteDirs(Compute(source, replica, t.plan.ModTimeWindow).DeleteDirs)

	if err := t.ctx.Err(); err != nil {
		return nil, err
	}

	// Step 5: re-enumerate both trees and verify aggregate consistency.
	// A dry run skips deletions, so the trees are expected to differ and
	// the check would only report noise.
	if t.plan.Removal.DryRun {
		t.log.Info("Skipping consistency check, deletions were not performed", "dry_run", true)
		t.outcome.FileCountMatch = true
		t.outcome.DirCountMatch = true
		t.outcome.TotalSizeMatch = true
	} else {
		source, replica, err = t.fs.CapturePair(t.ctx, t.plan.Source, t.plan.Replica)
		if err != nil {
			return nil, err
		}
		verifyConsistency(source, replica, t.log, t.outcome)
	}

	t.outcome.Duration = time.Since(start)
	t.outcome.LogSummary(t.log, "Mirror run finished")
	return t.outcome, nil
}

// replicaPath maps a slash-normalized relative path to its absolute path
// under the replica root.
func (t *mirrorTask) replicaPath(relPath string) string {
	return filepath.Join(t.plan.Replica, filepath.FromSlash(relPath))
}

func (t *mirrorTask) createDirs(dirs []fsview.Entry) {
	for _, dir := range dirs {
		dst := t.replicaPath(dir.RelPath)
		if err := t.fs.CreateDirectory(dst, dir.Mode.Perm()); err != nil {
			t.log.Error("MKDIR failed", "path", dir.RelPath, "error", err)
			t.outcome.ItemFailures++
			continue
		}
		t.log.Info("MKDIR", "path", dir.RelPath)
		t.createdDirs[dir.RelPath] = struct{}{}
		t.outcome.ItemsCopied++
		t.outcome.DirsCreated++
	}
}

// ensureParentDir makes sure the destination parent directory of a file
// exists before the copy. Creating it counts as a copied directory; failing
// to create it is an item failure of its own.
func (t *mirrorTask) ensureParentDir(fileRelPath string) bool {
	parentRel := filepath.ToSlash(filepath.Dir(fileRelPath))
	if parentRel == "." {
		return true // Direct child of the replica root.
	}
	if _, ok := t.createdDirs[parentRel]; ok {
		return true
	}

	parentAbs := t.replicaPath(parentRel)
	if t.fs.Exists(parentAbs) {
		t.createdDirs[parentRel] = struct{}{}
		return true
	}

	if err := t.fs.CreateDirectory(parentAbs, 0755); err != nil {
		t.log.Error("MKDIR failed", "path", parentRel, "error", err)
		t.outcome.ItemFailures++
		return false
	}
	t.log.Info("MKDIR", "path", parentRel)
	t.createdDirs[parentRel] = struct{}{}
	t.outcome.ItemsCopied++
	t.outcome.DirsCreated++
	return true
}

func (t *mirrorTask) copyFiles(files []fsview.Entry) {
	for _, file := range files {
		if !t.ensureParentDir(file.RelPath) {
			continue
		}
		dst := t.replicaPath(file.RelPath)
		if err := t.fs.CopyFile(file, dst); err != nil {
			t.log.Error("COPY failed", "path", file.RelPath, "error", err)
			t.outcome.ItemFailures++
			continue
		}
		t.log.Info("COPY", "path", file.RelPath)
		t.outcome.ItemsCopied++
		t.outcome.BytesCopied += file.Size
	}
}

func (t *mirrorTask) deleteFiles(files []fsview.Entry) {
	for _, file := range files {
		t.recordRemoval(t.remover.remove(t.replicaPath(file.RelPath), file.RelPath, false))
	}
}

func (t *mirrorTask) deleteDirs(dirs []fsview.Entry) {
	for _, dir := range dirs {
		abs := t.replicaPath(dir.RelPath)

		// In a dry run the children are still present, so the emptiness
		// check would mask the intended removal; hand the directory straight
		// to the executor, which only logs intent.
		if !t.plan.Removal.DryRun {
			if !t.fs.Exists(abs) {
				continue // Already gone.
			}
			empty, err := t.fs.IsDirEmpty(abs)
			if err != nil {
				t.log.Warn("Could not check directory emptiness, skipping", "path", dir.RelPath, "error", err)
				continue
			}
			if !empty {
				// Deletion of its extra children is pending or failed, or it
				// still holds entries with source counterparts.
				continue
			}
		}

		t.recordRemoval(t.remover.remove(abs, dir.RelPath, true))
	}
}

// recordRemoval translates an executor result into outcome counters. An
// exhaustion error is caught here: it is logged and counted, and the run
// continues with the next entry.
func (t *mirrorTask) recordRemoval(result RemoveResult, err error) {
	if err != nil {
		t.log.Error("Delete aborted", "error", err)
		t.outcome.ItemFailures++
		return
	}
	switch result {
	case Removed:
		t.outcome.ItemsRemoved++
	case Failed:
		t.outcome.ItemFailures++
	}
}
