package mirror

import (
	"context"
	"fmt"

	"github.com/gp205gti/treemirror/pkg/buildinfo"
	"github.com/gp205gti/treemirror/pkg/fsview"
	"github.com/gp205gti/treemirror/pkg/mlog"
	"github.com/gp205gti/treemirror/pkg/preflight"
	"github.com/gp205gti/treemirror/pkg/runlock"
)

// Mirrorer runs one-way mirroring passes. It holds no per-run state and is
// safe to reuse across runs.
type Mirrorer struct {
	log *mlog.Logger
}

// NewMirrorer creates a Mirrorer logging through the given logger.
func NewMirrorer(log *mlog.Logger) *Mirrorer {
	return &Mirrorer{log: log}
}

// Run executes one full mirroring pass for the given plan and returns its
// outcome. A non-nil error means the run never got past its preconditions
// (missing source, uncreatable replica) or was cancelled; per-entry failures
// do not produce an error here, they are counted on the outcome and reflected
// in its status.
func (m *Mirrorer) Run(ctx context.Context, plan *Plan) (*Outcome, error) {
	if plan.Source == "" || plan.Replica == "" {
		return nil, fmt.Errorf("both a source and a replica directory are required")
	}

	if err := preflight.CheckSourceAccessible(plan.Source); err != nil {
		return nil, err
	}
	if err := preflight.CheckReplicaAccessible(plan.Replica); err != nil {
		return nil, err
	}
	if err := preflight.CheckReplicaWritable(plan.Replica); err != nil {
		return nil, err
	}

	// Refuse to run while another process is mutating the same replica.
	lock, err := runlock.Acquire(ctx, runlock.ForReplica(plan.Replica), buildinfo.Name)
	if err != nil {
		return nil, fmt.Errorf("replica %s is in use: %w", plan.Replica, err)
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			m.log.Warn("Failed to release the replica lock", "error", releaseErr)
		}
	}()

	fs := fsview.NewAccessor(m.log, plan.ExcludeFiles, plan.ExcludeDirs)
	task := &mirrorTask{
		plan:        plan,
		fs:          fs,
		log:         m.log,
		remover:     newRemoveExecutor(plan.Removal, m.log, fs.Remove, fs.Exists),
		outcome:     &Outcome{},
		ctx:         ctx,
		createdDirs: make(map[string]struct{}),
	}
	return task.execute()
}
