package mirror

import (
	"time"

	"github.com/gp205gti/treemirror/pkg/mlog"
	"github.com/gp205gti/treemirror/pkg/util"
)

// Outcome accumulates the counters and verification result of one mirroring
// run. It is created by the orchestrator at the start of a run, mutated only
// by the orchestrator while the run is in flight, and never mutated after
// being returned.
type Outcome struct {
	// ItemsCopied counts files copied plus directories created.
	ItemsCopied int64
	// DirsCreated counts only the directories created in the replica.
	DirsCreated int64
	// ItemsRemoved counts files and directories deleted from the replica.
	ItemsRemoved int64
	// ItemFailures counts per-entry create/copy/delete failures and
	// verification mismatches.
	ItemFailures int64
	// BytesCopied is the total size of the files copied.
	BytesCopied int64

	// Post-run verification results.
	FileCountMatch bool
	DirCountMatch  bool
	TotalSizeMatch bool

	// Verification totals of the replica after the run, for reporting.
	ReplicaFiles int64
	ReplicaDirs  int64
	ReplicaBytes int64

	Duration time.Duration
}

// Verified reports whether all three post-run aggregate comparisons matched.
func (o *Outcome) Verified() bool {
	return o.FileCountMatch && o.DirCountMatch && o.TotalSizeMatch
}

// Status derives the run's overall exit status: 0 when the run is clean,
// 1 when at least one item failed or verification mismatched.
func (o *Outcome) Status() int {
	if o.ItemFailures > 0 {
		return 1
	}
	return 0
}

// LogSummary emits the end-of-run summary line.
func (o *Outcome) LogSummary(log *mlog.Logger, msg string) {
	log.Info(msg,
		"items_copied", o.ItemsCopied,
		"dirs_created", o.DirsCreated,
		"items_removed", o.ItemsRemoved,
		"item_failures", o.ItemFailures,
		"bytes_copied", util.ByteCountIEC(o.BytesCopied),
		"replica_files", o.ReplicaFiles,
		"replica_dirs", o.ReplicaDirs,
		"replica_size", util.ByteCountIEC(o.ReplicaBytes),
		"verified", o.Verified(),
		"status", o.Status(),
		"duration", o.Duration.Round(time.Millisecond),
	)
}
