// Package mirror implements one-way mirroring of a source directory tree
// onto a replica directory tree: entries present in the source but missing
// or stale in the replica are copied, entries present only in the replica
// are deleted, and a post-run consistency check confirms the two trees
// match. Mutations are strictly sequential: creations and copies always
// precede deletions, and directory deletions run deepest-first.
package mirror

import "time"

// RemovalPolicy configures the retry-delete executor.
type RemovalPolicy struct {
	// RetryCount is the number of additional attempts after the first
	// failed delete. Zero means a single attempt with no retries.
	RetryCount int
	// RetryWait is the fixed pause between attempts.
	RetryWait time.Duration
	// FailOnExhaust controls whether exhausting all attempts surfaces an
	// error to the calling step (which logs, counts the failure, and moves
	// on) or merely returns a soft failure result.
	FailOnExhaust bool
	// DryRun logs deletion intent without invoking the delete primitive and
	// without counting a removal.
	DryRun bool
}

// Plan is the value configuration for a single mirroring run.
type Plan struct {
	// Source is the authoritative tree; Replica is made to match it.
	Source  string
	Replica string

	Removal RemovalPolicy

	// ModTimeWindow truncates modification times before comparison so that
	// filesystems with coarser timestamp resolution don't cause needless
	// copies. Zero means exact, strictly-greater-than comparison.
	ModTimeWindow time.Duration

	// Entries matching these patterns are invisible to the run: they are
	// neither copied from the source nor deleted from the replica.
	ExcludeFiles []string
	ExcludeDirs  []string
}
