package mirror

import (
	"errors"
	"fmt"
	"time"

	"github.com/gp205gti/treemirror/pkg/mlog"
)

// ErrRemoveExhausted is returned by the remove executor when every delete
// attempt failed and the policy treats exhaustion as an error.
var ErrRemoveExhausted = errors.New("delete retries exhausted")

// RemoveResult is the outcome of a single delete request.
type RemoveResult int

const (
	// Removed means the delete primitive succeeded.
	Removed RemoveResult = iota
	// Skipped means no delete happened and none was needed: the path was
	// already gone, or the run is a dry run.
	Skipped
	// Failed means every attempt failed.
	Failed
)

func (r RemoveResult) String() string {
	switch r {
	case Removed:
		return "removed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// removeExecutor wraps the delete primitive with bounded retries, a fixed
// pause between attempts, and the dry-run/exhaustion policy. The primitives
// are fields so tests can substitute failing implementations.
type removeExecutor struct {
	policy RemovalPolicy
	log    *mlog.Logger

	removeFn func(path string, recursive bool) error
	existsFn func(path string) bool
	sleepFn  func(d time.Duration)
}

func newRemoveExecutor(policy RemovalPolicy, log *mlog.Logger, removeFn func(string, bool) error, existsFn func(string) bool) *removeExecutor {
	return &removeExecutor{
		policy:   policy,
		log:      log,
		removeFn: removeFn,
		existsFn: existsFn,
		sleepFn:  time.Sleep,
	}
}

// remove attempts to delete the object at path. relPath is used for logging
// only. A path that no longer exists is a soft no-op, not an error: another
// process or an earlier step may have already removed it.
//
// On exhausting all attempts the executor returns Failed; the error is
// non-nil only when the policy's FailOnExhaust is set, in which case it
// wraps ErrRemoveExhausted for the caller to catch, log, and count.
func (x *removeExecutor) remove(path, relPath string, recursive bool) (RemoveResult, error) {
	if !x.existsFn(path) {
		x.log.Info("DELETE skipped, path already gone", "path", relPath, "dry_run", x.policy.DryRun)
		return Skipped, nil
	}

	if x.policy.DryRun {
		x.log.Info("[DRY RUN] DELETE", "path", relPath, "dry_run", true)
		return Skipped, nil
	}

	var lastErr error
	for attempt := 0; attempt <= x.policy.RetryCount; attempt++ {
		if attempt > 0 {
			x.log.Warn("Retrying delete", "path", relPath, "attempt", fmt.Sprintf("%d/%d", attempt, x.policy.RetryCount), "after", x.policy.RetryWait, "dry_run", false)
			x.sleepFn(x.policy.RetryWait)
		}

		lastErr = x.removeFn(path, recursive)
		if lastErr == nil {
			x.log.Info("DELETE", "path", relPath, "dry_run", false)
			return Removed, nil
		}
		x.log.Warn("Delete attempt failed", "path", relPath, "error", lastErr, "dry_run", false)
	}

	x.log.Error("Delete failed after all attempts", "path", relPath, "attempts", x.policy.RetryCount+1, "error", lastErr, "dry_run", false)
	if x.policy.FailOnExhaust {
		return Failed, fmt.Errorf("%w for %s: %v", ErrRemoveExhausted, path, lastErr)
	}
	return Failed, nil
}
