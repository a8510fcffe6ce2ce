// Package runlock guards a replica directory against concurrent mirror runs.
//
// Two runs mutating the same replica would interleave copies and deletes and
// leave the tree in a state neither run intended. The lock file lives NEXT TO
// the replica root (not inside it), so it never shows up as an extraneous
// entry in the replica snapshot.
package runlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// lockSuffix is appended to the replica path to form the lock file path.
const lockSuffix = ".treemirror.lock"

const (
	// staleTimeout: a lock whose heartbeat is older than this is considered
	// abandoned by a crashed run and may be taken over.
	staleTimeout      = 3 * time.Minute
	heartbeatInterval = 30 * time.Second
	lockFileMode      = 0644
	maxAttempts       = 3
)

// lockContent is the data written to the lock file.
type lockContent struct {
	PID      int64     `json:"pid"`
	Hostname string    `json:"hostname"`
	AppID    string    `json:"app_id"`
	Acquired time.Time `json:"acquired"`
}

// ErrLockActive is returned when the lock is already held by another process.
type ErrLockActive struct {
	PID       int64
	Hostname  string
	AppID     string
	TimeSince time.Duration
}

func (e *ErrLockActive) Error() string {
	// Truncate for cleaner output, e.g. "3m2s" instead of "3m2.123456789s".
	return fmt.Sprintf("lock is active, held by PID %d on host '%s' (App: %s), last updated %s ago", e.PID, e.Hostname, e.AppID, e.TimeSince.Truncate(time.Second))
}

// Lock is an acquired replica lock. Release it when the run is done.
type Lock struct {
	path   string
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	held bool
}

// ForReplica returns the lock file path guarding the given replica root.
func ForReplica(replica string) string {
	return replica + lockSuffix
}

// Acquire attempts to take the lock at path. It retries a few times when a
// stale lock has to be cleaned up first, and returns *ErrLockActive when the
// lock is genuinely held by a live run.
func Acquire(ctx context.Context, path string, appID string) (*Lock, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFileMode)
		if err == nil {
			return writeAndHold(file, path, appID)
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			// The holder released between our open and stat. Try again.
			continue
		}
		age := time.Since(info.ModTime())
		if age <= staleTimeout {
			content := readContent(path)
			return nil, &ErrLockActive{
				PID:       content.PID,
				Hostname:  content.Hostname,
				AppID:     content.AppID,
				TimeSince: age,
			}
		}

		// The heartbeat stopped long ago, the holding run is dead. Remove the
		// leftover and retry; a concurrent takeover loses the O_EXCL race on
		// the next attempt, which is fine.
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lock file %s: %w", path, rmErr)
		}
	}
	return nil, fmt.Errorf("failed to acquire lock %s after %d attempts", path, maxAttempts)
}

func writeAndHold(file *os.File, path string, appID string) (*Lock, error) {
	hostname, _ := os.Hostname()
	content := lockContent{
		PID:      int64(os.Getpid()),
		Hostname: hostname,
		AppID:    appID,
		Acquired: time.Now(),
	}
	enc := json.NewEncoder(file)
	if err := enc.Encode(&content); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close lock file %s: %w", path, err)
	}

	hbCtx, cancel := context.WithCancel(context.Background())
	lock := &Lock{
		path:   path,
		cancel: cancel,
		done:   make(chan struct{}),
		held:   true,
	}
	go lock.heartbeat(hbCtx)
	return lock, nil
}

// heartbeat keeps the lock file's modification time fresh so other runs can
// tell a live lock from an abandoned one.
func (l *Lock) heartbeat(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			// Best effort. A failed touch just ages the lock toward staleness.
			_ = os.Chtimes(l.path, now, now)
		}
	}
}

// Release stops the heartbeat and removes the lock file. It is safe to call
// more than once.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	l.held = false
	l.cancel()
	<-l.done
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	return nil
}

// readContent best-effort decodes the lock file. A corrupt or unreadable file
// yields zero values; staleness is judged by the file's mtime, not its body.
func readContent(path string) lockContent {
	var content lockContent
	data, err := os.ReadFile(path)
	if err != nil {
		return content
	}
	_ = json.Unmarshal(data, &content)
	return content
}
