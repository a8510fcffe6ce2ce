package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gp205gti/treemirror/pkg/mlog"
)

// newTestExecutor builds a removeExecutor with fake primitives and a no-op sleep.
func newTestExecutor(policy RemovalPolicy, logBuf *bytes.Buffer, removeFn func(string, bool) error, exists bool) *removeExecutor {
	x := newRemoveExecutor(policy, mlog.NewForTesting(logBuf), removeFn, func(string) bool { return exists })
	x.sleepFn = func(time.Duration) {}
	return x
}

func TestRemoveExecutor_PathAlreadyGone(t *testing.T) {
	var logBuf bytes.Buffer
	called := false
	x := newTestExecutor(RemovalPolicy{RetryCount: 3, FailOnExhaust: true}, &logBuf,
		func(string, bool) error { called = true; return nil }, false)

	result, err := x.remove("/rep/gone.txt", "gone.txt", false)
	if err != nil {
		t.Fatalf("expected no error for a missing path, got %v", err)
	}
	if result != Skipped {
		t.Errorf("result = %v, want Skipped", result)
	}
	if called {
		t.Error("delete primitive must not be invoked for a missing path")
	}
}

func TestRemoveExecutor_DryRun(t *testing.T) {
	var logBuf bytes.Buffer
	called := false
	x := newTestExecutor(RemovalPolicy{RetryCount: 3, DryRun: true}, &logBuf,
		func(string, bool) error { called = true; return nil }, true)

	result, err := x.remove("/rep/doomed.txt", "doomed.txt", false)
	if err != nil {
		t.Fatalf("expected no error in dry run, got %v", err)
	}
	if result != Skipped {
		t.Errorf("result = %v, want Skipped", result)
	}
	if called {
		t.Error("delete primitive must not be invoked in dry run")
	}
	if !strings.Contains(logBuf.String(), "DRY RUN") {
		t.Errorf("expected the intended removal to be logged, got: %s", logBuf.String())
	}
	if !strings.Contains(logBuf.String(), "dry_run=true") {
		t.Errorf("expected the dry-run flag to be echoed in the message, got: %s", logBuf.String())
	}
}

func TestRemoveExecutor_SucceedsAfterRetries(t *testing.T) {
	var logBuf bytes.Buffer
	attempts := 0
	x := newTestExecutor(RemovalPolicy{RetryCount: 3, RetryWait: time.Second, FailOnExhaust: true}, &logBuf,
		func(string, bool) error {
			attempts++
			if attempts < 3 {
				return fmt.Errorf("file in use")
			}
			return nil
		}, true)

	result, err := x.remove("/rep/busy.txt", "busy.txt", false)
	if err != nil {
		t.Fatalf("expected success on the third attempt, got %v", err)
	}
	if result != Removed {
		t.Errorf("result = %v, want Removed", result)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRemoveExecutor_Exhaustion(t *testing.T) {
	alwaysFail := func(string, bool) error { return fmt.Errorf("permission denied") }

	t.Run("FailOnExhaust raises", func(t *testing.T) {
		var logBuf bytes.Buffer
		attempts := 0
		x := newTestExecutor(RemovalPolicy{RetryCount: 2, FailOnExhaust: true}, &logBuf,
			func(p string, r bool) error { attempts++; return alwaysFail(p, r) }, true)

		result, err := x.remove("/rep/locked.txt", "locked.txt", false)
		if result != Failed {
			t.Errorf("result = %v, want Failed", result)
		}
		if !errors.Is(err, ErrRemoveExhausted) {
			t.Errorf("expected ErrRemoveExhausted, got %v", err)
		}
		if attempts != 3 { // 1 initial attempt + 2 retries
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("Soft failure returns without raising", func(t *testing.T) {
		var logBuf bytes.Buffer
		x := newTestExecutor(RemovalPolicy{RetryCount: 2, FailOnExhaust: false}, &logBuf, alwaysFail, true)

		result, err := x.remove("/rep/locked.txt", "locked.txt", false)
		if result != Failed {
			t.Errorf("result = %v, want Failed", result)
		}
		if err != nil {
			t.Errorf("expected no error with FailOnExhaust=false, got %v", err)
		}
		if !strings.Contains(logBuf.String(), "level=ERROR") {
			t.Errorf("expected the exhaustion to be logged at error level, got: %s", logBuf.String())
		}
	})
}

func TestRemoveExecutor_PausesBetweenAttempts(t *testing.T) {
	var logBuf bytes.Buffer
	var pauses []time.Duration
	x := newRemoveExecutor(
		RemovalPolicy{RetryCount: 2, RetryWait: time.Second, FailOnExhaust: false},
		mlog.NewForTesting(&logBuf),
		func(string, bool) error { return fmt.Errorf("busy") },
		func(string) bool { return true },
	)
	x.sleepFn = func(d time.Duration) { pauses = append(pauses, d) }

	x.remove("/rep/busy.txt", "busy.txt", false)

	if len(pauses) != 2 {
		t.Fatalf("expected 2 pauses for 2 retries, got %d", len(pauses))
	}
	for _, d := range pauses {
		if d != time.Second {
			t.Errorf("pause = %v, want fixed 1s", d)
		}
	}
}
