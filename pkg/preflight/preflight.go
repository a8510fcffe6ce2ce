// Package preflight provides the fatal setup validations that run before a
// mirroring pass mutates anything. A failed preflight check aborts the run
// before any diff is attempted; everything past preflight fails per entry.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gp205gti/treemirror/pkg/util"
)

// CheckSourceAccessible validates that the source path exists and is a directory.
func CheckSourceAccessible(srcPath string) error {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source directory %s does not exist", srcPath)
		}
		return fmt.Errorf("cannot stat source directory %s: %w", srcPath, err)
	}

	if !srcInfo.IsDir() {
		return fmt.Errorf("source path %s is not a directory", srcPath)
	}
	return nil
}

// CheckReplicaAccessible performs pre-flight checks on the replica root. It
// provides friendlier errors than letting os.MkdirAll fail later:
//  1. On Windows, verifies that the drive or network share exists.
//  2. If the replica path exists, confirms it is a directory.
func CheckReplicaAccessible(replicaPath string) error {
	if err := checkVolumeExists(replicaPath); err != nil {
		return err
	}

	info, err := os.Stat(replicaPath)
	if os.IsNotExist(err) {
		return nil // Missing is fine; CheckReplicaWritable creates it.
	}
	if err != nil {
		return fmt.Errorf("cannot access replica path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("replica path exists but is not a directory: %s", replicaPath)
	}
	return nil
}

// CheckReplicaWritable ensures the replica root can be created and is
// writable, by creating it and round-tripping a temporary file.
func CheckReplicaWritable(replicaPath string) error {
	if err := os.MkdirAll(replicaPath, util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("failed to create replica directory %s: %w", replicaPath, err)
	}

	tempFile := filepath.Join(replicaPath, ".treemirror-writetest.tmp")
	f, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("replica directory %s is not writable: %w", replicaPath, err)
	}
	f.Close()
	_ = os.Remove(tempFile)
	return nil
}
