//go:build !windows

package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// checkVolumeExists is a no-op outside Windows; paths have no volume component.
func checkVolumeExists(path string) error {
	return nil
}

// ReplicaOnSystemDisk reports whether the replica path resides on the same
// device as the root filesystem. When an external drive meant to hold the
// replica is not mounted, its mount directory is a "ghost" on the system
// disk; mirroring into it silently fills the system partition. Paths under
// the user's home directory are considered intentional and never flagged.
func ReplicaOnSystemDisk(path string) (bool, error) {
	if homeDir, err := os.UserHomeDir(); err == nil && strings.HasPrefix(path, homeDir) {
		return false, nil
	}
	if os.TempDir() != "" && strings.HasPrefix(path, os.TempDir()) {
		return false, nil
	}

	rootStat, err := statDevice("/")
	if err != nil {
		return false, err
	}

	// The path itself may not exist yet; use its deepest existing ancestor.
	ancestor := path
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break // Hit root.
		}
		ancestor = parent
	}

	pathStat, err := statDevice(ancestor)
	if err != nil {
		return false, err
	}

	return pathStat == rootStat && path != "/", nil
}

func statDevice(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	stat, ok := info.Sys().(*unix.Stat_t)
	if !ok {
		return 0, fmt.Errorf("unsupported platform for unix.Stat_t")
	}
	return uint64(stat.Dev), nil
}
