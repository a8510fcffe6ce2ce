//go:build windows

package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// checkVolumeExists verifies that the drive or network share root for a given
// path exists. For "Z:\replica" it checks "Z:\", ensuring the target volume
// is actually available before any work starts.
func checkVolumeExists(path string) error {
	volume := filepath.VolumeName(path)
	if volume == "" {
		return nil // Relative path, no volume to check.
	}

	checkVol := volume
	if !strings.HasSuffix(checkVol, string(filepath.Separator)) {
		checkVol += string(filepath.Separator)
	}
	checkVol = filepath.Clean(checkVol)

	if _, err := os.Stat(checkVol); os.IsNotExist(err) {
		return fmt.Errorf("volume root does not exist: %s. Ensure the drive is connected", checkVol)
	}
	return nil
}

// ReplicaOnSystemDisk always reports false on Windows: the volume existence
// check above already covers the unplugged-drive case, and the drive letter
// makes the target device explicit.
func ReplicaOnSystemDisk(path string) (bool, error) {
	return false, nil
}
