package fsview

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gp205gti/treemirror/pkg/mlog"
	"github.com/gp205gti/treemirror/pkg/util"
)

// Accessor bundles tree enumeration with the copy/create/delete primitives.
// Exclusion sets apply to enumeration only; the primitives operate on
// whatever paths the engine hands them.
type Accessor struct {
	log            *mlog.Logger
	fileExclusions ExclusionSet
	dirExclusions  ExclusionSet
}

// NewAccessor creates an Accessor with the given logger and exclusion patterns.
func NewAccessor(log *mlog.Logger, excludeFiles, excludeDirs []string) *Accessor {
	return &Accessor{
		log:            log,
		fileExclusions: NewExclusionSet(excludeFiles, false),
		dirExclusions:  NewExclusionSet(excludeDirs, true),
	}
}

// Exists reports whether a filesystem object is present at path.
func (a *Accessor) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CreateDirectory creates the directory at path, including any missing
// parents. It is idempotent. The owner-write bit is always set so that the
// replica stays writable for subsequent runs even when the source directory
// is read-only.
func (a *Accessor) CreateDirectory(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, util.WithUserWritePermission(perm)); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// IsDirEmpty reports whether the directory at path currently holds no files
// and no subdirectories.
func (a *Accessor) IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open directory %s: %w", path, err)
	}
	defer f.Close()

	// Reading a single name is enough to decide emptiness.
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	return false, nil
}

// CopyFile copies the source entry's content to dst, overwriting any
// existing destination file. It writes to a temporary file in the
// destination directory first and renames it into place, so a failed copy
// never leaves a truncated destination behind. Permissions and the
// modification timestamp are carried over from the source entry.
func (a *Accessor) CopyFile(src Entry, dst string) error {
	in, err := os.Open(src.AbsPath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src.AbsPath, err)
	}
	defer in.Close()

	dstDir := filepath.Dir(dst)
	out, err := os.CreateTemp(dstDir, ".treemirror-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dstDir, err)
	}

	tempPath := out.Name()
	// If the rename succeeds, tempPath is cleared and this becomes a no-op.
	defer func() {
		if tempPath != "" {
			os.Remove(tempPath)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy content from %s to %s: %w", src.AbsPath, tempPath, err)
	}

	// Force the owner-write bit so a read-only source file cannot lock the
	// replica copy against replacement on subsequent runs.
	if err := out.Chmod(util.WithUserWritePermission(src.Mode)); err != nil {
		out.Close()
		return fmt.Errorf("failed to set permissions on temporary file %s: %w", tempPath, err)
	}

	// Close before Chtimes: flushing on close may update the modification time.
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %s: %w", tempPath, err)
	}

	if err := os.Chtimes(tempPath, src.ModTime, src.ModTime); err != nil {
		return fmt.Errorf("failed to set timestamps on %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		return fmt.Errorf("failed to move temporary file into place at %s: %w", dst, err)
	}
	tempPath = ""
	return nil
}

// Remove deletes the filesystem object at path. With recursive set, a
// directory and everything beneath it is removed; otherwise only a single
// file or empty directory is deleted.
func (a *Accessor) Remove(path string, recursive bool) error {
	if recursive {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}
