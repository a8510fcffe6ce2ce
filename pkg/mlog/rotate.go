package mlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	"github.com/gp205gti/treemirror/pkg/util"
)

// Format represents the compression format applied to rotated log files.
type Format string

const (
	Gzip Format = "gzip"
	Zstd Format = "zstd"
	None Format = "none"
)

var formatToString = map[Format]string{
	Gzip: "gzip",
	Zstd: "zstd",
	None: "none",
}

var stringToFormat map[string]Format

func init() {
	// Inverting the map at runtime ensures formatToString is fully loaded.
	stringToFormat = util.InvertMap(formatToString)
}

func (f Format) String() string {
	if str, ok := formatToString[f]; ok {
		return str
	}
	return fmt.Sprintf("unknown_log_compression_format(%s)", string(f))
}

// ParseFormat converts a string into a Format, rejecting unknown values.
func ParseFormat(s string) (Format, error) {
	if format, ok := stringToFormat[s]; ok {
		return format, nil
	}
	return "", fmt.Errorf("invalid log compression format: %q. Must be 'gzip', 'zstd', or 'none'", s)
}

// extension returns the file name suffix for the compressed rotated log.
func (f Format) extension() string {
	switch f {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

// Rotate moves an existing log file at path aside with a timestamp suffix and
// compresses it with the given format. A missing log file is a no-op. The
// rotated file name is <path>.<timestamp>[.gz|.zst].
func Rotate(path string, format Format, now time.Time) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil // Nothing to rotate.
		}
		return fmt.Errorf("cannot stat log file %s: %w", path, err)
	}

	rotated := fmt.Sprintf("%s.%s", path, now.Format("20060102-150405"))
	if err := os.Rename(path, rotated); err != nil {
		return fmt.Errorf("failed to rename log file %s: %w", path, err)
	}

	if format == None {
		return nil
	}

	if err := compressFile(rotated, rotated+format.extension(), format); err != nil {
		return err
	}
	return os.Remove(rotated)
}

// compressFile writes a compressed copy of src at dst using the given format.
func compressFile(src, dst string, format Format) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open rotated log %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, util.UserWritableFilePerms)
	if err != nil {
		return fmt.Errorf("failed to create compressed log %s: %w", dst, err)
	}
	defer out.Close()

	var compressedWriter io.WriteCloser
	switch format {
	case Zstd:
		zstdWriter, err := zstd.NewWriter(out)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		compressedWriter = zstdWriter
	case Gzip:
		pgzipWriter, err := pgzip.NewWriterLevel(out, pgzip.DefaultCompression)
		if err != nil {
			return fmt.Errorf("failed to create gzip writer: %w", err)
		}
		compressedWriter = pgzipWriter
	default:
		return fmt.Errorf("unsupported log compression format: %s", format)
	}

	if _, err := io.Copy(compressedWriter, in); err != nil {
		compressedWriter.Close()
		return fmt.Errorf("failed to compress rotated log %s: %w", src, err)
	}
	if err := compressedWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize compressed log %s: %w", dst, err)
	}
	return out.Sync()
}
