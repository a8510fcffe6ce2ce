// Package mlog provides the leveled logger used throughout treemirror.
//
// A Logger writes every record to the run's log file and dispatches a copy
// to the console: warnings and errors always go to stderr, informational
// records go to stdout only in verbose mode. The Logger is an explicit value
// passed into every component that logs, so tests can capture output with
// NewForTesting.
package mlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gp205gti/treemirror/pkg/util"
)

// sinkDispatchHandler is a slog.Handler that writes every record to the file
// handler and additionally dispatches it to a console handler based on the
// record's level. INFO and below go to stdout (when configured), WARNING and
// above go to stderr.
type sinkDispatchHandler struct {
	fileHandler   slog.Handler
	stdoutHandler slog.Handler // nil unless verbose console output is enabled
	stderrHandler slog.Handler
}

// Enabled checks if the level is enabled for any of the underlying handlers.
func (h *sinkDispatchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.fileHandler.Enabled(ctx, level) || h.stderrHandler.Enabled(ctx, level) {
		return true
	}
	return h.stdoutHandler != nil && h.stdoutHandler.Enabled(ctx, level)
}

// Handle dispatches the record to the file sink and the appropriate console handler.
func (h *sinkDispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.fileHandler.Handle(ctx, r)
	if r.Level >= slog.LevelWarn {
		if cerr := h.stderrHandler.Handle(ctx, r); err == nil {
			err = cerr
		}
	} else if h.stdoutHandler != nil {
		if cerr := h.stdoutHandler.Handle(ctx, r); err == nil {
			err = cerr
		}
	}
	return err
}

// WithAttrs returns a new sinkDispatchHandler with the given attributes added.
func (h *sinkDispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &sinkDispatchHandler{
		fileHandler:   h.fileHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
	}
	if h.stdoutHandler != nil {
		out.stdoutHandler = h.stdoutHandler.WithAttrs(attrs)
	}
	return out
}

// WithGroup returns a new sinkDispatchHandler with the given group.
func (h *sinkDispatchHandler) WithGroup(name string) slog.Handler {
	out := &sinkDispatchHandler{
		fileHandler:   h.fileHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
	}
	if h.stdoutHandler != nil {
		out.stdoutHandler = h.stdoutHandler.WithGroup(name)
	}
	return out
}

// Logger is the treemirror log sink. It is safe for concurrent use.
type Logger struct {
	slogger *slog.Logger
	file    *os.File // nil for test loggers
}

// New creates a Logger writing to the given log file path. A pre-existing
// log file is rotated aside first (see Rotate). The parent directory is
// created if missing; failure to create or open the log file is a fatal
// setup error for the caller.
func New(path string, verbose bool, compress Format) (*Logger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, util.UserWritableDirPerms); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	if err := Rotate(path, compress, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to rotate previous log file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, util.UserWritableFilePerms)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})

	var stdoutHandler slog.Handler
	if verbose {
		stdoutHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return &Logger{
		slogger: slog.New(&sinkDispatchHandler{
			fileHandler:   fileHandler,
			stdoutHandler: stdoutHandler,
			stderrHandler: stderrHandler,
		}),
		file: f,
	}, nil
}

// NewForTesting creates a Logger that writes all levels to the given writer.
func NewForTesting(w io.Writer) *Logger {
	return &Logger{
		slogger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// Discard returns a Logger that drops everything. Useful as a default when a
// component requires a Logger but the caller has none.
func Discard() *Logger {
	return NewForTesting(io.Discard)
}

// Close flushes and closes the underlying log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}
