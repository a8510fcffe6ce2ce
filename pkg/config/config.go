// Package config assembles the runtime configuration for a mirroring run.
// Values are resolved in three layers: built-in defaults, then TREEMIRROR_*
// environment variables, then explicitly set command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/gp205gti/treemirror/pkg/mirror"
	"github.com/gp205gti/treemirror/pkg/mlog"
	"github.com/gp205gti/treemirror/pkg/util"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TREEMIRROR_"

// Config holds every knob of a run. The zero value is not usable; start from
// NewDefault.
type Config struct {
	Source  string `env:"SOURCE"`
	Replica string `env:"REPLICA"`
	LogFile string `env:"LOG_FILE"`

	Verbose     bool   `env:"VERBOSE"`
	LogCompress string `env:"LOG_COMPRESS"`

	RetryCount           int  `env:"RETRY_COUNT"`
	RetryWaitSeconds     int  `env:"RETRY_WAIT_SECONDS"`
	FailOnDeleteExhaust  bool `env:"FAIL_ON_DELETE"`
	DryRun               bool `env:"DRY_RUN"`
	ModTimeWindowSeconds int  `env:"MOD_TIME_WINDOW_SECONDS"`

	ExcludeFiles []string `env:"EXCLUDE_FILES" envSeparator:","`
	ExcludeDirs  []string `env:"EXCLUDE_DIRS" envSeparator:","`
}

// NewDefault returns the built-in defaults: 3 delete retries with a 1 second
// pause, exhaustion treated as an error, real deletions, exact timestamp
// comparison, gzip-compressed log rotation.
func NewDefault() Config {
	return Config{
		LogCompress:          string(mlog.Gzip),
		RetryCount:           3,
		RetryWaitSeconds:     1,
		FailOnDeleteExhaust:  true,
		DryRun:               false,
		ModTimeWindowSeconds: 0,
	}
}

// ApplyEnv overlays TREEMIRROR_* environment variables onto the config.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment configuration: %w", err)
	}
	return nil
}

// Validate checks the fully resolved config and normalizes paths. Source,
// replica, and log file are required; the source and replica trees must not
// be nested inside each other, otherwise a run would mirror the replica into
// itself.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("a source directory is required (-source)")
	}
	if c.Replica == "" {
		return fmt.Errorf("a replica directory is required (-replica)")
	}
	if c.LogFile == "" {
		return fmt.Errorf("a log file path is required (-log)")
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must be >= 0, got %d", c.RetryCount)
	}
	if c.RetryWaitSeconds < 0 {
		return fmt.Errorf("retry wait must be >= 0 seconds, got %d", c.RetryWaitSeconds)
	}
	if c.ModTimeWindowSeconds < 0 {
		return fmt.Errorf("mod-time window must be >= 0 seconds, got %d", c.ModTimeWindowSeconds)
	}
	if _, err := mlog.ParseFormat(c.LogCompress); err != nil {
		return err
	}

	for _, p := range []*string{&c.Source, &c.Replica, &c.LogFile} {
		expanded, err := util.ExpandPath(*p)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return fmt.Errorf("cannot resolve path %s: %w", *p, err)
		}
		*p = abs
	}

	if c.Source == c.Replica {
		return fmt.Errorf("source and replica must be different directories")
	}
	if isNested(c.Source, c.Replica) || isNested(c.Replica, c.Source) {
		return fmt.Errorf("source and replica must not be nested inside each other")
	}
	return nil
}

// isNested reports whether child lies inside parent.
func isNested(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

// MirrorPlan converts the validated config into the engine's plan value.
func (c *Config) MirrorPlan() *mirror.Plan {
	return &mirror.Plan{
		Source:  c.Source,
		Replica: c.Replica,
		Removal: mirror.RemovalPolicy{
			RetryCount:    c.RetryCount,
			RetryWait:     time.Duration(c.RetryWaitSeconds) * time.Second,
			FailOnExhaust: c.FailOnDeleteExhaust,
			DryRun:        c.DryRun,
		},
		ModTimeWindow: time.Duration(c.ModTimeWindowSeconds) * time.Second,
		ExcludeFiles:  c.ExcludeFiles,
		ExcludeDirs:   c.ExcludeDirs,
	}
}

// LogFormat returns the parsed rotated-log compression format.
func (c *Config) LogFormat() mlog.Format {
	format, err := mlog.ParseFormat(c.LogCompress)
	if err != nil {
		// Validate rejects unknown formats before this is reached.
		return mlog.Gzip
	}
	return format
}
