package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gp205gti/treemirror/pkg/buildinfo"
	"github.com/gp205gti/treemirror/pkg/config"
	"github.com/gp205gti/treemirror/pkg/flagparse"
	"github.com/gp205gti/treemirror/pkg/mirror"
	"github.com/gp205gti/treemirror/pkg/mlog"
	"github.com/gp205gti/treemirror/pkg/preflight"
)

// Exit codes: 0 clean run, 1 at least one item failure or verification
// mismatch, 2 fatal setup error (bad flags, uncreatable log, missing source).
const (
	exitClean = 0
	exitDirty = 1
	exitFatal = 2
)

// init sets up a custom, more descriptive help message for the flags.
func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s (version %s):\n", buildinfo.Name, buildinfo.Version)
		fmt.Fprintf(flag.CommandLine.Output(), "One-way mirroring of a source directory tree onto a replica tree.\n\n")
		flag.PrintDefaults()
	}
}

// parseFlags defines and parses the command-line flags and overlays the
// explicitly set ones onto cfg. Returns true if only the version was requested.
func parseFlags(cfg *config.Config) (showVersion bool) {
	sourceFlag := flag.String("source", "", "Source directory treated as authoritative (required)")
	replicaFlag := flag.String("replica", "", "Replica directory mirrored to match the source (required)")
	logFlag := flag.String("log", "", "Log file path (required)")
	verboseFlag := flag.Bool("verbose", false, "Echo informational log records to stdout")
	retryCountFlag := flag.Int("retry-count", cfg.RetryCount, "Number of retries for a failed delete")
	retryWaitFlag := flag.Int("retry-wait", cfg.RetryWaitSeconds, "Seconds to pause between delete attempts")
	failOnDeleteFlag := flag.Bool("fail-on-delete", cfg.FailOnDeleteExhaust, "Treat exhausted delete retries as an error for the entry")
	dryRunFlag := flag.Bool("dry-run", cfg.DryRun, "Log intended deletions without performing them")
	modTimeWindowFlag := flag.Int("mod-time-window", cfg.ModTimeWindowSeconds, "Time window in seconds to consider file modification times equal (0=exact)")
	excludeFilesFlag := flag.String("exclude-files", "", "Comma-separated list of file patterns to exclude (supports glob patterns)")
	excludeDirsFlag := flag.String("exclude-dirs", "", "Comma-separated list of directory patterns to exclude (supports glob patterns)")
	logCompressFlag := flag.String("log-compress", cfg.LogCompress, "Compression for the rotated previous log: 'gzip', 'zstd', or 'none'")
	versionFlag := flag.Bool("version", false, "Print the application version and exit")
	flag.Parse()

	// Only overlay flags the user explicitly set, so environment values are
	// not clobbered by flag defaults.
	used := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { used[f.Name] = true })

	if used["source"] {
		cfg.Source = *sourceFlag
	}
	if used["replica"] {
		cfg.Replica = *replicaFlag
	}
	if used["log"] {
		cfg.LogFile = *logFlag
	}
	if used["verbose"] {
		cfg.Verbose = *verboseFlag
	}
	if used["retry-count"] {
		cfg.RetryCount = *retryCountFlag
	}
	if used["retry-wait"] {
		cfg.RetryWaitSeconds = *retryWaitFlag
	}
	if used["fail-on-delete"] {
		cfg.FailOnDeleteExhaust = *failOnDeleteFlag
	}
	if used["dry-run"] {
		cfg.DryRun = *dryRunFlag
	}
	if used["mod-time-window"] {
		cfg.ModTimeWindowSeconds = *modTimeWindowFlag
	}
	if used["exclude-files"] {
		cfg.ExcludeFiles = flagparse.ParseExcludeList(*excludeFilesFlag)
	}
	if used["exclude-dirs"] {
		cfg.ExcludeDirs = flagparse.ParseExcludeList(*excludeDirsFlag)
	}
	if used["log-compress"] {
		cfg.LogCompress = *logCompressFlag
	}

	return *versionFlag
}

// run executes one mirroring pass and returns the process exit code.
func run(ctx context.Context, cfg *config.Config) int {
	log, err := mlog.New(cfg.LogFile, cfg.Verbose, cfg.LogFormat())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	defer log.Close()

	log.Info("Starting "+buildinfo.Name, "version", buildinfo.Version, "pid", os.Getpid())

	if onSystemDisk, err := preflight.ReplicaOnSystemDisk(cfg.Replica); err == nil && onSystemDisk {
		log.Warn("Replica path is on the system disk. If it should live on an external drive, ensure the drive is mounted", "replica", cfg.Replica)
	}

	outcome, err := mirror.NewMirrorer(log).Run(ctx, cfg.MirrorPlan())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Error("Mirror run cancelled")
		} else {
			log.Error("Mirror run aborted", "error", err)
		}
		return exitFatal
	}
	if outcome.Status() != 0 {
		return exitDirty
	}
	return exitClean
}

func main() {
	cfg := config.NewDefault()
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}

	if parseFlags(&cfg) {
		fmt.Printf("%s version %s\n", buildinfo.Name, buildinfo.Version)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}

	// Cancel the run context on interrupt. Mutating loops never abort
	// mid-entry; cancellation takes effect at the next step boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, &cfg))
}
