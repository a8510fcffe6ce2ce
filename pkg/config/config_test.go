package config

import (
	"path/filepath"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate, rooted in a temp dir.
func validConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	cfg := NewDefault()
	cfg.Source = filepath.Join(root, "src")
	cfg.Replica = filepath.Join(root, "rep")
	cfg.LogFile = filepath.Join(root, "run.log")
	return cfg
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", cfg.RetryCount)
	}
	if cfg.RetryWaitSeconds != 1 {
		t.Errorf("RetryWaitSeconds = %d, want 1", cfg.RetryWaitSeconds)
	}
	if !cfg.FailOnDeleteExhaust {
		t.Error("FailOnDeleteExhaust should default to true")
	}
	if cfg.DryRun {
		t.Error("DryRun should default to false")
	}
	if cfg.LogCompress != "gzip" {
		t.Errorf("LogCompress = %q, want gzip", cfg.LogCompress)
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := validConfig(t)
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !filepath.IsAbs(cfg.Source) || !filepath.IsAbs(cfg.Replica) {
			t.Error("paths should be normalized to absolute")
		}
	})

	t.Run("Missing required values", func(t *testing.T) {
		mutations := map[string]func(*Config){
			"source":  func(c *Config) { c.Source = "" },
			"replica": func(c *Config) { c.Replica = "" },
			"log":     func(c *Config) { c.LogFile = "" },
		}
		for name, mutate := range mutations {
			cfg := validConfig(t)
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected an error with missing %s", name)
			}
		}
	})

	t.Run("Negative knobs", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.RetryCount = -1
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for a negative retry count")
		}

		cfg = validConfig(t)
		cfg.ModTimeWindowSeconds = -5
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for a negative mod-time window")
		}
	})

	t.Run("Unknown log compression", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.LogCompress = "lzma"
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for an unknown log compression format")
		}
	})

	t.Run("Identical source and replica", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Replica = cfg.Source
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error when source and replica are the same path")
		}
	})

	t.Run("Nested trees", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Replica = filepath.Join(cfg.Source, "inner")
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error when the replica is inside the source")
		}

		cfg = validConfig(t)
		cfg.Source = filepath.Join(cfg.Replica, "inner")
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error when the source is inside the replica")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TREEMIRROR_SOURCE", "/data/src")
	t.Setenv("TREEMIRROR_RETRY_COUNT", "7")
	t.Setenv("TREEMIRROR_DRY_RUN", "true")
	t.Setenv("TREEMIRROR_EXCLUDE_FILES", "*.tmp,*.swp")

	cfg := NewDefault()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("env overlay failed: %v", err)
	}

	if cfg.Source != "/data/src" {
		t.Errorf("Source = %q, want /data/src", cfg.Source)
	}
	if cfg.RetryCount != 7 {
		t.Errorf("RetryCount = %d, want 7", cfg.RetryCount)
	}
	if !cfg.DryRun {
		t.Error("DryRun should be overridden to true")
	}
	if len(cfg.ExcludeFiles) != 2 || cfg.ExcludeFiles[0] != "*.tmp" {
		t.Errorf("ExcludeFiles = %v, want [*.tmp *.swp]", cfg.ExcludeFiles)
	}
}

func TestMirrorPlan(t *testing.T) {
	cfg := validConfig(t)
	cfg.RetryCount = 5
	cfg.RetryWaitSeconds = 2
	cfg.FailOnDeleteExhaust = false
	cfg.DryRun = true
	cfg.ModTimeWindowSeconds = 1
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	plan := cfg.MirrorPlan()
	if plan.Source != cfg.Source || plan.Replica != cfg.Replica {
		t.Error("plan paths do not match the config")
	}
	if plan.Removal.RetryCount != 5 {
		t.Errorf("Removal.RetryCount = %d, want 5", plan.Removal.RetryCount)
	}
	if plan.Removal.RetryWait != 2*time.Second {
		t.Errorf("Removal.RetryWait = %v, want 2s", plan.Removal.RetryWait)
	}
	if plan.Removal.FailOnExhaust {
		t.Error("Removal.FailOnExhaust should carry over as false")
	}
	if !plan.Removal.DryRun {
		t.Error("Removal.DryRun should carry over as true")
	}
	if plan.ModTimeWindow != time.Second {
		t.Errorf("ModTimeWindow = %v, want 1s", plan.ModTimeWindow)
	}
}
