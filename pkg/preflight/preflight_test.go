package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckSourceAccessible(t *testing.T) {
	t.Run("Existing directory", func(t *testing.T) {
		if err := CheckSourceAccessible(t.TempDir()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Missing directory", func(t *testing.T) {
		if err := CheckSourceAccessible(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected an error for a missing source")
		}
	})

	t.Run("Source is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := CheckSourceAccessible(path); err == nil {
			t.Error("expected an error when the source is a file")
		}
	})
}

func TestCheckReplicaAccessible(t *testing.T) {
	t.Run("Existing directory", func(t *testing.T) {
		if err := CheckReplicaAccessible(t.TempDir()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Missing directory is acceptable", func(t *testing.T) {
		if err := CheckReplicaAccessible(filepath.Join(t.TempDir(), "to-be-created")); err != nil {
			t.Errorf("a missing replica should pass (it gets created later), got %v", err)
		}
	})

	t.Run("Replica is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := CheckReplicaAccessible(path); err == nil {
			t.Error("expected an error when the replica path is a file")
		}
	})
}

func TestCheckReplicaWritable(t *testing.T) {
	t.Run("Creates missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "b", "replica")
		if err := CheckReplicaWritable(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Errorf("replica directory was not created, err=%v", err)
		}
		// The write-test file must not linger.
		entries, err := os.ReadDir(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected an empty replica directory, found %d entries", len(entries))
		}
	})

	t.Run("Uncreatable path", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := CheckReplicaWritable(filepath.Join(blocker, "replica")); err == nil {
			t.Error("expected an error when the replica cannot be created")
		}
	})
}
