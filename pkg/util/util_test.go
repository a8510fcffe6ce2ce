package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestByteCountIEC(t *testing.T) {
	testCases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, tc := range testCases {
		if got := ByteCountIEC(tc.in); got != tc.want {
			t.Errorf("ByteCountIEC(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWithUserWritePermission(t *testing.T) {
	if got := WithUserWritePermission(0444); got != 0644 {
		t.Errorf("WithUserWritePermission(0444) = %o, want 644", got)
	}
	if got := WithUserWritePermission(0755); got != 0755 {
		t.Errorf("WithUserWritePermission(0755) = %o, want 755", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory available: %v", err)
	}

	got, err := ExpandPath("~/backups")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "backups") {
		t.Errorf("ExpandPath(~/backups) = %q, want %q", got, filepath.Join(home, "backups"))
	}

	got, err = ExpandPath("/absolute/path")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/absolute/path" {
		t.Errorf("paths without a tilde must pass through unchanged, got %q", got)
	}
}

func TestInvertMap(t *testing.T) {
	in := map[string]int{"a": 1, "b": 2}
	out := InvertMap(in)
	if len(out) != 2 || out[1] != "a" || out[2] != "b" {
		t.Errorf("InvertMap(%v) = %v", in, out)
	}
}
