package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in this environment")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/.redactd/models", filepath.Join(home, ".redactd", "models")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~user/path", "~user/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactdDir(t *testing.T) {
	dir, err := RedactdDir()
	if err != nil {
		t.Skip("no home directory in this environment")
	}
	if !strings.HasSuffix(dir, ".redactd") {
		t.Errorf("RedactdDir = %q, want .redactd suffix", dir)
	}
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Fatalf("stat %s: %v", path, err)
	}
}
