package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bucketfs/internal/storage"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	text := `
bucket = "test"
zone = "test"
location = "uploads"
backend = "memory"
`
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunWithoutCommandReturnsUsage(t *testing.T) {
	err := Run([]string{"-config", writeTestConfig(t)})
	if err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"-config", writeTestConfig(t), "frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got: %v", err)
	}
}

func TestRunCommandArgValidation(t *testing.T) {
	cfg := writeTestConfig(t)
	cases := [][]string{
		{"put", "only-name"},
		{"cat"},
		{"rm"},
		{"stat"},
		{"url"},
	}
	for _, args := range cases {
		err := Run(append([]string{"-config", cfg}, args...))
		if err == nil || !strings.Contains(err.Error(), "usage: bucketfs "+args[0]) {
			t.Fatalf("expected %s usage error, got: %v", args[0], err)
		}
	}
}

func TestRunPutAndURL(t *testing.T) {
	cfg := writeTestConfig(t)

	source := filepath.Join(t.TempDir(), "local.txt")
	if err := os.WriteFile(source, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := Run([]string{"-config", cfg, "put", "docs/remote.txt", source}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if err := Run([]string{"-config", cfg, "url", "docs/remote.txt"}); err != nil {
		t.Fatalf("url failed: %v", err)
	}
}

func TestRunStatMissingObject(t *testing.T) {
	err := Run([]string{"-config", writeTestConfig(t), "stat", "absent.txt"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRunRejectsTraversalName(t *testing.T) {
	err := Run([]string{"-config", writeTestConfig(t), "rm", "../../etc/passwd"})
	if !errors.Is(err, storage.ErrPathTraversal) {
		t.Fatalf("expected ErrPathTraversal, got: %v", err)
	}
}

func TestRunBadConfigSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`backend = "memory"`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	err := Run([]string{"-config", path, "ls"})
	if err == nil || !strings.Contains(err.Error(), "bucket is required") {
		t.Fatalf("expected config error, got: %v", err)
	}
}
