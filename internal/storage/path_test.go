package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "a/b.txt", want: "a/b.txt"},
		{name: "empty", input: "", want: ""},
		{name: "dot", input: ".", want: ""},
		{name: "backslashes", input: "a\\b\\c.txt", want: "a/b/c.txt"},
		{name: "duplicate separators", input: "a//b///c", want: "a/b/c"},
		{name: "inner dot segments", input: "a/./b/../c", want: "a/c"},
		{name: "keeps trailing slash", input: "a/b/", want: "a/b/"},
		{name: "keeps trailing slash after collapse", input: "a//b//", want: "a/b/"},
		{name: "leading parent survives for the normalize check", input: "../a", want: "../a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.input); got != tt.want {
				t.Fatalf("clean name mismatch: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeNameConfinesToLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		input    string
		want     string
		wantErr  bool
	}{
		{name: "no location", location: "", input: "a/b.txt", want: "a/b.txt"},
		{name: "joins location", location: "uploads", input: "a/b.txt", want: "uploads/a/b.txt"},
		{name: "location trailing slash", location: "uploads/", input: "x", want: "uploads/x"},
		{name: "nested location", location: "media/uploads", input: "x", want: "media/uploads/x"},
		{name: "empty name resolves to location", location: "uploads", input: "", want: "uploads"},
		{name: "directory-style name", location: "uploads", input: "foo/", want: "uploads/foo/"},
		{name: "inner traversal collapses inside root", location: "uploads", input: "a/../b", want: "uploads/b"},
		{name: "classic escape", location: "uploads", input: "../../etc/passwd", wantErr: true},
		{name: "single parent", location: "uploads", input: "..", wantErr: true},
		{name: "trailing parent", location: "uploads", input: "a/b/../../..", wantErr: true},
		{name: "absolute bypass", location: "uploads", input: "/etc/passwd", wantErr: true},
		{name: "backslash escape", location: "uploads", input: "..\\secret", wantErr: true},
		{name: "parent with no location", location: "", input: "../a", wantErr: true},
		{name: "absolute with no location is stripped", location: "", input: "/a/b", want: "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeName(tt.location, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected traversal error for %q", tt.input)
				}
				if !errors.Is(err, ErrPathTraversal) {
					t.Fatalf("expected ErrPathTraversal, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("key mismatch: got %q want %q", got, tt.want)
			}
			if strings.HasPrefix(got, "/") {
				t.Fatalf("key must not be absolute: %q", got)
			}
		})
	}
}

func TestNormalizeNameKeysStayUnderRoot(t *testing.T) {
	inputs := []string{"x", "a/b", "a/../c", "deep/nested/tree/file.bin", "dir/"}
	for _, input := range inputs {
		key, err := NormalizeName("uploads", input)
		if err != nil {
			t.Fatalf("normalize %q failed: %v", input, err)
		}
		if key != "uploads" && !strings.HasPrefix(key, "uploads/") {
			t.Fatalf("key %q escaped the root", key)
		}
	}
}
