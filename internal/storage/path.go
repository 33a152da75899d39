package storage

import (
	"fmt"
	"path"
	"strings"
)

// CleanName lexically normalizes a caller-supplied object name:
// backslashes become forward slashes, redundant separators and "."
// segments collapse, and a trailing slash survives so directory-style
// names stay distinguishable from plain files.
func CleanName(name string) string {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if cleaned == "." {
		cleaned = ""
	}
	if strings.HasSuffix(name, "/") && !strings.HasSuffix(cleaned, "/") {
		cleaned += "/"
	}
	return cleaned
}

// NormalizeName joins a cleaned name onto the store's location and
// verifies the result is still confined under it. This is the only
// traversal defense; every key handed to a Bucket goes through here.
// The returned key never carries a leading slash.
func NormalizeName(location, name string) (string, error) {
	base := strings.Trim(CleanName(location), "/")
	cleaned := CleanName(name)

	joined := cleaned
	if base != "" && !strings.HasPrefix(cleaned, "/") {
		if cleaned == "" {
			joined = base
		} else {
			joined = base + "/" + cleaned
		}
	}

	key := strings.TrimPrefix(joined, "/")
	if key == ".." || strings.HasPrefix(key, "../") ||
		strings.Contains(key, "/../") || strings.HasSuffix(key, "/..") {
		return "", fmt.Errorf("access to %q denied: %w", name, ErrPathTraversal)
	}
	if base != "" && key != base && key != base+"/" && !strings.HasPrefix(key, base+"/") {
		return "", fmt.Errorf("access to %q denied: %w", name, ErrPathTraversal)
	}
	return key, nil
}
