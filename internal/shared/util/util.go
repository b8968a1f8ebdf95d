package util

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePatternPath cleans and normalizes paths for matcher/pattern usage.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix returns true when path equals prefix or is contained within prefix.
func HasPathPrefix(path, prefix string) bool {
	path = NormalizePatternPath(path)
	prefix = NormalizePatternPath(prefix)
	if path == "" || prefix == "" {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// ResolvePath makes raw absolute and resolves symbolic links. The path is
// not cleaned before resolution, so `link/..` steps out of the link's
// target rather than out of the directory holding the link. Paths that do
// not exist on disk are returned absolute and lexically cleaned.
func ResolvePath(raw string) string {
	abs := raw
	if !filepath.IsAbs(raw) {
		if cwd, err := os.Getwd(); err == nil {
			abs = cwd + string(filepath.Separator) + raw
		}
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	if cleaned, err := filepath.Abs(raw); err == nil {
		return cleaned
	}
	return filepath.Clean(raw)
}

// NormalizeRoot resolves a source root and guarantees a trailing separator,
// so stripping it from a path leaves a relative path. An empty root
// defaults to the working directory.
func NormalizeRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = cwd
	}
	resolved := ResolvePath(root)
	if !strings.HasSuffix(resolved, string(filepath.Separator)) {
		resolved += string(filepath.Separator)
	}
	return resolved, nil
}

// CanonicalPath maps a raw file path to its canonical identity: absolute
// with symlinks resolved, then with root removed when root is a prefix.
// Different spellings of one physical file canonicalize identically.
func CanonicalPath(raw, root string) string {
	resolved := ResolvePath(raw)
	if root != "" && strings.HasPrefix(resolved, root) {
		return resolved[len(root):]
	}
	return resolved
}

// EnsureParentDir creates the directory holding path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
