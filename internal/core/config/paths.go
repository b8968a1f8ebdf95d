package config

import (
	"path/filepath"
	"strings"
)

// ResolvePaths makes the filesystem paths of cfg absolute against base.
// The source root is left alone when empty so it keeps defaulting to the
// working directory of the run.
func ResolvePaths(cfg *Config, base string) {
	if cfg.DB.Path != "" {
		cfg.DB.Path = ResolveRelative(base, cfg.DB.Path)
	}
	if cfg.Index.SourceRoot != "" {
		cfg.Index.SourceRoot = ResolveRelative(base, cfg.Index.SourceRoot)
	}
	for i, dir := range cfg.Frontend.IncludeDirs {
		cfg.Frontend.IncludeDirs[i] = ResolveRelative(base, dir)
	}
	for i, dir := range cfg.Frontend.SystemDirs {
		cfg.Frontend.SystemDirs[i] = ResolveRelative(base, dir)
	}
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
