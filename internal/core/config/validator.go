package config

import (
	"complete/internal/core/config/helpers"
	"complete/internal/core/errors"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	path := strings.TrimSpace(cfg.DB.Path)
	if path == "" {
		return fmt.Errorf("db.path must be set (config file, COMPLETE_DB_PATH or -db)")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("db.path %q is a directory, expected file", path)
	}
	if cfg.DB.BusyTimeout < 0 {
		return fmt.Errorf("db.busy_timeout must not be negative")
	}
	return nil
}

func validateIndex(cfg *Config) error {
	root := strings.TrimSpace(cfg.Index.SourceRoot)
	if root == "" {
		return nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("index.source_root %q: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("index.source_root %q is not a directory", root)
	}
	return nil
}

func validateFrontend(cfg *Config) error {
	if cfg.Frontend.MaxIncludeDepth < 0 {
		return fmt.Errorf("frontend.max_include_depth must not be negative")
	}
	for i, dir := range cfg.Frontend.SystemDirs {
		if helpers.HasWildcard(dir) {
			return fmt.Errorf("frontend.system_dirs[%d] %q contains a wildcard; use frontend.system_patterns", i, dir)
		}
	}
	for i, inc := range cfg.Frontend.IncludeDirs {
		for j, sys := range cfg.Frontend.SystemDirs {
			if helpers.IsPathOverlap(filepath.Clean(inc), filepath.Clean(sys)) {
				return fmt.Errorf("frontend.include_dirs[%d] %q overlaps frontend.system_dirs[%d] %q", i, inc, j, sys)
			}
		}
	}
	for i, p := range cfg.Frontend.SystemPatterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("frontend.system_patterns[%d] %q: %w", i, p, err)
		}
	}
	return nil
}

func validateServer(cfg *Config) error {
	if cfg.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive")
	}
	if _, _, err := net.SplitHostPort(cfg.Server.Address); err != nil {
		return fmt.Errorf("server.address %q: %w", cfg.Server.Address, err)
	}
	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

// Validate returns every problem found in cfg.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateDatabase,
		validateIndex,
		validateFrontend,
		validateServer,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Check validates cfg and folds the problems into one configuration error.
func Check(cfg *Config) error {
	errs := Validate(cfg)
	if len(errs) == 0 {
		return nil
	}
	return errors.Wrap(stderrors.Join(errs...), errors.CodeConfiguration, "invalid configuration")
}
