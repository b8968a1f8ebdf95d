package config

import (
	"complete/internal/core/errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultBusyTimeout     = 30 * time.Minute
	defaultMaxIncludeDepth = 32
	defaultSearchLimit     = 20
	defaultServerAddress   = ":8080"
	defaultBurst           = 20
)

// Load reads a TOML file, fills defaults and resolves relative paths
// against the file's directory. Environment overrides and validation are
// left to the caller so flags can still fill in required keys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "read config file"), errors.CtxPath, path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeConfiguration, "decode config file"), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	ResolvePaths(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// LoadOrDefault loads path when it is set, otherwise DefaultFile when it
// exists in the working directory, otherwise DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	if info, err := os.Stat(DefaultFile); err == nil && !info.IsDir() {
		return Load(DefaultFile)
	}
	return DefaultConfig(), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = defaultBusyTimeout
	}
	if cfg.Frontend.MaxIncludeDepth <= 0 {
		cfg.Frontend.MaxIncludeDepth = defaultMaxIncludeDepth
	}
	if cfg.Search.Limit <= 0 {
		cfg.Search.Limit = defaultSearchLimit
	}
	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.Burst <= 0 {
		cfg.Server.Burst = defaultBurst
	}
}

func normalize(cfg *Config) {
	cfg.DB.Path = strings.TrimSpace(cfg.DB.Path)
	cfg.Index.SourceRoot = strings.TrimSpace(cfg.Index.SourceRoot)
	cfg.Server.Address = strings.TrimSpace(cfg.Server.Address)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Frontend.IncludeDirs = trimList(cfg.Frontend.IncludeDirs)
	cfg.Frontend.SystemDirs = trimList(cfg.Frontend.SystemDirs)
	cfg.Frontend.SystemPatterns = trimList(cfg.Frontend.SystemPatterns)
}

func trimList(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
