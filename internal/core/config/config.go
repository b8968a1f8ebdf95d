package config

import (
	"time"
)

// DefaultFile is looked up in the working directory when -config is not given.
const DefaultFile = "complete.toml"

type Config struct {
	Version       int           `toml:"version"`
	DB            Database      `toml:"db"`
	Index         Index         `toml:"index"`
	Frontend      Frontend      `toml:"frontend"`
	Search        Search        `toml:"search"`
	Server        Server        `toml:"server"`
	Observability Observability `toml:"observability"`
}

type Database struct {
	// Path of the SQLite index. Required.
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Index struct {
	// SourceRoot is stripped from indexed paths; defaults to the working
	// directory.
	SourceRoot                 string `toml:"source_root"`
	SkipImplicitInstantiations bool   `toml:"skip_implicit_instantiations"`
}

type Frontend struct {
	IncludeDirs     []string `toml:"include_dirs"`
	SystemDirs      []string `toml:"system_dirs"`
	SystemPatterns  []string `toml:"system_patterns"`
	MaxIncludeDepth int      `toml:"max_include_depth"`
}

type Search struct {
	Limit int `toml:"limit"`
}

type Server struct {
	Address string `toml:"address"`
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

type Observability struct {
	EnableMetrics bool   `toml:"enable_metrics"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
}

// DefaultConfig is the configuration used when no file is given. DB.Path
// is left empty: it must come from a file, the environment or a flag.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
