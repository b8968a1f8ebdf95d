package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: COMPLETE_[SECTION]_[KEY] (e.g., COMPLETE_DB_PATH).
func ApplyEnvOverrides(cfg *Config) {
	// Database
	setEnvString(&cfg.DB.Path, "COMPLETE_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "COMPLETE_DB_BUSY_TIMEOUT")

	// Index
	setEnvString(&cfg.Index.SourceRoot, "COMPLETE_INDEX_SOURCE_ROOT")
	setEnvBool(&cfg.Index.SkipImplicitInstantiations, "COMPLETE_INDEX_SKIP_IMPLICIT_INSTANTIATIONS")

	// Frontend
	setEnvList(&cfg.Frontend.IncludeDirs, "COMPLETE_FRONTEND_INCLUDE_DIRS")
	setEnvList(&cfg.Frontend.SystemDirs, "COMPLETE_FRONTEND_SYSTEM_DIRS")
	setEnvList(&cfg.Frontend.SystemPatterns, "COMPLETE_FRONTEND_SYSTEM_PATTERNS")
	setEnvInt(&cfg.Frontend.MaxIncludeDepth, "COMPLETE_FRONTEND_MAX_INCLUDE_DEPTH")

	// Search / server
	setEnvInt(&cfg.Search.Limit, "COMPLETE_SEARCH_LIMIT")
	setEnvString(&cfg.Server.Address, "COMPLETE_SERVER_ADDRESS")
	setEnvFloat64(&cfg.Server.RateLimit, "COMPLETE_SERVER_RATE_LIMIT")
	setEnvInt(&cfg.Server.Burst, "COMPLETE_SERVER_BURST")

	// Observability
	setEnvBool(&cfg.Observability.EnableMetrics, "COMPLETE_OBSERVABILITY_ENABLE_METRICS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "COMPLETE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.TrimSpace(val)
	}
}

// setEnvList splits on the OS path list separator, like PATH.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = trimList(strings.Split(val, string(os.PathListSeparator)))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
