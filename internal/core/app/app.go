package app

import (
	"complete/internal/core/config"
	"complete/internal/core/errors"
	"complete/internal/data/search"
	"complete/internal/data/symboldb"
	"complete/internal/engine/frontend"
	"complete/internal/engine/symbols"
	"complete/internal/shared/observability"
	"complete/internal/shared/util"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// App indexes translation units into the configured symbol database and
// serves read-side queries from it.
type App struct {
	Config   *config.Config
	Frontend *frontend.Frontend

	root string
}

// RunResult describes one indexing run.
type RunResult struct {
	RunID    string           `json:"run_id"`
	Path     string           `json:"path"`
	Stats    symbols.RunStats `json:"stats"`
	Duration time.Duration    `json:"duration"`
}

// New validates cfg and prepares the front-end. A configuration without a
// database path is rejected here, before any file is parsed.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfiguration, "config is required")
	}
	if err := config.Check(cfg); err != nil {
		return nil, err
	}
	root, err := util.NormalizeRoot(cfg.Index.SourceRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "resolve source root")
	}
	fe, err := frontend.New(frontend.Options{
		IncludeDirs:     cfg.Frontend.IncludeDirs,
		SystemDirs:      cfg.Frontend.SystemDirs,
		SystemPatterns:  cfg.Frontend.SystemPatterns,
		MaxIncludeDepth: cfg.Frontend.MaxIncludeDepth,
	})
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Frontend: fe, root: root}, nil
}

// SourceRoot is the normalized root stripped from stored paths.
func (a *App) SourceRoot() string {
	return a.root
}

func (a *App) storeOptions() symboldb.Options {
	return symboldb.Options{
		SourceRoot:  a.root,
		BusyTimeout: a.Config.DB.BusyTimeout,
	}
}

// IndexFile runs the front-end over one translation unit and commits its
// symbols in a single transaction.
func (a *App) IndexFile(ctx context.Context, path string) (RunResult, error) {
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "app.IndexFile", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("path", path),
	))
	defer span.End()

	logger := slog.With("run_id", runID, "path", path)
	logger.Debug("indexing translation unit", "db", a.Config.DB.Path, "root", a.root)

	start := time.Now()
	coord := symbols.NewCoordinator(
		symboldb.Opener(a.Config.DB.Path, a.storeOptions()),
		symbols.WalkOptions{SkipImplicitInstantiations: a.Config.Index.SkipImplicitInstantiations},
	)
	err := a.Frontend.ParseTranslationUnit(ctx, path, coord)
	result := RunResult{
		RunID:    runID,
		Path:     path,
		Stats:    coord.Stats(),
		Duration: time.Since(start),
	}
	if err != nil {
		span.RecordError(err)
		logger.Error("indexing failed", "error", err)
		return result, errors.AddContext(err, errors.CtxPath, path)
	}
	logger.Info("indexed translation unit",
		"written", result.Stats.Written,
		"dropped", result.Stats.Dropped,
		"visited", result.Stats.Visited,
		"duration", result.Duration)
	return result, nil
}

// IndexFiles indexes each path as its own run. A fatal error stops the
// batch at once; any other failure is logged by IndexFile, the remaining
// paths still run, and the first such error is returned at the end.
func (a *App) IndexFiles(ctx context.Context, paths []string) ([]RunResult, error) {
	results := make([]RunResult, 0, len(paths))
	var firstErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := a.IndexFile(ctx, path)
		if err != nil {
			err = fmt.Errorf("index %s: %w", path, err)
			if errors.IsFatal(err) {
				return results, err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstErr
}

// OpenReader opens the symbol database for queries.
func (a *App) OpenReader(ctx context.Context) (*symboldb.Reader, error) {
	return symboldb.OpenReader(ctx, a.Config.DB.Path, symboldb.Options{SourceRoot: a.root})
}

// LoadSearchIndex reads every filename of the database into a search index.
func (a *App) LoadSearchIndex(ctx context.Context) (*search.Index, error) {
	reader, err := a.OpenReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	idx := search.NewIndex(nil)
	if err := idx.Load(ctx, reader); err != nil {
		return nil, err
	}
	slog.Debug("loaded search index", "files", idx.Len())
	return idx, nil
}
