package cli

import (
	coreapp "complete/internal/core/app"
	"complete/internal/core/config"
	"complete/internal/shared/observability"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "complete v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(stderr, opts.command == commandPick, opts.verbose)
	defer cleanupLogs()

	if err := validateCommand(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize indexer", "error", err)
		return 1
	}

	switch opts.command {
	case commandFiles:
		err = runFiles(ctx, a, opts, stdout)
	case commandLookup:
		err = runLookup(ctx, a, opts, stdout)
	case commandServe:
		err = runServe(ctx, a, opts)
	case commandPick:
		err = runPick(ctx, a, stdout)
	default:
		err = runIndex(ctx, a, opts, stdout)
	}
	if err != nil {
		slog.Error(opts.command+" failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig layers the config file, the environment and the flags, in
// that order.
func loadConfig(opts cliOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)

	if opts.dbPath != "" {
		cfg.DB.Path = absPath(opts.dbPath)
	}
	if opts.root != "" {
		cfg.Index.SourceRoot = absPath(opts.root)
	}
	if opts.addr != "" {
		cfg.Server.Address = opts.addr
	}
	if opts.limit > 0 {
		cfg.Search.Limit = opts.limit
	}
	return cfg, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func runIndex(ctx context.Context, a *coreapp.App, opts cliOptions, stdout io.Writer) error {
	results, err := a.IndexFiles(ctx, opts.args)
	if opts.jsonOutput {
		if encErr := writeJSON(stdout, results); encErr != nil && err == nil {
			err = encErr
		}
	}
	return err
}

func runFiles(ctx context.Context, a *coreapp.App, opts cliOptions, stdout io.Writer) error {
	if len(opts.args) == 0 {
		reader, err := a.OpenReader(ctx)
		if err != nil {
			return err
		}
		defer reader.Close()
		files, err := reader.Files(ctx)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(stdout, files)
		}
		for _, f := range files {
			fmt.Fprintln(stdout, f)
		}
		return nil
	}

	idx, err := a.LoadSearchIndex(ctx)
	if err != nil {
		return err
	}
	matches := idx.Search(opts.args[0], a.Config.Search.Limit)
	if opts.jsonOutput {
		return writeJSON(stdout, matches)
	}
	for _, m := range matches {
		fmt.Fprintln(stdout, highlight(m.Path, m.Ranges, matchStyle))
	}
	return nil
}

func runLookup(ctx context.Context, a *coreapp.App, opts cliOptions, stdout io.Writer) error {
	reader, err := a.OpenReader(ctx)
	if err != nil {
		return err
	}
	defer reader.Close()

	recs, err := reader.Lookup(ctx, opts.args[0])
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return writeJSON(stdout, recs)
	}
	for _, r := range recs {
		fmt.Fprintf(stdout, "%s:%d\t%s\t%s\n", r.File, r.Line, r.Kind, r.Name)
	}
	return nil
}

func runServe(ctx context.Context, a *coreapp.App, opts cliOptions) error {
	idx, err := a.LoadSearchIndex(ctx)
	if err != nil {
		return err
	}
	srv := NewSearchServer(ServerOptions{
		Addr:      a.Config.Server.Address,
		Limit:     a.Config.Search.Limit,
		RateLimit: a.Config.Server.RateLimit,
		Burst:     a.Config.Server.Burst,
		Metrics:   a.Config.Observability.EnableMetrics,
	}, idx, coreapp.NewHealthService(a))
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("search server stopping")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}

func runPick(ctx context.Context, a *coreapp.App, stdout io.Writer) error {
	idx, err := a.LoadSearchIndex(ctx)
	if err != nil {
		return err
	}
	picked, err := runPicker(idx, a.Config.Search.Limit, tea.WithAltScreen(), tea.WithContext(ctx))
	if err != nil {
		return err
	}
	if picked != "" {
		fmt.Fprintln(stdout, picked)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// configureLogging installs the default slog logger. In picker mode logs go
// to a file so they do not corrupt the terminal UI.
func configureLogging(output io.Writer, uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(output, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(output, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(output, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "complete", "complete.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "complete", "complete.log")
	}

	return "complete.log"
}
