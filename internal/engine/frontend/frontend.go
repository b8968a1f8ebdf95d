// Package frontend parses C and C++ translation units with tree-sitter and
// feeds their declarations to a ports.DeclConsumer, the way a compiler
// front-end drives an AST consumer. It follows #include directives but does
// not expand macros.
package frontend

import (
	"complete/internal/core/errors"
	"complete/internal/core/ports"
	"complete/internal/engine/decl"
	"complete/internal/shared/observability"
	"complete/internal/shared/util"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxIncludeDepth = 32

type Options struct {
	// IncludeDirs are searched for "quoted" includes after the includer's
	// directory, and for <angled> includes after SystemDirs.
	IncludeDirs []string
	// SystemDirs hold system headers. Declarations from files found there
	// are never indexed.
	SystemDirs []string
	// SystemPatterns are globs marking further files as system headers.
	SystemPatterns  []string
	MaxIncludeDepth int
}

type Frontend struct {
	opts        Options
	pool        *parserPool
	engine      *declEngine
	systemRoots []string
	systemGlobs []glob.Glob
}

func New(opts Options) (*Frontend, error) {
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	}

	globs := make([]glob.Glob, 0, len(opts.SystemPatterns))
	for _, p := range opts.SystemPatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeConfiguration, fmt.Sprintf("invalid system pattern %q", p)),
				errors.CtxKey, "frontend.system_patterns")
		}
		globs = append(globs, g)
	}

	roots := make([]string, 0, len(opts.SystemDirs))
	for _, dir := range opts.SystemDirs {
		roots = append(roots, util.ResolvePath(dir))
	}

	return &Frontend{
		opts:        opts,
		pool:        newParserPool(sitter.NewLanguage(tree_sitter_cpp.Language())),
		engine:      newCppEngine(),
		systemRoots: roots,
		systemGlobs: globs,
	}, nil
}

// unit is the state of one translation unit.
type unit struct {
	fe       *Frontend
	table    *decl.SourceTable
	consumer ports.DeclConsumer
	cMode    bool
	seen     map[string]bool
	stopped  bool
}

// ParseTranslationUnit parses path and every header it includes, hands
// each top-level declaration group to consumer in source order and
// finally calls consumer.HandleTranslationUnit. Files ending in .c are
// treated as C.
func (f *Frontend) ParseTranslationUnit(ctx context.Context, path string, consumer ports.DeclConsumer) (err error) {
	ctx, span := observability.Tracer.Start(ctx, "frontend.ParseTranslationUnit", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	u := &unit{
		fe:       f,
		table:    decl.NewSourceTable(),
		consumer: consumer,
		cMode:    strings.EqualFold(filepath.Ext(path), ".c"),
		seen:     map[string]bool{util.ResolvePath(path): true},
	}
	// The main file is never a system header.
	if err := u.parseFile(ctx, path, false, 0); err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("buffers", u.table.Files()))
	if u.stopped {
		return nil
	}
	return consumer.HandleTranslationUnit(ctx, u.table)
}

func (u *unit) parseFile(ctx context.Context, path string, system bool, depth int) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read source file"), errors.CtxPath, path)
	}
	file := u.table.AddFile(path, system)

	p := u.fe.pool.Get()
	defer u.fe.pool.Put(p)

	start := time.Now()
	tree := p.Parse(src, nil)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	if tree == nil {
		return errors.AddContext(errors.New(errors.CodeInternal, "parser returned no tree"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("buffer has syntax errors; indexing what parsed", "path", path)
	}
	sc := &scanContext{Source: src, File: file, Table: u.table, CMode: u.cMode, engine: u.fe.engine}
	return u.scanTopLevel(ctx, sc, root, path, depth)
}

// scanTopLevel delivers one group per top-level item. Conditional blocks
// are flattened: every branch is scanned.
func (u *unit) scanTopLevel(ctx context.Context, sc *scanContext, node *sitter.Node, path string, depth int) error {
	for i := uint(0); i < node.ChildCount(); i++ {
		if u.stopped {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "parsing interrupted")
		}
		child := node.Child(i)
		switch child.Kind() {
		case "preproc_include":
			if err := u.include(ctx, sc, child, path, depth); err != nil {
				return err
			}
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef", "ERROR":
			if err := u.scanTopLevel(ctx, sc, child, path, depth); err != nil {
				return err
			}
		default:
			group := sc.Collect(child, scopeNamespace)
			if len(group) > 0 && !u.consumer.HandleTopLevelDecl(group) {
				u.stopped = true
			}
		}
	}
	return nil
}

func (u *unit) include(ctx context.Context, sc *scanContext, node *sitter.Node, from string, depth int) error {
	raw := strings.TrimSpace(sc.Text(node.ChildByFieldName("path")))
	angled := strings.HasPrefix(raw, "<")
	name := strings.Trim(raw, `"<>`)
	if name == "" {
		return nil
	}
	if depth+1 > u.fe.opts.MaxIncludeDepth {
		slog.Debug("include depth exceeded", "include", name, "from", from, "depth", depth)
		return nil
	}

	target, system, ok := u.fe.resolveInclude(name, from, angled)
	if !ok {
		slog.Debug("include not found", "include", name, "from", from)
		return nil
	}
	key := util.ResolvePath(target)
	if u.seen[key] {
		return nil
	}
	u.seen[key] = true

	if err := u.parseFile(ctx, target, system, depth+1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
		slog.Warn("skipping include", "include", name, "from", from, "error", err)
	}
	return nil
}

type candidate struct {
	path   string
	system bool
}

// resolveInclude finds the file an include directive names. Candidates
// are spelled as the includer's directory joined with the name, not
// cleaned, so a/../inc/x.h keeps its spelling until the store
// canonicalizes it.
func (f *Frontend) resolveInclude(name, from string, angled bool) (string, bool, bool) {
	if filepath.IsAbs(name) {
		if !fileExists(name) {
			return "", false, false
		}
		return name, f.isSystemPath(name), true
	}

	var candidates []candidate
	local := make([]candidate, 0, len(f.opts.IncludeDirs))
	for _, dir := range f.opts.IncludeDirs {
		local = append(local, candidate{path: joinInclude(dir, name)})
	}
	sys := make([]candidate, 0, len(f.opts.SystemDirs))
	for _, dir := range f.opts.SystemDirs {
		sys = append(sys, candidate{path: joinInclude(dir, name), system: true})
	}
	if angled {
		candidates = append(append(candidates, sys...), local...)
	} else {
		candidates = append(candidates, candidate{path: joinInclude(filepath.Dir(from), name)})
		candidates = append(append(candidates, local...), sys...)
	}

	for _, c := range candidates {
		if fileExists(c.path) {
			return c.path, c.system || f.isSystemPath(c.path), true
		}
	}
	return "", false, false
}

func (f *Frontend) isSystemPath(path string) bool {
	resolved := util.ResolvePath(path)
	for _, root := range f.systemRoots {
		if util.HasPathPrefix(resolved, root) {
			return true
		}
	}
	spelled := filepath.ToSlash(path)
	resolved = filepath.ToSlash(resolved)
	for _, g := range f.systemGlobs {
		if g.Match(spelled) || g.Match(resolved) {
			return true
		}
	}
	return false
}

func joinInclude(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
