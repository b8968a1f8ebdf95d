package app

import (
	"complete/internal/core/config"
	domainerrors "complete/internal/core/errors"
	"complete/internal/core/ports"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workspace struct {
	root string
	cfg  *config.Config
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.DB.Path = filepath.Join(root, "out", "complete.db")
	cfg.Index.SourceRoot = root
	return &workspace{root: root, cfg: cfg}
}

func (w *workspace) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(w.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (w *workspace) app(t *testing.T) *App {
	t.Helper()
	a, err := New(w.cfg)
	require.NoError(t, err)
	return a
}

func lookup(t *testing.T, a *App, name string) []ports.SymbolRecord {
	t.Helper()
	reader, err := a.OpenReader(context.Background())
	require.NoError(t, err)
	defer reader.Close()
	recs, err := reader.Lookup(context.Background(), name)
	require.NoError(t, err)
	return recs
}

func TestIndexFile_NamespaceClassScenario(t *testing.T) {
	w := newWorkspace(t)
	main := w.write(t, "src/main.cc", "namespace n { class C { int m; void f(); void f() {} }; }\n")
	a := w.app(t)

	res, err := a.IndexFile(context.Background(), main)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 5, res.Stats.Written)
	assert.Zero(t, res.Stats.Dropped)

	reader, err := a.OpenReader(context.Background())
	require.NoError(t, err)
	defer reader.Close()

	files, err := reader.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.cc"}, files)

	recs, err := reader.SymbolsInFile(context.Background(), "src/main.cc")
	require.NoError(t, err)
	got := map[string]string{}
	for _, r := range recs {
		assert.Equal(t, 1, r.Line)
		got[r.Name] = r.Kind
	}
	// The prototype and the definition of f share a line; the definition
	// is written last.
	assert.Equal(t, map[string]string{"n": "n", "C": "c", "m": "m", "f": "f"}, got)
}

func TestIndexFiles_SharedHeaderHasOneIdentity(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "inc/x.h", "int shared_value;\n")
	one := w.write(t, "a/one.cc", "#include \"../inc/x.h\"\nint one;\n")
	two := w.write(t, "b/two.cc", "#include \"../inc/x.h\"\nint two;\n")
	a := w.app(t)

	results, err := a.IndexFiles(context.Background(), []string{one, two})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].RunID, results[1].RunID)

	reader, err := a.OpenReader(context.Background())
	require.NoError(t, err)
	defer reader.Close()
	files, err := reader.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one.cc", "b/two.cc", "inc/x.h"}, files)

	recs := lookup(t, a, "shared_value")
	require.Len(t, recs, 1)
	assert.Equal(t, ports.SymbolRecord{File: "inc/x.h", Line: 1, Name: "shared_value", Kind: "v"}, recs[0])
}

func TestIndexFile_ReindexReplacesRows(t *testing.T) {
	w := newWorkspace(t)
	main := w.write(t, "main.c", "int counter;\n")
	a := w.app(t)

	_, err := a.IndexFile(context.Background(), main)
	require.NoError(t, err)
	_, err = a.IndexFile(context.Background(), main)
	require.NoError(t, err)

	assert.Len(t, lookup(t, a, "counter"), 1)
}

func TestIndexFile_SystemHeadersAreNotIndexed(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "sys/vector", "namespace std { class vector {}; }\n")
	main := w.write(t, "main.cc", "#include <vector>\nstd::vector<int> items;\n")
	w.cfg.Frontend.SystemDirs = []string{filepath.Join(w.root, "sys")}
	a := w.app(t)

	res, err := a.IndexFile(context.Background(), main)
	require.NoError(t, err)
	assert.Positive(t, res.Stats.Filtered["not_indexable"])

	assert.Empty(t, lookup(t, a, "vector"))
	assert.Len(t, lookup(t, a, "items"), 1)
}

func TestIndexFile_ConversionOperatorIsAPrototype(t *testing.T) {
	w := newWorkspace(t)
	main := w.write(t, "conv.cc", "class C { operator bool() const; };\n")
	a := w.app(t)

	_, err := a.IndexFile(context.Background(), main)
	require.NoError(t, err)

	assert.Equal(t, []ports.SymbolRecord{{File: "conv.cc", Line: 1, Name: "operator bool", Kind: "p"}}, lookup(t, a, "operator bool"))
}

func TestNew_MissingDatabaseIsAConfigurationError(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeConfiguration))
	assert.True(t, domainerrors.IsFatal(err))

	_, err = New(nil)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeConfiguration))
}

func TestIndexFile_MissingMainFile(t *testing.T) {
	w := newWorkspace(t)
	a := w.app(t)

	_, err := a.IndexFile(context.Background(), filepath.Join(w.root, "nope.cc"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))

	_, err = os.Stat(w.cfg.DB.Path)
	assert.True(t, os.IsNotExist(err), "no database is created when nothing was parsed")
}

func TestIndexFile_StoreOpenFailureWritesNothing(t *testing.T) {
	w := newWorkspace(t)
	main := w.write(t, "main.cc", "int x;\n")
	// A regular file where the database directory should be.
	w.write(t, "blocked", "")
	w.cfg.DB.Path = filepath.Join(w.root, "blocked", "complete.db")
	a := w.app(t)

	res, err := a.IndexFile(context.Background(), main)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeStore))
	assert.Zero(t, res.Stats.Written)
	assert.True(t, strings.Contains(err.Error(), "blocked"))
}

func TestIndexFiles_ContinuesPastMissingFile(t *testing.T) {
	w := newWorkspace(t)
	good := w.write(t, "good.c", "int kept;\n")
	a := w.app(t)

	results, err := a.IndexFiles(context.Background(), []string{filepath.Join(w.root, "gone.c"), good})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
	assert.False(t, domainerrors.IsFatal(err))
	require.Len(t, results, 1)
	assert.Equal(t, good, results[0].Path)
	assert.Len(t, lookup(t, a, "kept"), 1)
}

func TestIndexFiles_StopsAtStoreFailure(t *testing.T) {
	w := newWorkspace(t)
	one := w.write(t, "one.c", "int one;\n")
	two := w.write(t, "two.c", "int two;\n")
	w.write(t, "blocked", "")
	w.cfg.DB.Path = filepath.Join(w.root, "blocked", "complete.db")
	a := w.app(t)

	results, err := a.IndexFiles(context.Background(), []string{one, two})
	require.Error(t, err)
	assert.True(t, domainerrors.IsFatal(err))
	assert.Empty(t, results)
	assert.Contains(t, err.Error(), "one.c")
	assert.NotContains(t, err.Error(), "two.c")
}

func TestLoadSearchIndex(t *testing.T) {
	w := newWorkspace(t)
	main := w.write(t, "src/platform_thread.cc", "int id;\n")
	a := w.app(t)

	_, err := a.LoadSearchIndex(context.Background())
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))

	_, err = a.IndexFile(context.Background(), main)
	require.NoError(t, err)

	idx, err := a.LoadSearchIndex(context.Background())
	require.NoError(t, err)
	matches := idx.Search("pt", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "src/platform_thread.cc", matches[0].Path)
}

func TestHealthService(t *testing.T) {
	w := newWorkspace(t)
	main := w.write(t, "main.cc", "int x;\n")
	a := w.app(t)
	health := NewHealthService(a)

	status := health.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "ok", status.Components["frontend"])

	_, err := a.IndexFile(context.Background(), main)
	require.NoError(t, err)

	status = health.Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok (1 files)", status.Components["symbol_index"])
}
