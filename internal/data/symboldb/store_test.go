package symboldb

import (
	domainerrors "complete/internal/core/errors"
	"complete/internal/core/ports"
	"complete/internal/shared/util"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir  string
	root string
	db   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	root, err := util.NormalizeRoot(dir)
	require.NoError(t, err)
	return testEnv{dir: dir, root: root, db: filepath.Join(dir, "out", "complete.db")}
}

func (e testEnv) open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), e.db, Options{SourceRoot: e.root, BusyTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Abort() })
	return s
}

func (e testEnv) reader(t *testing.T) *Reader {
	t.Helper()
	r, err := OpenReader(context.Background(), e.db, Options{SourceRoot: e.root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func (e testEnv) touch(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(e.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o644))
	return path
}

func TestStore_WritesAreVisibleAfterClose(t *testing.T) {
	env := newTestEnv(t)
	src := env.touch(t, "src/main.c")

	s := env.open(t)
	id, err := s.FileID(src)
	require.NoError(t, err)
	require.NoError(t, s.PutSymbol(id, 3, "main", 'f'))
	require.NoError(t, s.PutSymbol(id, 1, "x", 'v'))
	require.NoError(t, s.Close())

	r := env.reader(t)
	files, err := r.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.c"}, files)

	got, err := r.SymbolsInFile(context.Background(), "src/main.c")
	require.NoError(t, err)
	assert.Equal(t, []ports.SymbolRecord{
		{File: "src/main.c", Line: 1, Name: "x", Kind: "v"},
		{File: "src/main.c", Line: 3, Name: "main", Kind: "f"},
	}, got)
}

func TestStore_PutSymbolLastWriteWins(t *testing.T) {
	env := newTestEnv(t)
	src := env.touch(t, "a.cc")

	s := env.open(t)
	id, err := s.FileID(src)
	require.NoError(t, err)
	require.NoError(t, s.PutSymbol(id, 4, "f", 'p'))
	require.NoError(t, s.PutSymbol(id, 4, "f", 'f'))
	require.NoError(t, s.PutSymbol(id, 9, "f", 'p'))
	require.NoError(t, s.Close())

	got, err := env.reader(t).Lookup(context.Background(), "f")
	require.NoError(t, err)
	assert.Equal(t, []ports.SymbolRecord{
		{File: "a.cc", Line: 4, Name: "f", Kind: "f"},
		{File: "a.cc", Line: 9, Name: "f", Kind: "p"},
	}, got)
}

func TestStore_FileIDIsIdempotentAcrossSpellings(t *testing.T) {
	env := newTestEnv(t)
	header := env.touch(t, "inc/x.h")
	require.NoError(t, os.MkdirAll(filepath.Join(env.dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(env.dir, "b"), 0o755))

	s := env.open(t)
	viaA, err := s.FileID(env.dir + "/a/../inc/x.h")
	require.NoError(t, err)
	viaB, err := s.FileID(env.dir + "/b/../inc/x.h")
	require.NoError(t, err)
	direct, err := s.FileID(header)
	require.NoError(t, err)
	assert.Equal(t, viaA, viaB)
	assert.Equal(t, viaA, direct)

	link := filepath.Join(env.dir, "linked.h")
	if err := os.Symlink(header, link); err == nil {
		viaLink, err := s.FileID(link)
		require.NoError(t, err)
		assert.Equal(t, viaA, viaLink)
	}
	require.NoError(t, s.Close())

	files, err := env.reader(t).Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"inc/x.h"}, files)
}

func TestStore_FileIDsAreStableAcrossRuns(t *testing.T) {
	env := newTestEnv(t)
	src := env.touch(t, "main.c")
	other := env.touch(t, "util.c")

	first := env.open(t)
	id, err := first.FileID(src)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := env.open(t)
	otherID, err := second.FileID(other)
	require.NoError(t, err)
	again, err := second.FileID(src)
	require.NoError(t, err)
	require.NoError(t, second.Close())

	assert.Equal(t, id, again)
	assert.NotEqual(t, id, otherID)
}

func TestStore_PathsOutsideRootStayAbsolute(t *testing.T) {
	env := newTestEnv(t)
	outside := t.TempDir()
	path := filepath.Join(outside, "ext.h")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s := env.open(t)
	id, err := s.FileID(path)
	require.NoError(t, err)
	require.NoError(t, s.PutSymbol(id, 1, "ext", 'v'))
	require.NoError(t, s.Close())

	got, err := env.reader(t).Lookup(context.Background(), "ext")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, filepath.IsAbs(got[0].File))
	assert.Equal(t, util.ResolvePath(path), got[0].File)
}

func TestStore_CacheRemembersOnlyTheLastPath(t *testing.T) {
	env := newTestEnv(t)
	a := env.touch(t, "a.c")
	b := env.touch(t, "b.c")

	s := env.open(t)
	idA, err := s.FileID(a)
	require.NoError(t, err)
	assert.Equal(t, a, s.lastPath)

	idB, err := s.FileID(b)
	require.NoError(t, err)
	assert.Equal(t, b, s.lastPath)
	assert.Equal(t, idB, s.lastID)

	again, err := s.FileID(a)
	require.NoError(t, err)
	assert.Equal(t, idA, again)
	assert.Equal(t, a, s.lastPath)
}

func TestStore_AbortDiscardsTheRun(t *testing.T) {
	env := newTestEnv(t)
	src := env.touch(t, "main.c")

	first := env.open(t)
	id, err := first.FileID(src)
	require.NoError(t, err)
	require.NoError(t, first.PutSymbol(id, 1, "kept", 'v'))
	require.NoError(t, first.Close())

	second := env.open(t)
	id, err = second.FileID(src)
	require.NoError(t, err)
	require.NoError(t, second.PutSymbol(id, 2, "discarded", 'v'))
	require.NoError(t, second.Abort())
	require.NoError(t, second.Abort(), "abort is idempotent")
	require.NoError(t, second.Close(), "close after abort is a no-op")

	got, err := env.reader(t).SymbolsInFile(context.Background(), "main.c")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Name)
}

func TestStore_ClosedStoreRejectsWrites(t *testing.T) {
	env := newTestEnv(t)
	s := env.open(t)
	require.NoError(t, s.Close())

	_, err := s.FileID("main.c")
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeStore))
	err = s.PutSymbol(1, 1, "x", 'v')
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeStore))
}

func TestStore_SecondWriterWaitsForTheFirst(t *testing.T) {
	env := newTestEnv(t)
	holder := env.open(t)

	_, err := Open(context.Background(), env.db, Options{SourceRoot: env.root, BusyTimeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeStore))

	require.NoError(t, holder.Close())
	next, err := Open(context.Background(), env.db, Options{SourceRoot: env.root, BusyTimeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, next.Close())
}

func TestOpen_RejectsBadPaths(t *testing.T) {
	_, err := Open(context.Background(), "  ", Options{})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeConfiguration))

	_, err = Open(context.Background(), t.TempDir(), Options{})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeConfiguration))
}

func TestOpenReader_MissingIndex(t *testing.T) {
	_, err := OpenReader(context.Background(), filepath.Join(t.TempDir(), "none.db"), Options{})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestReader_LookupValidatesName(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.open(t).Close())

	_, err := env.reader(t).Lookup(context.Background(), " ")
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestIsLockError(t *testing.T) {
	assert.False(t, isLockError(assert.AnError))
	assert.True(t, isLockError(errString("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isLockError(nil))
}

type errString string

func (e errString) Error() string { return string(e) }
