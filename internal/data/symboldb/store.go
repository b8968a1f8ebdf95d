// Package symboldb persists the symbol index in SQLite. A Store is one
// indexing run: it holds an exclusive transaction from Open until Close
// commits it or Abort discards it.
package symboldb

import (
	"complete/internal/core/errors"
	"complete/internal/core/ports"
	"complete/internal/shared/observability"
	"complete/internal/shared/util"
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	// DefaultBusyTimeout is long enough that a second run queues behind
	// the first instead of failing.
	DefaultBusyTimeout = 30 * time.Minute
)

type Options struct {
	// SourceRoot is stripped from canonical paths. It must already be
	// normalized (see util.NormalizeRoot); empty keeps absolute paths.
	SourceRoot  string
	BusyTimeout time.Duration
}

type Store struct {
	path string
	root string
	db   *sql.DB
	tx   *runTx

	lookupFile *sql.Stmt
	insertFile *sql.Stmt
	putSymbol  *sql.Stmt

	// Depth-1 cache: the raw path of the previous FileID call and its id.
	lastPath string
	lastID   int64
	hasLast  bool
}

var _ ports.SymbolStore = (*Store)(nil)

// runTx is the run-wide transaction. Exactly one of commit or rollback
// takes effect.
type runTx struct {
	tx   *sql.Tx
	done bool
}

func (r *runTx) commit() error {
	if r.done {
		return sql.ErrTxDone
	}
	r.done = true
	return r.tx.Commit()
}

func (r *runTx) rollback() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.tx.Rollback()
}

func dsn(path string, busy time.Duration, extra ...string) string {
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}
	params := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
	}
	params = append(params, extra...)
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))
}

func checkPath(path string) (string, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return "", errors.New(errors.CodeConfiguration, "symbol store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return "", errors.AddContext(
			errors.New(errors.CodeConfiguration, "symbol store path is a directory, expected file"),
			errors.CtxPath, cleanPath)
	}
	return cleanPath, nil
}

// Open opens or creates the database at path, makes sure the schema exists
// and begins the exclusive run transaction. It blocks for up to
// opts.BusyTimeout while another run holds the database.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	cleanPath, err := checkPath(path)
	if err != nil {
		return nil, err
	}
	fail := func(err error, msg string) error {
		return errors.AddContext(errors.Wrap(err, errors.CodeStore, msg), errors.CtxPath, cleanPath)
	}

	if err := util.EnsureParentDir(cleanPath); err != nil {
		return nil, fail(err, "create symbol store directory")
	}

	// A run is all or nothing, so per-statement durability buys nothing.
	db, err := sql.Open(driverName, dsn(cleanPath, opts.BusyTimeout,
		"_pragma=synchronous(OFF)",
		"_pragma=journal_mode(DELETE)",
		"_txlock=exclusive",
	))
	if err != nil {
		return nil, fail(err, "open sqlite symbol store")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fail(err, "ping sqlite symbol store")
	}

	// The transaction lives until Close or Abort, not until ctx ends.
	tx, err := db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		_ = db.Close()
		return nil, fail(err, "begin exclusive run transaction")
	}
	s := &Store{
		path: cleanPath,
		root: opts.SourceRoot,
		db:   db,
		tx:   &runTx{tx: tx},
	}

	if err := ensureSchema(ctx, tx); err != nil {
		s.release()
		return nil, fail(err, "initialize sqlite schema")
	}
	if err := s.prepare(ctx); err != nil {
		s.release()
		return nil, fail(err, "prepare statements")
	}
	return s, nil
}

func (s *Store) prepare(ctx context.Context) error {
	var err error
	if s.lookupFile, err = s.tx.tx.PrepareContext(ctx, `SELECT id FROM filenames WHERE name = ? LIMIT 1`); err != nil {
		return fmt.Errorf("prepare file lookup: %w", err)
	}
	if s.insertFile, err = s.tx.tx.PrepareContext(ctx, `INSERT INTO filenames (name, basename) VALUES (?, '')`); err != nil {
		return fmt.Errorf("prepare file insert: %w", err)
	}
	if s.putSymbol, err = s.tx.tx.PrepareContext(ctx, `INSERT OR REPLACE INTO symbols (fileid, linenr, symbol, kind) VALUES (?, ?, ?, ?)`); err != nil {
		return fmt.Errorf("prepare symbol upsert: %w", err)
	}
	return nil
}

func (s *Store) closed() bool {
	return s == nil || s.tx == nil || s.tx.done
}

// FileID returns the id of the file raw names, inserting a filenames row
// the first time a canonical path is seen. Repeated calls for the same raw
// path skip canonicalization entirely.
func (s *Store) FileID(raw string) (int64, error) {
	if s.closed() {
		return 0, errors.New(errors.CodeStore, "symbol store is closed")
	}
	if s.hasLast && s.lastPath == raw {
		observability.FileCacheLookupsTotal.WithLabelValues("hit").Inc()
		return s.lastID, nil
	}
	observability.FileCacheLookupsTotal.WithLabelValues("miss").Inc()

	name := util.CanonicalPath(raw, s.root)
	var id int64
	err := s.lookupFile.QueryRow(name).Scan(&id)
	switch {
	case err == nil:
	case stderrors.Is(err, sql.ErrNoRows):
		res, insErr := s.insertFile.Exec(name)
		if insErr != nil {
			return 0, errors.AddContext(errors.Wrap(insErr, errors.CodeStore, "insert file"), errors.CtxPath, name)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, errors.AddContext(errors.Wrap(err, errors.CodeStore, "read file id"), errors.CtxPath, name)
		}
	default:
		return 0, errors.AddContext(errors.Wrap(err, errors.CodeStore, "look up file"), errors.CtxPath, name)
	}

	s.lastPath, s.lastID, s.hasLast = raw, id, true
	return id, nil
}

// PutSymbol inserts the symbol or replaces the kind of an existing row with
// the same (fileID, line, name).
func (s *Store) PutSymbol(fileID int64, line int, name string, kind byte) error {
	if s.closed() {
		return errors.New(errors.CodeStore, "symbol store is closed")
	}
	if _, err := s.putSymbol.Exec(fileID, line, name, string(kind)); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeStore, "upsert symbol"), errors.CtxSymbol, name)
	}
	return nil
}

// Close commits the run and releases the database. Calling it again, or
// after Abort, is a no-op.
func (s *Store) Close() error {
	if s.closed() {
		return nil
	}
	s.closeStmts()
	if err := s.tx.commit(); err != nil {
		_ = s.tx.tx.Rollback()
		_ = s.db.Close()
		return errors.AddContext(errors.Wrap(err, errors.CodeStore, "commit run transaction"), errors.CtxPath, s.path)
	}
	if err := s.db.Close(); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeStore, "close sqlite symbol store"), errors.CtxPath, s.path)
	}
	return nil
}

// Abort rolls back every write of the run and releases the database.
func (s *Store) Abort() error {
	if s.closed() {
		return nil
	}
	return s.release()
}

func (s *Store) release() error {
	s.closeStmts()
	rbErr := s.tx.rollback()
	closeErr := s.db.Close()
	if rbErr != nil {
		return errors.AddContext(errors.Wrap(rbErr, errors.CodeStore, "roll back run transaction"), errors.CtxPath, s.path)
	}
	if closeErr != nil {
		return errors.AddContext(errors.Wrap(closeErr, errors.CodeStore, "close sqlite symbol store"), errors.CtxPath, s.path)
	}
	return nil
}

func (s *Store) closeStmts() {
	for _, stmt := range []*sql.Stmt{s.lookupFile, s.insertFile, s.putSymbol} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	s.lookupFile, s.insertFile, s.putSymbol = nil, nil, nil
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Opener adapts Open to the StoreOpener the run coordinator expects.
func Opener(path string, opts Options) ports.StoreOpener {
	return func(ctx context.Context) (ports.SymbolStore, error) {
		s, err := Open(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
