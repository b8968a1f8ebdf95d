package symboldb

import (
	"complete/internal/core/errors"
	"complete/internal/core/ports"
	"complete/internal/shared/util"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"
)

const maxAttempts = 5

// Reader is a read-only view of an existing index. It never creates the
// database and never takes a write lock.
type Reader struct {
	path string
	root string
	db   *sql.DB
}

var _ ports.SymbolReader = (*Reader)(nil)

func OpenReader(ctx context.Context, path string, opts Options) (*Reader, error) {
	cleanPath, err := checkPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cleanPath); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "symbol index does not exist"), errors.CtxPath, cleanPath)
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	db, err := sql.Open(driverName, dsn(cleanPath, busy, "_pragma=query_only(1)"))
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeStore, "open sqlite symbol index"), errors.CtxPath, cleanPath)
	}
	db.SetMaxOpenConns(4)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeStore, "ping sqlite symbol index"), errors.CtxPath, cleanPath)
	}
	return &Reader{path: cleanPath, root: opts.SourceRoot, db: db}, nil
}

func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Files lists every canonical path in the index, sorted.
func (r *Reader) Files(ctx context.Context) ([]string, error) {
	var rows *sql.Rows
	err := withRetry("list files", func() error {
		var qErr error
		rows, qErr = r.db.QueryContext(ctx, `SELECT DISTINCT name FROM filenames ORDER BY name`)
		return qErr
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, "query filenames")
	}
	defer rows.Close()

	files := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename row: %w", err)
		}
		files = append(files, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filename rows: %w", err)
	}
	return files, nil
}

// Lookup returns every definition site of name.
func (r *Reader) Lookup(ctx context.Context, name string) ([]ports.SymbolRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeValidationError, "symbol name must not be empty")
	}
	return r.querySymbols(ctx, "lookup symbol", `
SELECT f.name, s.linenr, s.symbol, s.kind
FROM symbols s JOIN filenames f ON f.id = s.fileid
WHERE s.symbol = ?
ORDER BY f.name, s.linenr`, name)
}

// SymbolsInFile returns the symbols of one file in line order. path may be
// the stored canonical name or any spelling that canonicalizes to it.
func (r *Reader) SymbolsInFile(ctx context.Context, path string) ([]ports.SymbolRecord, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New(errors.CodeValidationError, "file path must not be empty")
	}
	canonical := util.CanonicalPath(path, r.root)
	return r.querySymbols(ctx, "list file symbols", `
SELECT f.name, s.linenr, s.symbol, s.kind
FROM symbols s JOIN filenames f ON f.id = s.fileid
WHERE f.name = ? OR f.name = ?
ORDER BY s.linenr, s.symbol`, path, canonical)
}

func (r *Reader) querySymbols(ctx context.Context, op, query string, args ...any) ([]ports.SymbolRecord, error) {
	var rows *sql.Rows
	err := withRetry(op, func() error {
		var qErr error
		rows, qErr = r.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStore, op)
	}
	defer rows.Close()

	records := make([]ports.SymbolRecord, 0)
	for rows.Next() {
		var rec ports.SymbolRecord
		if err := rows.Scan(&rec.File, &rec.Line, &rec.Name, &rec.Kind); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return records, nil
}

func withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
