package ports

import (
	"complete/internal/engine/decl"
	"context"
)

// SymbolSink receives classified symbols from the declaration walker.
type SymbolSink interface {
	// FileID returns the stable identity of the file a raw path names,
	// creating it on first sight.
	FileID(path string) (int64, error)
	// PutSymbol inserts or replaces the symbol keyed by (fileID, line, name).
	PutSymbol(fileID int64, line int, name string, kind byte) error
}

// SymbolStore is a SymbolSink bound to one run-wide transaction.
type SymbolStore interface {
	SymbolSink
	// Close commits every write since the store was opened.
	Close() error
	// Abort discards every write since the store was opened.
	Abort() error
}

// StoreOpener opens the store for one indexing run.
type StoreOpener func(ctx context.Context) (SymbolStore, error)

// DeclConsumer is driven by a front-end while it parses one translation unit.
type DeclConsumer interface {
	// HandleTopLevelDecl receives one top-level declaration group in parse
	// order. Returning false asks the front-end to stop.
	HandleTopLevelDecl(group []*decl.Decl) bool
	// HandleTranslationUnit is called once after the last group.
	HandleTranslationUnit(ctx context.Context, sm decl.SourceManager) error
}

// SymbolRecord is one row of the symbol index as seen by readers.
type SymbolRecord struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Name string `json:"symbol"`
	Kind string `json:"kind"`
}

// SymbolReader is the read-only side of the index.
type SymbolReader interface {
	Files(ctx context.Context) ([]string, error)
	Lookup(ctx context.Context, name string) ([]SymbolRecord, error)
	SymbolsInFile(ctx context.Context, path string) ([]SymbolRecord, error)
}
