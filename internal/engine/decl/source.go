package decl

import "sync"

// Loc is an opaque raw source location. The zero value is invalid and marks
// compiler built-ins that have no source.
type Loc uint32

// SourceManager resolves raw locations produced by a front-end.
type SourceManager interface {
	IsValid(loc Loc) bool
	// ExpansionLoc collapses a macro expansion chain to the outermost
	// invocation site. Locations outside macros are returned unchanged.
	ExpansionLoc(loc Loc) Loc
	IsInSystemHeader(loc Loc) bool
	BufferName(loc Loc) string
	LineNumber(loc Loc) int
}

// FileID identifies a buffer registered in a SourceTable.
type FileID int

type fileEntry struct {
	name   string
	system bool
}

type locEntry struct {
	file      FileID
	line      int
	expansion Loc
}

// SourceTable is an in-memory SourceManager. Front-ends register buffers and
// mint locations; macro locations record the location they were expanded at.
type SourceTable struct {
	mu    sync.RWMutex
	files []fileEntry
	locs  []locEntry
}

func NewSourceTable() *SourceTable {
	// Slot zero backs the invalid location.
	return &SourceTable{locs: make([]locEntry, 1)}
}

// AddFile registers a buffer under its spelled name.
func (t *SourceTable) AddFile(name string, system bool) FileID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = append(t.files, fileEntry{name: name, system: system})
	return FileID(len(t.files) - 1)
}

// Loc mints a location at a 1-based line of a registered buffer.
func (t *SourceTable) Loc(file FileID, line int) Loc {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locs = append(t.locs, locEntry{file: file, line: line})
	return Loc(len(t.locs) - 1)
}

// MacroLoc mints a location spelled at spelling whose text was produced by a
// macro invoked at expansion.
func (t *SourceTable) MacroLoc(spelling, expansion Loc) Loc {
	t.mu.Lock()
	defer t.mu.Unlock()
	base := t.locs[spelling]
	t.locs = append(t.locs, locEntry{file: base.file, line: base.line, expansion: expansion})
	return Loc(len(t.locs) - 1)
}

func (t *SourceTable) entry(loc Loc) (locEntry, bool) {
	if loc == 0 || int(loc) >= len(t.locs) {
		return locEntry{}, false
	}
	return t.locs[loc], true
}

func (t *SourceTable) IsValid(loc Loc) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entry(loc)
	return ok
}

func (t *SourceTable) ExpansionLoc(loc Loc) Loc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for {
		e, ok := t.entry(loc)
		if !ok || e.expansion == 0 {
			return loc
		}
		loc = e.expansion
	}
}

// IsInSystemHeader judges the buffer the location expands into, so a user
// macro used inside a system header is still a system location.
func (t *SourceTable) IsInSystemHeader(loc Loc) bool {
	exp := t.ExpansionLoc(loc)
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entry(exp)
	if !ok {
		return false
	}
	return t.files[e.file].system
}

func (t *SourceTable) BufferName(loc Loc) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entry(loc)
	if !ok {
		return ""
	}
	return t.files[e.file].name
}

func (t *SourceTable) LineNumber(loc Loc) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entry(loc)
	if !ok {
		return 0
	}
	return e.line
}

// Files returns the number of registered buffers.
func (t *SourceTable) Files() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.files)
}
