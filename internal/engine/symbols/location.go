// Package symbols turns a declaration tree into symbol index rows: it
// resolves canonical locations, classifies declaration kinds and walks
// nested declarations into a SymbolSink.
package symbols

import "complete/internal/engine/decl"

// Location is a resolved source position. File is the buffer name as the
// front-end spelled it; the store canonicalizes it.
type Location struct {
	File string
	Line int
}

// Resolve maps a raw location to the place it should be indexed at. Macro
// expansions are attributed to their invocation site. The second result is
// false for built-ins and system headers, which are not indexable.
func Resolve(sm decl.SourceManager, loc decl.Loc) (Location, bool) {
	if sm == nil || !sm.IsValid(loc) {
		return Location{}, false
	}
	if sm.IsInSystemHeader(loc) {
		return Location{}, false
	}
	exp := sm.ExpansionLoc(loc)
	file := sm.BufferName(exp)
	if file == "" {
		return Location{}, false
	}
	return Location{File: file, Line: sm.LineNumber(exp)}, true
}
