package symbols

import (
	"complete/internal/core/ports"
	"complete/internal/engine/decl"
	"complete/internal/shared/observability"
	"log/slog"
)

// Filter reasons reported in RunStats and metrics.
const (
	ReasonNotIndexable = "not_indexable"
	ReasonForward      = "forward_declaration"
	ReasonUsing        = "using_alias"
	ReasonAnonymous    = "anonymous"
	ReasonImplicit     = "implicit_instantiation"
)

// WalkOptions tunes which declarations the walker visits.
type WalkOptions struct {
	// SkipImplicitInstantiations prunes implicit template instantiations
	// and everything below them.
	SkipImplicitInstantiations bool
}

// RunStats counts what happened to the declarations of one run.
type RunStats struct {
	Groups   int
	TopLevel int
	Visited  int
	Filtered map[string]int
	Written  int
	Dropped  int
}

func (s *RunStats) filter(reason string) {
	if s.Filtered == nil {
		s.Filtered = make(map[string]int)
	}
	s.Filtered[reason]++
	observability.DeclsFilteredTotal.WithLabelValues(reason).Inc()
}

// FilteredTotal sums the filtered counts over all reasons.
func (s RunStats) FilteredTotal() int {
	total := 0
	for _, n := range s.Filtered {
		total += n
	}
	return total
}

// Walker emits every indexable declaration reachable from the nodes it is
// given. Containers are expanded before the container itself is emitted;
// function bodies are never entered.
type Walker struct {
	sm    decl.SourceManager
	sink  ports.SymbolSink
	opts  WalkOptions
	stats *RunStats
}

func NewWalker(sm decl.SourceManager, sink ports.SymbolSink, opts WalkOptions) *Walker {
	return &Walker{sm: sm, sink: sink, opts: opts, stats: &RunStats{}}
}

func (w *Walker) Stats() RunStats {
	return *w.stats
}

func (w *Walker) Walk(d *decl.Decl) {
	if d == nil {
		return
	}
	if d.Implicit && w.opts.SkipImplicitInstantiations {
		w.stats.filter(ReasonImplicit)
		return
	}
	w.stats.Visited++

	if !d.Kind.IsFunction() {
		for _, child := range d.DeclChildren() {
			w.Walk(child)
		}
	}

	if d.Kind.IsTag() && !d.Definition {
		w.stats.filter(ReasonForward)
		return
	}
	if d.Kind == decl.KindUsingShadow || d.Kind == decl.KindUsingDirective {
		w.stats.filter(ReasonUsing)
		return
	}

	loc, ok := Resolve(w.sm, d.Loc)
	if !ok {
		w.stats.filter(ReasonNotIndexable)
		return
	}
	if !d.IsNamed() {
		w.stats.filter(ReasonAnonymous)
		return
	}
	w.emit(loc, d)
}

func (w *Walker) emit(loc Location, d *decl.Decl) {
	kind := Classify(d)

	fileID, err := w.sink.FileID(loc.File)
	if err != nil {
		slog.Warn("dropping symbol: file lookup failed", "path", loc.File, "symbol", d.Name, "error", err)
		w.drop()
		return
	}
	if err := w.sink.PutSymbol(fileID, loc.Line, d.Name, kind); err != nil {
		slog.Warn("dropping symbol: insert failed", "path", loc.File, "line", loc.Line, "symbol", d.Name, "error", err)
		w.drop()
		return
	}
	w.stats.Written++
	observability.SymbolsWrittenTotal.Inc()
}

func (w *Walker) drop() {
	w.stats.Dropped++
	observability.SymbolsDroppedTotal.Inc()
}
