package symbols

import (
	"complete/internal/core/errors"
	"complete/internal/core/ports"
	"complete/internal/engine/decl"
	"complete/internal/shared/observability"
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Coordinator buffers the top-level declarations of a translation unit and
// writes them in a single store transaction once the unit is complete.
type Coordinator struct {
	open    ports.StoreOpener
	opts    WalkOptions
	pending [][]*decl.Decl
	stats   RunStats
}

var _ ports.DeclConsumer = (*Coordinator)(nil)

func NewCoordinator(open ports.StoreOpener, opts WalkOptions) *Coordinator {
	return &Coordinator{open: open, opts: opts}
}

func (c *Coordinator) HandleTopLevelDecl(group []*decl.Decl) bool {
	if len(group) == 0 {
		return true
	}
	c.pending = append(c.pending, group)
	c.stats.Groups++
	c.stats.TopLevel += len(group)
	return true
}

// HandleTranslationUnit opens the store, walks every buffered declaration
// and commits. Nothing is written when the store cannot be opened, and a
// failed or aborted walk rolls back.
func (c *Coordinator) HandleTranslationUnit(ctx context.Context, sm decl.SourceManager) (err error) {
	ctx, span := observability.Tracer.Start(ctx, "coordinator.HandleTranslationUnit", trace.WithAttributes(
		attribute.Int("groups", len(c.pending)),
		attribute.Int("top_level", c.stats.TopLevel),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	pending := c.pending
	c.pending = nil

	openStart := time.Now()
	store, err := c.open(ctx)
	observability.RunDuration.WithLabelValues("open").Observe(time.Since(openStart).Seconds())
	if err != nil {
		observability.RunsTotal.WithLabelValues("store_error").Inc()
		if errors.IsCode(err, errors.CodeStore) {
			return err
		}
		return errors.Wrap(err, errors.CodeStore, "open symbol store")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if abortErr := store.Abort(); abortErr != nil {
			slog.Warn("failed to roll back symbol store", "error", abortErr)
		}
		observability.RunsTotal.WithLabelValues("aborted").Inc()
	}()

	walkStart := time.Now()
	walker := NewWalker(sm, store, c.opts)
	for _, group := range pending {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "indexing run interrupted")
		}
		for _, d := range group {
			if _, ok := Resolve(sm, d.Loc); !ok {
				walker.stats.filter(ReasonNotIndexable)
				continue
			}
			walker.Walk(d)
		}
	}
	observability.RunDuration.WithLabelValues("walk").Observe(time.Since(walkStart).Seconds())
	c.merge(walker.Stats())

	commitStart := time.Now()
	if err := store.Close(); err != nil {
		observability.RunsTotal.WithLabelValues("store_error").Inc()
		committed = true
		return errors.Wrap(err, errors.CodeStore, "commit symbol store")
	}
	committed = true
	observability.RunDuration.WithLabelValues("commit").Observe(time.Since(commitStart).Seconds())
	observability.RunsTotal.WithLabelValues("committed").Inc()

	span.SetAttributes(
		attribute.Int("written", c.stats.Written),
		attribute.Int("dropped", c.stats.Dropped),
	)
	return nil
}

// Stats reports the counters accumulated so far.
func (c *Coordinator) Stats() RunStats {
	return c.stats
}

func (c *Coordinator) merge(s RunStats) {
	c.stats.Visited += s.Visited
	c.stats.Written += s.Written
	c.stats.Dropped += s.Dropped
	for reason, n := range s.Filtered {
		if c.stats.Filtered == nil {
			c.stats.Filtered = make(map[string]int)
		}
		c.stats.Filtered[reason] += n
	}
}
