// Package registry aggregates session sources: it runs discovery across all
// of them, merges the results into one ranked list, and routes actions on a
// selected name back to the source that owns it.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/model"
	ssotel "github.com/timvw/session-switcher/internal/otel"
	"github.com/timvw/session-switcher/internal/source"
)

var tracer = otel.Tracer("session-switcher")

// Registry owns the built-in sources and the extension sources loaded at
// startup. The source set is fixed after New.
type Registry struct {
	builtins   []source.Source
	extensions []source.Source
	deps       *DependencyCache
	parallel   int
	timeout    time.Duration
	metrics    *ssotel.Metrics
	log        *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtensions appends externally supplied sources after the built-ins.
func WithExtensions(srcs ...source.Source) Option {
	return func(r *Registry) { r.extensions = append(r.extensions, srcs...) }
}

// WithParallel bounds concurrent discover calls. 0 means unbounded.
func WithParallel(n int) Option {
	return func(r *Registry) { r.parallel = n }
}

// WithTimeout bounds a whole discovery round. 0 disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithDependencyCache replaces the default dependency cache.
func WithDependencyCache(c *DependencyCache) Option {
	return func(r *Registry) { r.deps = c }
}

// WithMetrics records discovery and dispatch counters. nil is allowed.
func WithMetrics(m *ssotel.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates a registry. builtins keep their declaration order.
func New(builtins []source.Source, opts ...Option) *Registry {
	r := &Registry{
		builtins: builtins,
		log:      logger.ComponentLogger("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.deps == nil {
		r.deps = NewDependencyCache(time.Minute)
	}
	r.deps.metrics = r.metrics
	return r
}

// Sources returns all sources: built-ins in declaration order, then extensions in load order.
func (r *Registry) Sources() []source.Source {
	all := make([]source.Source, 0, len(r.builtins)+len(r.extensions))
	all = append(all, r.builtins...)
	return append(all, r.extensions...)
}

// usable reports whether every dependency of s is on PATH.
func (r *Registry) usable(ctx context.Context, s source.Source) bool {
	missing := r.deps.Missing(ctx, s.Dependencies())
	for _, dep := range missing {
		r.log.Debug("skipping source", "source", s.Name(), "error", apperrors.DependencyMissing(s.Name(), dep))
		r.metrics.RecordSourceSkipped(ctx, s.Name(), dep)
	}
	return len(missing) == 0
}

// DiscoverAll runs every usable source against sc and returns the merged
// list: unique names, ordered by priority then most recent first. A failing
// source contributes nothing; the round itself never fails.
func (r *Registry) DiscoverAll(ctx context.Context, sc *model.SessionContext) []model.SessionRecord {
	ctx, span := tracer.Start(ctx, "discover_all")
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sources := r.Sources()
	batches := make([][]model.SessionRecord, len(sources))

	var g errgroup.Group
	if r.parallel > 0 {
		g.SetLimit(r.parallel)
	}
	for i, s := range sources {
		if !r.usable(ctx, s) {
			continue
		}
		g.Go(func() error {
			batches[i] = r.discoverOne(ctx, s, sc)
			return nil
		})
	}
	_ = g.Wait()

	records := merge(batches)
	span.SetAttributes(
		attribute.Int("sources.total", len(sources)),
		attribute.Int("records.total", len(records)),
	)
	r.metrics.RecordRound(ctx, len(records))
	return records
}

func (r *Registry) discoverOne(ctx context.Context, s source.Source, sc *model.SessionContext) []model.SessionRecord {
	ctx, span := tracer.Start(ctx, "discover_source",
		trace.WithAttributes(attribute.String("source.name", s.Name())))
	defer span.End()

	records, err := s.Discover(ctx, sc)
	if err != nil {
		r.log.Warn("discover failed", "source", s.Name(), "error", err)
		r.metrics.RecordSourceFailure(ctx, s.Name())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return records
}

// merge applies the dedup rule in source order: on a name clash the record
// with the lower priority value wins; on equal priority the earlier source wins.
// The result is stable-sorted by priority ascending, then DiscoveredAt descending.
func merge(batches [][]model.SessionRecord) []model.SessionRecord {
	index := map[string]int{}
	var out []model.SessionRecord
	for _, batch := range batches {
		for _, rec := range batch {
			if i, ok := index[rec.Name]; ok {
				if rec.Priority < out[i].Priority {
					out[i] = rec
				}
				continue
			}
			index[rec.Name] = len(out)
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].DiscoveredAt.After(out[j].DiscoveredAt)
	})
	return out
}
