package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "session-switcher"

// Metrics holds all OTEL metric instruments for session-switcher.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// Discovery
	DiscoveryRounds   metric.Int64Counter
	RecordsDiscovered metric.Int64Counter
	SourceFailures    metric.Int64Counter
	SourcesSkipped    metric.Int64Counter

	// Dependency cache
	DependencyCacheHits   metric.Int64Counter
	DependencyCacheMisses metric.Int64Counter

	// Dispatch (partitioned by action and outcome)
	Dispatches metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DiscoveryRounds, err = meter.Int64Counter("discovery.rounds",
		metric.WithDescription("Number of discover_all rounds"))
	if err != nil {
		return nil, err
	}

	m.RecordsDiscovered, err = meter.Int64Counter("discovery.records",
		metric.WithDescription("Records returned by discovery after dedup"),
		metric.WithUnit("{record}"))
	if err != nil {
		return nil, err
	}

	m.SourceFailures, err = meter.Int64Counter("source.failures",
		metric.WithDescription("Source discover calls that failed and were treated as empty"))
	if err != nil {
		return nil, err
	}

	m.SourcesSkipped, err = meter.Int64Counter("source.skipped",
		metric.WithDescription("Sources skipped because a dependency command is missing"))
	if err != nil {
		return nil, err
	}

	m.DependencyCacheHits, err = meter.Int64Counter("dependency_cache.hits",
		metric.WithDescription("Dependency lookups answered from cache"))
	if err != nil {
		return nil, err
	}

	m.DependencyCacheMisses, err = meter.Int64Counter("dependency_cache.misses",
		metric.WithDescription("Dependency lookups that searched PATH"))
	if err != nil {
		return nil, err
	}

	m.Dispatches, err = meter.Int64Counter("dispatch.total",
		metric.WithDescription("Dispatched actions partitioned by action and outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRound records one discovery round and the number of records it produced.
func (m *Metrics) RecordRound(ctx context.Context, records int) {
	if m == nil {
		return
	}
	m.DiscoveryRounds.Add(ctx, 1)
	m.RecordsDiscovered.Add(ctx, int64(records))
}

// RecordSourceFailure records a failed discover call.
func (m *Metrics) RecordSourceFailure(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.SourceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordSourceSkipped records a source skipped for a missing dependency.
func (m *Metrics) RecordSourceSkipped(ctx context.Context, source, dependency string) {
	if m == nil {
		return
	}
	m.SourcesSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("dependency", dependency),
	))
}

// RecordDependencyLookup records a dependency cache hit or miss.
func (m *Metrics) RecordDependencyLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.DependencyCacheHits.Add(ctx, 1)
	} else {
		m.DependencyCacheMisses.Add(ctx, 1)
	}
}

// RecordDispatch records an action routed to a source.
func (m *Metrics) RecordDispatch(ctx context.Context, action, source, outcome string) {
	if m == nil {
		return
	}
	m.Dispatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}
