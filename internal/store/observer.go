package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"blogcms/internal/logger"
)

const instrumentationName = "blogcms/internal/store"

// DefaultSlowQuery is used when no threshold is configured.
const DefaultSlowQuery = 200 * time.Millisecond

// observer traces, measures and logs every store query.
type observer struct {
	log      *slog.Logger
	tracer   trace.Tracer
	count    metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	slow     time.Duration
}

func newObserver(log *slog.Logger, slow time.Duration, tp trace.TracerProvider, mp metric.MeterProvider) *observer {
	if log == nil {
		log = slog.Default()
	}
	if slow <= 0 {
		slow = DefaultSlowQuery
	}

	meter := mp.Meter(instrumentationName)
	count, _ := meter.Int64Counter("blog.store.query.count",
		metric.WithDescription("Total number of SQL queries executed"),
		metric.WithUnit("{query}"),
	)
	duration, _ := meter.Float64Histogram("blog.store.query.duration",
		metric.WithDescription("Query execution duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	errCount, _ := meter.Int64Counter("blog.store.query.errors",
		metric.WithDescription("Total number of failed SQL queries"),
		metric.WithUnit("{error}"),
	)

	return &observer{
		log:      log,
		tracer:   tp.Tracer(instrumentationName),
		count:    count,
		duration: duration,
		errors:   errCount,
		slow:     slow,
	}
}

// logger returns the request-scoped logger carried by ctx, tagged as the
// store, falling back to the observer's own logger.
func (o *observer) logger(ctx context.Context) *slog.Logger {
	if log, ok := logger.Lookup(ctx); ok {
		return logger.WithComponent(log, "store")
	}
	return o.log
}

// observe runs fn inside a span. sql.ErrNoRows is a result, not a failure.
func (o *observer) observe(ctx context.Context, op, query string, fn func(ctx context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", query),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(attribute.String("db.operation", op))
	o.count.Add(ctx, 1, attrs)
	o.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		o.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger(ctx).LogAttrs(ctx, slog.LevelError, "query failed",
			slog.String("operation", op),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return err
	}

	if elapsed > o.slow {
		o.logger(ctx).LogAttrs(ctx, slog.LevelWarn, "slow query",
			slog.String("operation", op),
			slog.Duration("duration", elapsed),
			slog.String("query", query),
		)
	}
	return err
}
