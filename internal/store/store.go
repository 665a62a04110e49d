// Package store provides database access methods for all blog entities.
// Each store shares a *DB that builds SQL with squirrel, maps rows with
// sqlx and reports every query to the observer. Lookups that match no live
// row return (nil, nil); every read skips soft-deleted rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"

	"blogcms/internal/blog"
)

// psql builds statements with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DB wraps the connection pool shared by all stores.
type DB struct {
	x   *sqlx.DB
	obs *observer
}

// New wraps db for use by the stores. Queries are traced and measured
// through the global OpenTelemetry providers; those slower than slowQuery
// are logged as warnings.
func New(db *sqlx.DB, log *slog.Logger, slowQuery time.Duration) *DB {
	return &DB{x: db, obs: newObserver(log, slowQuery, otel.GetTracerProvider(), otel.GetMeterProvider())}
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.x.PingContext(ctx)
}

func (d *DB) run(ctx context.Context, op string, q sq.Sqlizer, fn func(ctx context.Context, query string, args []any) error) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	return d.obs.observe(ctx, op, query, func(ctx context.Context) error {
		return fn(ctx, query, args)
	})
}

// get scans a single row into dest. It returns sql.ErrNoRows unchanged.
func (d *DB) get(ctx context.Context, op string, dest any, q sq.Sqlizer) error {
	return d.run(ctx, op, q, func(ctx context.Context, query string, args []any) error {
		return d.x.GetContext(ctx, dest, query, args...)
	})
}

// selectAll scans every row into the slice pointed to by dest.
func (d *DB) selectAll(ctx context.Context, op string, dest any, q sq.Sqlizer) error {
	return d.run(ctx, op, q, func(ctx context.Context, query string, args []any) error {
		return d.x.SelectContext(ctx, dest, query, args...)
	})
}

// exec runs a statement and returns the number of affected rows.
func (d *DB) exec(ctx context.Context, op string, q sq.Sqlizer) (int64, error) {
	var affected int64
	err := d.run(ctx, op, q, func(ctx context.Context, query string, args []any) error {
		res, err := d.x.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// count runs a COUNT(*) query.
func (d *DB) count(ctx context.Context, op string, q sq.SelectBuilder) (int, error) {
	var n int
	if err := d.get(ctx, op, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}

// exists wraps q in SELECT EXISTS (...).
func (d *DB) exists(ctx context.Context, op string, q sq.SelectBuilder) (bool, error) {
	var ok bool
	if err := d.get(ctx, op, &ok, q.Prefix("SELECT EXISTS (").Suffix(")")); err != nil {
		return false, err
	}
	return ok, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// writeError wraps a failed insert or update. A unique violation on a live
// slug index becomes blog.ErrSlugTaken.
func writeError(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, blog.ErrSlugTaken)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// excluding drops the row being updated from uniqueness checks. Zero
// excludes nothing.
func excluding(q sq.SelectBuilder, column string, id int64) sq.SelectBuilder {
	if id > 0 {
		return q.Where(sq.NotEq{column: id})
	}
	return q
}
