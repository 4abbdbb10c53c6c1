package storage

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/somnial/somnial/internal/db"
	"github.com/somnial/somnial/internal/log"
	"github.com/somnial/somnial/internal/metrics"
)

// PointStore persists telemetry points in a Postgres database
type PointStore struct {
	ctx     context.Context
	storeDb db.PgxPoolIface
	ready   atomic.Bool // set once the migration ledger is reconciled
}

// Ready reports whether the schema is reconciled and the store may serve
// traffic
func (ps *PointStore) Ready() bool {
	return ps.ready.Load()
}

// NewPointStore opens a connection pool for the given URI and pings it
// before handing the store out. The schema is not touched here; callers
// run Migrate before serving traffic.
func NewPointStore(ctx context.Context, connstr string) (ps *PointStore, err error) {
	var conn db.PgxPoolIface
	if conn, err = db.New(ctx, connstr); err != nil {
		return
	}
	return NewPointStoreFromConn(ctx, conn)
}

// NewPointStoreFromConn wraps an existing pool, e.g. a pgxmock one in tests
func NewPointStoreFromConn(ctx context.Context, conn db.PgxPoolIface) (ps *PointStore, err error) {
	l := log.GetLogger(ctx).WithField("store", "postgres")
	ctx = log.WithLogger(ctx, l)
	ps = &PointStore{ctx: ctx, storeDb: conn}
	if err = db.Init(ctx, conn, func(context.Context, db.PgxIface) error { return nil }); err != nil {
		return nil, err
	}
	return ps, nil
}

// Close releases the underlying connection pool
func (ps *PointStore) Close() {
	ps.storeDb.Close()
}

const sqlAppendPoint = `INSERT INTO metrics (namespace, id, value, timestamp) VALUES ($1, $2, $3, $4)`

// Append durably stores a single point. It always creates a new row and
// never deduplicates; a failed insert is returned unchanged without retry,
// duplicate retried writes are harmless to the caller.
func (ps *PointStore) Append(ctx context.Context, p metrics.Point) error {
	if err := metrics.ValidateValue(p.Value); err != nil {
		return err
	}
	if _, err := ps.storeDb.Exec(ctx, sqlAppendPoint, p.Namespace, p.ID, p.Value, p.Timestamp); err != nil {
		return fmt.Errorf("cannot append point: %w", err)
	}
	return nil
}

// RangeQuery returns the samples for a series ascending by timestamp.
// Bounds are optional and inclusive; an inverted range yields an empty
// result, not an error. The query is answerable from the
// (namespace, id, timestamp) index alone.
func (ps *PointStore) RangeQuery(ctx context.Context, namespace, id string, start, end *int64) ([]metrics.Sample, error) {
	sql := `SELECT timestamp, value FROM metrics WHERE namespace = $1 AND id = $2`
	args := []any{namespace, id}
	if start != nil {
		args = append(args, *start)
		sql += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		sql += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	sql += " ORDER BY timestamp ASC"
	rows, err := ps.storeDb.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	samples, err := pgx.CollectRows(rows, pgx.RowToStructByPos[metrics.Sample])
	if err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []metrics.Sample{} // marshals as [], not null
	}
	return samples, nil
}

const sqlLatestPoints = `SELECT timestamp, value FROM metrics
WHERE namespace = $1 AND id = $2
ORDER BY timestamp DESC LIMIT $3`

// LatestPoints returns up to limit most recent samples of a series in
// chronological order
func (ps *PointStore) LatestPoints(ctx context.Context, namespace, id string, limit int) ([]metrics.Sample, error) {
	rows, err := ps.storeDb.Query(ctx, sqlLatestPoints, namespace, id, limit)
	if err != nil {
		return nil, err
	}
	samples, err := pgx.CollectRows(rows, pgx.RowToStructByPos[metrics.Sample])
	if err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []metrics.Sample{}
	}
	slices.Reverse(samples)
	return samples, nil
}

const sqlCountSeries = `SELECT count(DISTINCT id) FROM metrics WHERE namespace = $1`

const sqlListSeries = `SELECT id, count(*), max(timestamp) FROM metrics
WHERE namespace = $1
GROUP BY id
ORDER BY max(timestamp) DESC LIMIT $2 OFFSET $3`

// ListSeries returns one page of the series stored under a namespace,
// most recently updated first, together with the total series count
func (ps *PointStore) ListSeries(ctx context.Context, namespace string, page, perPage int) (infos []metrics.SeriesInfo, total int64, err error) {
	if page < 1 {
		page = 1
	}
	if err = ps.storeDb.QueryRow(ctx, sqlCountSeries, namespace).Scan(&total); err != nil {
		return
	}
	rows, err := ps.storeDb.Query(ctx, sqlListSeries, namespace, perPage, (page-1)*perPage)
	if err != nil {
		return
	}
	infos, err = pgx.CollectRows(rows, pgx.RowToStructByPos[metrics.SeriesInfo])
	if infos == nil {
		infos = []metrics.SeriesInfo{}
	}
	return
}
