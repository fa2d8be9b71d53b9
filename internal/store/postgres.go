package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

const tableRegionalData = "regional_covid_data"

var regionalDataColumns = []string{"submission_date", "region_code", "region_name", "total_positive_cases"}

// sortColumns whitelists the sortable columns; anything outside the
// whitelist falls back to the default order.
var sortColumns = map[covid.SortField]string{
	covid.SortByTotalCases:     "total_positive_cases",
	covid.SortByRegionName:     "region_name",
	covid.SortByRegionCode:     "region_code",
	covid.SortBySubmissionDate: "submission_date",
}

const defaultOrder = "total_positive_cases DESC, region_name ASC"

// orderClause renders opts against the column whitelist. Unrecognized fields
// select the default order rather than failing, matching covid.SortRows.
func orderClause(opts covid.SortOptions) string {
	col, ok := sortColumns[opts.Field]
	if !ok {
		return defaultOrder
	}
	dir := "DESC"
	if opts.Order == covid.SortAsc {
		dir = "ASC"
	}
	return col + " " + dir
}

// Postgres is the durable covid.Store backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and makes sure the schema exists.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
create table if not exists regional_covid_data (
	id bigserial primary key,
	submission_date date not null,
	region_code text not null,
	region_name text not null,
	total_positive_cases integer not null default 0,
	unique (submission_date, region_name)
)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// builder returns a squirrel builder with Postgres placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (p *Postgres) ExistsForDate(ctx context.Context, d time.Time) (bool, error) {
	query := builder().Select("1").
		From(tableRegionalData).
		Where(sq.Eq{"submission_date": covid.DateOnly(d)}).
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = p.pool.QueryRow(ctx, sqlStr, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Postgres) GetByDate(ctx context.Context, d time.Time, opts covid.SortOptions) ([]covid.RegionDay, error) {
	query := builder().Select(regionalDataColumns...).
		From(tableRegionalData).
		Where(sq.Eq{"submission_date": covid.DateOnly(d)}).
		OrderBy(orderClause(opts))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []covid.RegionDay
	for rows.Next() {
		var row covid.RegionDay
		if err := rows.Scan(&row.SubmissionDate, &row.RegionCode, &row.RegionName, &row.TotalPositiveCases); err != nil {
			return nil, err
		}
		row.SubmissionDate = covid.DateOnly(row.SubmissionDate)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *Postgres) LatestDate(ctx context.Context) (time.Time, error) {
	query := builder().Select("submission_date").
		From(tableRegionalData).
		OrderBy("submission_date DESC").
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return time.Time{}, err
	}

	var d time.Time
	err = p.pool.QueryRow(ctx, sqlStr, args...).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, covid.ErrNoData
	}
	if err != nil {
		return time.Time{}, err
	}
	return covid.DateOnly(d), nil
}

// dedupeByKey keeps the last row per (submission_date, region_name) pair,
// preserving first-seen order. Postgres rejects a statement that touches the
// same row twice ("cannot affect row a second time"), and the in-memory store
// keeps the last write, so collapsing here keeps both backends in agreement.
func dedupeByKey(rows []covid.RegionDay) []covid.RegionDay {
	idx := make(map[string]int, len(rows))
	out := make([]covid.RegionDay, 0, len(rows))
	for _, row := range rows {
		row.SubmissionDate = covid.DateOnly(row.SubmissionDate)
		key := covid.DateKey(row.SubmissionDate) + "|" + row.RegionName
		if i, ok := idx[key]; ok {
			out[i] = row
			continue
		}
		idx[key] = len(out)
		out = append(out, row)
	}
	return out
}

// UpsertBatch writes the whole batch inside one transaction: either every
// row commits or none does. Existing (submission_date, region_name) rows get
// their mutable fields overwritten.
func (p *Postgres) UpsertBatch(ctx context.Context, rows []covid.RegionDay) ([]covid.RegionDay, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	rows = dedupeByKey(rows)

	query := builder().Insert(tableRegionalData).Columns(regionalDataColumns...)
	for _, row := range rows {
		query = query.Values(row.SubmissionDate, row.RegionCode, row.RegionName, row.TotalPositiveCases)
	}
	query = query.Suffix(`
on conflict (submission_date, region_name)
do update set
	region_code = excluded.region_code,
	total_positive_cases = excluded.total_positive_cases`)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}
