package covid

import (
	"context"
	"errors"
	"time"
)

// Source abstracts the upstream provider of raw province rows. FetchLatest
// targets the single "latest" JSON resource; FetchByDate targets the dated
// CSV resource derived from d. Implementations issue one bounded request per
// call and never retry internally.
type Source interface {
	FetchLatest(ctx context.Context) ([]RawProvinceRecord, error)
	FetchByDate(ctx context.Context, d time.Time) ([]RawProvinceRecord, error)
}

// ErrSourceNotFound reports that the upstream has no resource for the
// requested key (a 404). It is terminal and never retried.
var ErrSourceNotFound = errors.New("source data not found")

// Pipeline outcome kinds. EnsureAvailable fails with exactly one of these,
// wrapped with context.
var (
	// ErrSourceDataUnavailable: the upstream has nothing for the requested
	// date (missing resource or an empty feed).
	ErrSourceDataUnavailable = errors.New("no data available for requested date")

	// ErrUpstreamFailure: transport error, unexpected status, or a response
	// body that is not valid in the expected wire format.
	ErrUpstreamFailure = errors.New("upstream fetch failed")

	// ErrProcessingFailure: data was fetched but nothing usable came out of
	// normalization and aggregation.
	ErrProcessingFailure = errors.New("fetched data could not be processed")

	// ErrStorageFailure: the store rejected a batch or a post-write read
	// came back empty.
	ErrStorageFailure = errors.New("storage failure")
)

// ErrNoData is returned by Store.LatestDate when nothing is stored yet.
var ErrNoData = errors.New("no stored data")

// Store is the contract a region-day storage backend must satisfy. Rows are
// keyed by (submission_date, region_name); UpsertBatch overwrites mutable
// fields of existing rows, inserts the rest, and commits the batch
// atomically or not at all.
type Store interface {
	ExistsForDate(ctx context.Context, d time.Time) (bool, error)
	GetByDate(ctx context.Context, d time.Time, sort SortOptions) ([]RegionDay, error)
	LatestDate(ctx context.Context) (time.Time, error)
	UpsertBatch(ctx context.Context, rows []RegionDay) ([]RegionDay, error)
}
