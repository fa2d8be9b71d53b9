package covid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mrusso19/covid-data-aggregation/internal/logging"
)

// Service is the cache gate: it decides whether a date's rows are already
// stored and, on a miss, drives fetch, normalize, aggregate and upsert,
// always answering from the store.
type Service struct {
	store  Store
	source Source
	flight singleflight.Group

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, source Source) *Service {
	return &Service{store: store, source: source, now: time.Now}
}

// EnsureAvailable guarantees rows for targetDate exist in the store and
// returns them in default order. The upstream's "latest" feed may attribute
// its data to a date other than targetDate; in that case the adopted date is
// trusted and the returned rows carry it, so callers must key any follow-up
// cache decisions on the rows' own submission date.
//
// Concurrent calls for the same target date share one fetch-and-upsert
// through singleflight; losers receive the winner's rows or error.
func (s *Service) EnsureAvailable(ctx context.Context, targetDate time.Time) ([]RegionDay, error) {
	targetDate = DateOnly(targetDate)

	v, err, _ := s.flight.Do(DateKey(targetDate), func() (any, error) {
		return s.ensure(ctx, targetDate)
	})
	if err != nil {
		return nil, err
	}
	return v.([]RegionDay), nil
}

// Today returns the current reporting date according to the service clock.
// Callers defaulting a target date must use this rather than their own clock,
// so the cache-gate's latest-vs-dated decision sees the same "today".
func (s *Service) Today() time.Time {
	return DateOnly(s.now())
}

// RegionData ensures rows exist for targetDate and returns them in the
// caller's order, re-reading by the effective (possibly adopted) date.
func (s *Service) RegionData(ctx context.Context, targetDate time.Time, sort SortOptions) ([]RegionDay, error) {
	ensured, err := s.EnsureAvailable(ctx, targetDate)
	if err != nil {
		return nil, err
	}

	effective := ensured[0].SubmissionDate
	rows, err := s.store.GetByDate(ctx, effective, sort)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrStorageFailure, err)
	}
	return rows, nil
}

// StoredByDate reads rows for d from the store without triggering ingestion.
func (s *Service) StoredByDate(ctx context.Context, d time.Time, sort SortOptions) ([]RegionDay, error) {
	rows, err := s.store.GetByDate(ctx, DateOnly(d), sort)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrStorageFailure, err)
	}
	return rows, nil
}

// LatestAvailable returns the rows for the most recent stored date.
func (s *Service) LatestAvailable(ctx context.Context, sort SortOptions) ([]RegionDay, error) {
	d, err := s.store.LatestDate(ctx)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, fmt.Errorf("%w: store is empty", ErrSourceDataUnavailable)
		}
		return nil, fmt.Errorf("%w: latest date: %v", ErrStorageFailure, err)
	}
	return s.StoredByDate(ctx, d, sort)
}

func (s *Service) ensure(ctx context.Context, targetDate time.Time) ([]RegionDay, error) {
	exists, err := s.store.ExistsForDate(ctx, targetDate)
	if err != nil {
		return nil, fmt.Errorf("%w: exists check: %v", ErrStorageFailure, err)
	}
	if exists {
		return s.readStored(ctx, targetDate)
	}

	runID := uuid.NewString()
	logging.Info("cache miss, ingesting from source",
		zap.String("run_id", runID),
		zap.String("target_date", DateKey(targetDate)))

	raws, err := s.fetch(ctx, targetDate)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: source returned no records for %s",
			ErrSourceDataUnavailable, DateKey(targetDate))
	}

	records, skipped := NormalizeBatch(raws)
	if skipped > 0 {
		logging.Warn("skipped records during normalization",
			zap.String("run_id", runID),
			zap.Int("skipped", skipped),
			zap.Int("total", len(raws)))
	}

	rows := AggregateByRegion(records)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no region rows aggregated from %d raw records",
			ErrProcessingFailure, len(raws))
	}

	adoptedDate := rows[0].SubmissionDate
	if !adoptedDate.Equal(targetDate) {
		logging.Warn("adopted reporting date differs from requested date",
			zap.String("run_id", runID),
			zap.String("target_date", DateKey(targetDate)),
			zap.String("adopted_date", DateKey(adoptedDate)))
	}

	// Skip the upsert when the adopted date's rows are already stored: a
	// "today" request resolving to an already-ingested report must not
	// rewrite it.
	stored, err := s.store.ExistsForDate(ctx, adoptedDate)
	if err != nil {
		return nil, fmt.Errorf("%w: exists check: %v", ErrStorageFailure, err)
	}
	if !stored {
		if _, err := s.store.UpsertBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("%w: upsert: %v", ErrStorageFailure, err)
		}
		logging.Info("stored aggregated region rows",
			zap.String("run_id", runID),
			zap.String("date", DateKey(adoptedDate)),
			zap.Int("regions", len(rows)))
	}

	return s.readStored(ctx, adoptedDate)
}

// fetch picks the upstream format: the "latest" JSON resource for today,
// the dated CSV resource otherwise.
func (s *Service) fetch(ctx context.Context, targetDate time.Time) ([]RawProvinceRecord, error) {
	var (
		raws []RawProvinceRecord
		err  error
	)
	if targetDate.Equal(DateOnly(s.now())) {
		raws, err = s.source.FetchLatest(ctx)
	} else {
		raws, err = s.source.FetchByDate(ctx, targetDate)
	}
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrSourceDataUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	return raws, nil
}

// readStored reads back rows just confirmed or written; an empty result here
// means the store is inconsistent.
func (s *Service) readStored(ctx context.Context, d time.Time) ([]RegionDay, error) {
	rows, err := s.store.GetByDate(ctx, d, SortOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrStorageFailure, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows readable for %s after ingestion",
			ErrStorageFailure, DateKey(d))
	}
	return rows, nil
}
