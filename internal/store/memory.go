package store

import (
	"context"
	"sync"
	"time"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
)

// Memory is a concurrency-safe in-memory covid.Store. It backs tests and is
// the default backend when no DATABASE_URL is configured.
type Memory struct {
	mu sync.RWMutex

	// date key -> region name -> row; the inner key enforces the
	// (submission_date, region_name) uniqueness invariant.
	days map[string]map[string]covid.RegionDay
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{days: make(map[string]map[string]covid.RegionDay)}
}

func (m *Memory) ExistsForDate(_ context.Context, d time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.days[covid.DateKey(d)]
	return ok && len(rows) > 0, nil
}

func (m *Memory) GetByDate(_ context.Context, d time.Time, sort covid.SortOptions) ([]covid.RegionDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byName := m.days[covid.DateKey(d)]
	rows := make([]covid.RegionDay, 0, len(byName))
	for _, row := range byName {
		rows = append(rows, row)
	}

	covid.SortRows(rows, sort)
	return rows, nil
}

func (m *Memory) LatestDate(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Date keys are YYYY-MM-DD, so lexicographic max is the latest date.
	latest := ""
	for key, rows := range m.days {
		if len(rows) == 0 {
			continue
		}
		if key > latest {
			latest = key
		}
	}
	if latest == "" {
		return time.Time{}, covid.ErrNoData
	}
	return time.Parse(covid.DateLayout, latest)
}

// UpsertBatch inserts or overwrites rows keyed by (submission_date,
// region_name). The in-memory implementation cannot fail mid-batch, so the
// all-or-nothing contract holds trivially.
func (m *Memory) UpsertBatch(_ context.Context, rows []covid.RegionDay) ([]covid.RegionDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]covid.RegionDay, 0, len(rows))
	for _, row := range rows {
		row.SubmissionDate = covid.DateOnly(row.SubmissionDate)
		key := covid.DateKey(row.SubmissionDate)

		byName, ok := m.days[key]
		if !ok {
			byName = make(map[string]covid.RegionDay)
			m.days[key] = byName
		}
		byName[row.RegionName] = row
		out = append(out, row)
	}
	return out, nil
}
