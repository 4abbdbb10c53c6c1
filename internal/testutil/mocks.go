package testutil

import (
	"context"
	"sync"

	"github.com/somnial/somnial/internal/metrics"
)

// MockStore is an in-memory stand-in for the point store. It records
// appended points and plays back canned query results.
type MockStore struct {
	mu     sync.Mutex
	Points []metrics.Point

	Samples []metrics.Sample
	Series  []metrics.SeriesInfo
	Total   int64
	ToErr   error

	LastStart, LastEnd *int64
	LastLimit          int
}

func (m *MockStore) Append(_ context.Context, p metrics.Point) error {
	if m.ToErr != nil {
		return m.ToErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Points = append(m.Points, p)
	return nil
}

func (m *MockStore) RangeQuery(_ context.Context, _, _ string, start, end *int64) ([]metrics.Sample, error) {
	m.LastStart, m.LastEnd = start, end
	if m.ToErr != nil {
		return nil, m.ToErr
	}
	return m.Samples, nil
}

func (m *MockStore) LatestPoints(_ context.Context, _, _ string, limit int) ([]metrics.Sample, error) {
	m.LastLimit = limit
	if m.ToErr != nil {
		return nil, m.ToErr
	}
	return m.Samples, nil
}

func (m *MockStore) ListSeries(_ context.Context, _ string, _, _ int) ([]metrics.SeriesInfo, int64, error) {
	if m.ToErr != nil {
		return nil, 0, m.ToErr
	}
	return m.Series, m.Total, nil
}

// AppendedPoints returns a copy of the recorded points
func (m *MockStore) AppendedPoints() []metrics.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]metrics.Point(nil), m.Points...)
}

// MockReadyChecker reports a fixed readiness state
type MockReadyChecker struct {
	IsReady bool
}

func (m *MockReadyChecker) Ready() bool { return m.IsReady }
