package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	ex "findash/data/extensions"
	m "findash/data/models"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func fp(v float64) *float64 {
	return &v
}

// series builds a raw series on consecutive days starting at day(0), a nil entry is a null observation
func series(ticker string, values ...*float64) *m.RawSeries {
	obs := make([]m.Observation, len(values))
	for i, v := range values {
		obs[i] = m.Observation{Date: day(i), Value: null.FloatFromPtr(v)}
	}
	return &m.RawSeries{Ticker: ticker, Observations: obs}
}

func column(values ...*float64) []null.Float {
	res := make([]null.Float, len(values))
	for i, v := range values {
		res[i] = null.FloatFromPtr(v)
	}
	return res
}

// memSource serves canned series and errors, counting calls per ticker
type memSource struct {
	mu     sync.Mutex
	series map[string]*m.RawSeries
	errs   map[string]error
	delay  map[string]time.Duration
	calls  map[string]int
}

func newMemSource() *memSource {
	return &memSource{
		series: map[string]*m.RawSeries{},
		errs:   map[string]error{},
		delay:  map[string]time.Duration{},
		calls:  map[string]int{},
	}
}

func (ms *memSource) with(rs *m.RawSeries) *memSource {
	ms.series[rs.Ticker] = rs
	return ms
}

func (ms *memSource) failing(ticker string, err error) *memSource {
	ms.errs[ticker] = err
	return ms
}

func (ms *memSource) Load(ctx context.Context, ticker string) (*m.RawSeries, error) {
	ms.mu.Lock()
	ms.calls[ticker]++
	d := ms.delay[ticker]
	ms.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := ms.errs[ticker]; ok {
		return nil, err
	}
	rs, ok := ms.series[ticker]
	if !ok {
		return nil, sourceUnavailable(ticker, "not found")
	}
	cp := *rs
	cp.Observations = append([]m.Observation(nil), rs.Observations...)
	return &cp, nil
}

func (ms *memSource) totalCalls() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for _, c := range ms.calls {
		n += c
	}
	return n
}

func assertColumn(t *testing.T, name string, expected []*float64, actual []null.Float) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("length mismatch for %s, expected %d, got %d", name, len(expected), len(actual))
	}
	for i := range expected {
		assertCell(t, name, i, expected[i], actual[i])
	}
}

func assertCell(t *testing.T, name string, row int, expected *float64, actual null.Float) {
	t.Helper()
	ex.AssertNullFloat(t, fmt.Sprintf("%s row %d", name, row), expected, actual, 1e-9)
}
