package core

import (
	"fmt"
	"slices"
	"time"

	ex "findash/data/extensions"
	m "findash/data/models"
)

// Merge outer joins the series on calendar date and keeps the rows inside [start, end].
// Columns follow order. A source carrying the same date twice fails the whole merge,
// even when the duplicate sits outside the window.
func Merge(series map[string]*m.RawSeries, order []string, start, end time.Time) (m.Table, error) {
	start, end = ex.ToDate(start), ex.ToDate(end)
	if start.After(end) {
		return m.Table{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, ex.FmtShort(start), ex.FmtShort(end))
	}

	byDate := make(map[string]map[time.Time]m.Observation, len(order))
	seen := make(map[time.Time]struct{})
	for _, ticker := range order {
		rs, ok := series[ticker]
		if !ok || rs == nil {
			return m.Table{}, fmt.Errorf("no series loaded for ticker %s", ticker)
		}

		dates := make([]time.Time, len(rs.Observations))
		for i, o := range rs.Observations {
			dates[i] = ex.ToDate(o.Date)
		}
		if dup, found := ex.FirstDuplicate(dates); found {
			return m.Table{}, &DuplicateDateError{Ticker: ticker, Date: dup}
		}

		lookup := make(map[time.Time]m.Observation, len(dates))
		for i, d := range dates {
			if d.Before(start) || d.After(end) {
				continue
			}
			lookup[d] = rs.Observations[i]
			seen[d] = struct{}{}
		}
		byDate[ticker] = lookup
	}

	axis := make([]time.Time, 0, len(seen))
	for d := range seen {
		axis = append(axis, d)
	}
	slices.SortFunc(axis, func(a, b time.Time) int { return a.Compare(b) })

	table := m.NewTable(axis, slices.Clone(order))
	for _, ticker := range order {
		col := table.Values[ticker]
		lookup := byDate[ticker]
		for i, d := range axis {
			if o, ok := lookup[d]; ok {
				col[i] = o.Value
			}
		}
	}

	return table, nil
}
