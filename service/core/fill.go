package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/guregu/null/v6"

	m "findash/data/models"
)

type FillPolicy string

const (
	FillNone    FillPolicy = "none"
	FillForward FillPolicy = "ffill"
	FillDrop    FillPolicy = "drop"
)

func (fp FillPolicy) Apply(t m.Table) (m.Table, error) {
	switch fp {
	case FillNone, "":
		return t.Clone(), nil
	case FillForward:
		return ForwardFill(t), nil
	case FillDrop:
		return DropIncompleteRows(t), nil
	default:
		return m.Table{}, fmt.Errorf("%w: unknown fill policy %q", ErrInvalidConfig, fp)
	}
}

// ForwardFill carries the last real value of each column down into later nulls, leading nulls stay null
func ForwardFill(t m.Table) m.Table {
	res := t.Clone()
	for _, c := range res.Columns {
		col := res.Values[c]
		var last null.Float
		for i, v := range col {
			if v.Valid {
				last = v
				continue
			}
			col[i] = last
		}
	}
	return res
}

// DropIncompleteRows keeps only the dates where every column has a real value
func DropIncompleteRows(t m.Table) m.Table {
	keep := make([]int, 0, t.Len())
	for i := range t.Dates {
		complete := true
		for _, c := range t.Columns {
			if !t.Values[c][i].Valid {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}

	dates := make([]time.Time, len(keep))
	for j, i := range keep {
		dates[j] = t.Dates[i]
	}

	res := m.NewTable(dates, slices.Clone(t.Columns))
	for _, c := range t.Columns {
		for j, i := range keep {
			res.Values[c][j] = t.Values[c][i]
		}
	}
	return res
}
