package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/guregu/null/v6"

	m "findash/data/models"
)

type ReturnKind string

const (
	SimpleReturns ReturnKind = "simple"
	LogReturns    ReturnKind = "log"
)

func ParseReturnKind(s string) (ReturnKind, error) {
	switch ReturnKind(s) {
	case SimpleReturns, "":
		return SimpleReturns, nil
	case LogReturns:
		return LogReturns, nil
	default:
		return "", fmt.Errorf("%w: unknown return kind %q", ErrInvalidConfig, s)
	}
}

// CalculateReturns derives period over period returns for every column, named <ticker>_returns.
// Row 0 is always null, as is any row where either value is missing, the previous value is zero,
// or the result is not finite.
func CalculateReturns(t m.Table, kind ReturnKind) m.Table {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = m.ReturnsColumn(c)
	}

	res := m.NewTable(slices.Clone(t.Dates), columns)
	for i, c := range t.Columns {
		prices := t.Values[c]
		out := res.Values[columns[i]]
		for row := 1; row < len(prices); row++ {
			out[row] = periodReturn(prices[row-1], prices[row], kind)
		}
	}
	return res
}

func periodReturn(prev, cur null.Float, kind ReturnKind) null.Float {
	if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
		return null.Float{}
	}

	var r float64
	switch kind {
	case LogReturns:
		if prev.Float64 <= 0 || cur.Float64 <= 0 {
			return null.Float{}
		}
		r = math.Log(cur.Float64 / prev.Float64)
	default:
		r = (cur.Float64 - prev.Float64) / prev.Float64
	}

	if math.IsNaN(r) || math.IsInf(r, 0) {
		return null.Float{}
	}
	return null.FloatFrom(r)
}
