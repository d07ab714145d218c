package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	m "findash/data/models"
)

const DefaultVolatilityWindow = 4

// CalculateVolatility is the trailing sample standard deviation of returns over window rows,
// named <ticker>_volatility. A cell is only defined when every return in its window is real.
func CalculateVolatility(t m.Table, window int, kind ReturnKind) (m.Table, error) {
	if window < 2 {
		return m.Table{}, fmt.Errorf("%w: volatility window must be at least 2, got %d", ErrInvalidRange, window)
	}

	return rollingVolatility(CalculateReturns(t, kind), t.Columns, window), nil
}

func rollingVolatility(returns m.Table, tickers []string, window int) m.Table {
	columns := make([]string, len(tickers))
	for i, c := range tickers {
		columns[i] = m.VolatilityColumn(c)
	}

	res := m.NewTable(slices.Clone(returns.Dates), columns)
	buf := make([]float64, window)
	for i, ticker := range tickers {
		r := returns.Values[m.ReturnsColumn(ticker)]
		out := res.Values[columns[i]]
		for row := window - 1; row < len(r); row++ {
			out[row] = windowStdDev(r[row-window+1:row+1], buf)
		}
	}
	return res
}

func windowStdDev(window []null.Float, buf []float64) null.Float {
	for i, v := range window {
		if !v.Valid {
			return null.Float{}
		}
		buf[i] = v.Float64
	}

	// gonum uses the n-1 denominator
	sd := stat.StdDev(buf[:len(window)], nil)
	if math.IsNaN(sd) || math.IsInf(sd, 0) {
		return null.Float{}
	}
	return null.FloatFrom(sd)
}
