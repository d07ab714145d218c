package core

import (
	"fmt"
	"math"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	m "findash/data/models"
)

// CorrelationMatrix computes pairwise complete pearson correlation between the given columns.
// A pair with fewer than 2 shared observations, or no variance on either side, is null.
func CorrelationMatrix(t m.Table, columns []string) (m.CorrelationMatrix, error) {
	values := make([][]null.Float, len(columns))
	for i, c := range columns {
		col, ok := t.Column(c)
		if !ok {
			return m.CorrelationMatrix{}, fmt.Errorf("column %q does not exist", c)
		}
		values[i] = col
	}

	n := len(columns)
	res := m.CorrelationMatrix{
		Columns: append([]string(nil), columns...),
		Values:  make([][]null.Float, n),
	}
	for i := range res.Values {
		res.Values[i] = make([]null.Float, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := pairCorrelation(values[i], values[j])
			res.Values[i][j] = v
			res.Values[j][i] = v
		}
	}
	return res, nil
}

func pairCorrelation(a, b []null.Float) null.Float {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if a[i].Valid && b[i].Valid {
			x = append(x, a[i].Float64)
			y = append(y, b[i].Float64)
		}
	}
	if len(x) < 2 {
		return null.Float{}
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return null.Float{}
	}

	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return null.Float{}
	}
	// rounding can push a perfect correlation just past 1
	return null.FloatFrom(math.Max(-1, math.Min(1, c)))
}
