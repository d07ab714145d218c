package models

import "github.com/guregu/null/v6"

// CorrelationMatrix is symmetric, Values[i][j] pairs Columns[i] with Columns[j]
type CorrelationMatrix struct {
	Columns []string
	Values  [][]null.Float
}

func (cm CorrelationMatrix) Get(a, b string) (null.Float, bool) {
	i, j := -1, -1
	for idx, c := range cm.Columns {
		if c == a {
			i = idx
		}
		if c == b {
			j = idx
		}
	}
	if i < 0 || j < 0 {
		return null.Float{}, false
	}
	return cm.Values[i][j], true
}
