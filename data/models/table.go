package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/guregu/null/v6"
)

// column suffixes the presentation layer relies on for lookups, changing these breaks the api
const (
	ReturnsSuffix    = "_returns"
	VolatilitySuffix = "_volatility"
)

// Table is a date indexed, column oriented frame. Dates are unique and strictly ascending,
// every column in Values has exactly len(Dates) cells, and Columns keeps the column order.
type Table struct {
	Dates   []time.Time
	Columns []string
	Values  map[string][]null.Float
}

func NewTable(dates []time.Time, columns []string) Table {
	t := Table{
		Dates:   dates,
		Columns: columns,
		Values:  make(map[string][]null.Float, len(columns)),
	}
	for _, c := range columns {
		t.Values[c] = make([]null.Float, len(dates))
	}
	return t
}

func (t Table) Len() int {
	return len(t.Dates)
}

func (t Table) Column(name string) ([]null.Float, bool) {
	v, ok := t.Values[name]
	return v, ok
}

// Select returns a copy restricted to the given columns in the given order
func (t Table) Select(columns ...string) (Table, error) {
	for _, c := range columns {
		if _, ok := t.Values[c]; !ok {
			return Table{}, fmt.Errorf("column %q does not exist", c)
		}
	}

	res := Table{
		Dates:   slices.Clone(t.Dates),
		Columns: slices.Clone(columns),
		Values:  make(map[string][]null.Float, len(columns)),
	}
	for _, c := range columns {
		res.Values[c] = slices.Clone(t.Values[c])
	}
	return res, nil
}

// Clone deep copies the table so callers can never reach back into the source
func (t Table) Clone() Table {
	res, _ := t.Select(t.Columns...)
	return res
}

// DefinedCount counts the non null cells of a column
func (t Table) DefinedCount(column string) int {
	n := 0
	for _, v := range t.Values[column] {
		if v.Valid {
			n++
		}
	}
	return n
}

func ReturnsColumn(ticker string) string {
	return ticker + ReturnsSuffix
}

func VolatilityColumn(ticker string) string {
	return ticker + VolatilitySuffix
}
