package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Observation is one (date, value) pair, an invalid Value means there was no observation on that date
type Observation struct {
	Date  time.Time  `db:"date"`
	Value null.Float `db:"value"`
}

// RawSeries is what a source hands back for a single ticker, sorted ascending by date
type RawSeries struct {
	Ticker       string
	Observations []Observation
}

func (rs *RawSeries) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Observations)
}
