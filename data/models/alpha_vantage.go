package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type TimeSeriesResult struct {
	Metadata   *TimeSeriesMetadata
	TimeSeries []*TimeSeriesData
}

// mirrors the "Meta Data" block of an alpha vantage response, optional keys depend on the function called
type TimeSeriesMetadata struct {
	Information   null.String
	Symbol        string
	LastRefreshed time.Time
	Interval      null.String
	OutputSize    null.String
	TimeZone      string
}

type TimeSeriesData struct {
	Timestamp      time.Time
	Open           null.Float
	High           null.Float
	Low            null.Float
	Close          null.Float
	AdjustedClose  null.Float
	Volume         null.Float
	DividendAmount null.Float
}

// Price is the value the pipeline tracks, adjusted close when the series has it
func (d *TimeSeriesData) Price() null.Float {
	if d.AdjustedClose.Valid {
		return d.AdjustedClose
	}
	return d.Close
}
