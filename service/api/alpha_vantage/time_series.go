package alpha_vantage

import (
	"fmt"
	"strings"
)

// TimeSeries specifies a frequency to query for stock data.
type TimeSeries uint8

// zero is left unset so an empty struct field is never a valid series
const (
	TimeSeriesDaily TimeSeries = iota + 1
	TimeSeriesDailyAdjusted
	TimeSeriesWeekly
	TimeSeriesWeeklyAdjusted
	TimeSeriesMonthly
	TimeSeriesMonthlyAdjusted
)

type timeSeriesInfo struct {
	name     string
	function string
	key      string
	config   string
}

var timeSeriesLookup = map[TimeSeries]timeSeriesInfo{
	TimeSeriesDaily:           {"TimeSeriesDaily", "TIME_SERIES_DAILY", "Time Series (Daily)", "daily"},
	TimeSeriesDailyAdjusted:   {"TimeSeriesDailyAdjusted", "TIME_SERIES_DAILY_ADJUSTED", "Time Series (Daily)", "daily_adjusted"},
	TimeSeriesWeekly:          {"TimeSeriesWeekly", "TIME_SERIES_WEEKLY", "Weekly Time Series", "weekly"},
	TimeSeriesWeeklyAdjusted:  {"TimeSeriesWeeklyAdjusted", "TIME_SERIES_WEEKLY_ADJUSTED", "Weekly Adjusted Time Series", "weekly_adjusted"},
	TimeSeriesMonthly:         {"TimeSeriesMonthly", "TIME_SERIES_MONTHLY", "Monthly Time Series", "monthly"},
	TimeSeriesMonthlyAdjusted: {"TimeSeriesMonthlyAdjusted", "TIME_SERIES_MONTHLY_ADJUSTED", "Monthly Adjusted Time Series", "monthly_adjusted"},
}

func (t TimeSeries) Name() string {
	return timeSeriesLookup[t].name
}

func (t TimeSeries) Function() string {
	return timeSeriesLookup[t].function
}

// TimeSeriesKey is the top level json key holding the points
func (t TimeSeries) TimeSeriesKey() string {
	return timeSeriesLookup[t].key
}

func (t TimeSeries) IsAdjusted() bool {
	return strings.HasSuffix(t.Function(), "_ADJUSTED")
}

// ParseTimeSeries reads the config name of a series, "weekly_adjusted" for instance
func ParseTimeSeries(name string) (TimeSeries, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for ts, info := range timeSeriesLookup {
		if info.config == name {
			return ts, nil
		}
	}
	return 0, fmt.Errorf("unknown time series %q", name)
}
