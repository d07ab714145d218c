package core

import (
	"context"
	"errors"
	"time"

	ex "findash/data/extensions"
	m "findash/data/models"
	av "findash/service/api/alpha_vantage"
)

// SeriesStore is the slice of the postgres repo the pipeline reads from
type SeriesStore interface {
	GetTickerBySymbol(ctx context.Context, symbol string) (*m.TickerMetadata, error)
	GetTickerSeries(ctx context.Context, symbol string) ([]m.Observation, error)
}

// PostgresSource reads series previously synced into ticker_series
type PostgresSource struct {
	Store SeriesStore
}

func (ps *PostgresSource) Load(ctx context.Context, ticker string) (*m.RawSeries, error) {
	md, err := ps.Store.GetTickerBySymbol(ctx, ticker)
	if err != nil {
		return nil, sourceUnavailable(ticker, "%v", err)
	}
	if md == nil {
		return nil, sourceUnavailable(ticker, "symbol is not stored in postgres")
	}

	obs, err := ps.Store.GetTickerSeries(ctx, ticker)
	if err != nil {
		return nil, sourceUnavailable(ticker, "%v", err)
	}
	if len(obs) == 0 {
		return nil, sourceUnavailable(ticker, "no observations stored")
	}

	for i := range obs {
		obs[i].Date = ex.ToDate(obs[i].Date)
	}
	sortObservations(obs)

	return &m.RawSeries{Ticker: ticker, Observations: obs}, nil
}

// SeriesFetcher is what the pipeline needs from the alpha vantage client
type SeriesFetcher interface {
	GetTimeSeries(ctx context.Context, ts av.TimeSeries, ticker string) (*m.TimeSeriesResult, error)
}

// AlphaVantageSource loads prices straight from the api
type AlphaVantageSource struct {
	Client SeriesFetcher
	// Series is the frequency to request, weekly adjusted when unset
	Series av.TimeSeries
}

func (as *AlphaVantageSource) Load(ctx context.Context, ticker string) (*m.RawSeries, error) {
	series := as.Series
	if series == 0 {
		series = av.TimeSeriesWeeklyAdjusted
	}

	res, err := as.Client.GetTimeSeries(ctx, series, ticker)
	if errors.Is(err, av.ErrMissingTimeSeries) {
		return nil, schemaMismatch(ticker, "%v", err)
	}
	if err != nil {
		return nil, sourceUnavailable(ticker, "%v", err)
	}

	return &m.RawSeries{Ticker: ticker, Observations: toObservations(res.TimeSeries)}, nil
}

func toObservations(points []*m.TimeSeriesData) []m.Observation {
	obs := make([]m.Observation, len(points))
	for i, p := range points {
		obs[i] = m.Observation{Date: ex.ToDate(p.Timestamp), Value: p.Price()}
	}
	sortObservations(obs)
	return obs
}

// newerThan keeps the observations strictly after the cutoff, a nil cutoff keeps everything
func newerThan(obs []m.Observation, cutoff *time.Time) []m.Observation {
	if cutoff == nil {
		return obs
	}
	c := ex.ToDate(*cutoff)
	return ex.FilterMultiple(obs, func(o m.Observation) bool { return o.Date.After(c) })
}
