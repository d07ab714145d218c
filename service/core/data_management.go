package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	ex "findash/data/extensions"
	m "findash/data/models"
	av "findash/service/api/alpha_vantage"
)

var (
	// ErrRecentlySynced stops a symbol from being pulled again within a week of its last refresh
	ErrRecentlySynced = errors.New("symbol was refreshed less than a week ago")

	ErrSyncUnavailable = errors.New("syncing needs both postgres and alpha vantage configured")

	ErrStoreUnavailable = errors.New("postgres is not configured")

	ErrTickerNotStored = errors.New("symbol is not stored in postgres")
)

type SyncResult struct {
	Symbol        string    `json:"symbol"`
	LastRefreshed time.Time `json:"lastRefreshed"`
	Fetched       int       `json:"fetched"`
	Inserted      int64     `json:"inserted"`
}

// SyncTickerSeries pulls the weekly series for a symbol from alpha vantage and stores the
// observations newer than what postgres already has, all in one transaction.
func (sc *ServiceContext) SyncTickerSeries(ctx context.Context, symbol string) (*SyncResult, error) {
	if sc.Store == nil || sc.AlphaVantageClient == nil {
		return nil, ErrSyncUnavailable
	}

	md, err := sc.Store.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("error determining if ticker exists in sync data: %w", err)
	}

	if md != nil {
		cutoffDate := time.Now().AddDate(0, 0, -7)
		if md.LastRefreshed.After(cutoffDate) {
			return nil, fmt.Errorf("%w: %s was refreshed on %s", ErrRecentlySynced, symbol, ex.FmtShort(md.LastRefreshed))
		}
	}

	mrd, err := sc.Store.GetMostRecentDateForSymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("error getting most recent date for symbol %s: %w", symbol, err)
	}

	tsr, err := sc.AlphaVantageClient.GetTimeSeries(ctx, av.TimeSeriesWeeklyAdjusted, symbol)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s from alpha vantage: %w", symbol, err)
	}

	toInsert := newerThan(toObservations(tsr.TimeSeries), mrd)

	// a new symbol is only stored together with its series, a failed sync leaves nothing behind
	var inserted int64
	err = sc.Store.WithTransaction(ctx, func(tx pgx.Tx) error {
		if md == nil {
			log.Info().Str("symbol", symbol).Msg("adding new symbol to db")
			md = &m.TickerMetadata{
				Symbol:        symbol,
				AssetGroup:    sc.Groups[symbol],
				LastRefreshed: tsr.Metadata.LastRefreshed,
			}
			if err := sc.Store.InsertTicker(ctx, md, tx); err != nil {
				return fmt.Errorf("error adding %s to db: %w", symbol, err)
			}
		}
		if len(toInsert) > 0 {
			n, err := sc.Store.InsertTickerSeries(ctx, md.Id, toInsert, tx)
			if err != nil {
				return fmt.Errorf("error inserting ticker series: %w", err)
			}
			inserted = n
		}
		return sc.Store.UpdateLastRefreshedDate(ctx, symbol, tsr.Metadata.LastRefreshed, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("error syncing symbol %s: %w", symbol, err)
	}

	log.Info().
		Str("symbol", symbol).
		Int("fetched", len(tsr.TimeSeries)).
		Int64("inserted", inserted).
		Msg("symbol synced from alpha vantage")

	return &SyncResult{
		Symbol:        symbol,
		LastRefreshed: tsr.Metadata.LastRefreshed,
		Fetched:       len(tsr.TimeSeries),
		Inserted:      inserted,
	}, nil
}

// StoredTickers lists the symbols synced into postgres so far
func (sc *ServiceContext) StoredTickers(ctx context.Context) ([]*m.TickerMetadata, error) {
	if sc.Store == nil {
		return nil, ErrStoreUnavailable
	}

	res, err := sc.Store.GetAllTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting stored tickers: %w", err)
	}
	return res, nil
}

// DeleteStoredTicker drops a symbol and all of its observations, it is synced from scratch next time
func (sc *ServiceContext) DeleteStoredTicker(ctx context.Context, symbol string) error {
	if sc.Store == nil {
		return ErrStoreUnavailable
	}

	md, err := sc.Store.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		return fmt.Errorf("error determining if ticker exists: %w", err)
	}
	if md == nil {
		return fmt.Errorf("%w: %s", ErrTickerNotStored, symbol)
	}

	if err := sc.Store.DeleteTicker(ctx, md.Id); err != nil {
		return fmt.Errorf("error deleting %s: %w", symbol, err)
	}

	log.Info().Str("symbol", symbol).Msg("symbol removed from db")
	return nil
}
