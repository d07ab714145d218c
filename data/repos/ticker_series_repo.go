package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"

	m "findash/data/models"
	q "findash/data/queries"
)

// GetTickerSeries returns every stored observation for a symbol, ascending by date
func (pg *Postgres) GetTickerSeries(ctx context.Context, symbol string) ([]m.Observation, error) {
	sql := q.Get(q.QueryHelper.Select.TickerSeriesBySymbol)
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	res, err := Query[m.Observation](ctx, pg, sql, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query series by symbol (%s): %w", symbol, err)
	}

	obs := make([]m.Observation, len(res))
	for i, o := range res {
		obs[i] = *o
	}
	return obs, nil
}

// GetMostRecentDateForSymbol returns nil when nothing has been stored for the symbol
func (pg *Postgres) GetMostRecentDateForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	sql := q.Get(q.QueryHelper.Select.MostRecentDateBySymbol)
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	var mrd null.Time
	if err := pg.db.QueryRow(ctx, sql, args).Scan(&mrd); err != nil {
		return nil, fmt.Errorf("unable to query most recent date for %s: %w", symbol, err)
	}

	return mrd.Ptr(), nil
}

func (pg *Postgres) InsertTickerSeries(ctx context.Context, sourceId int32, data []m.Observation, tx pgx.Tx) (int64, error) {
	columns := []string{"source_id", "date", "value"}

	entries := make([][]any, len(data))
	for i, ent := range data {
		entries[i] = []any{sourceId, ent.Date, ent.Value}
	}

	if tx == nil {
		return pg.db.CopyFrom(ctx, pgx.Identifier{"ticker_series"}, columns, pgx.CopyFromRows(entries))
	}
	return tx.CopyFrom(ctx, pgx.Identifier{"ticker_series"}, columns, pgx.CopyFromRows(entries))
}
