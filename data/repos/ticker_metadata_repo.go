package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "findash/data/models"
	q "findash/data/queries"
)

// GetTickerBySymbol returns nil without an error when the symbol is not tracked yet
func (pg *Postgres) GetTickerBySymbol(ctx context.Context, symbol string) (*m.TickerMetadata, error) {
	sql := q.Get(q.QueryHelper.Select.TickerMetadataBySymbol)
	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	res, err := QuerySingle[m.TickerMetadata](ctx, pg, sql, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query ticker metadata by symbol (%s): %w", symbol, err)
	}

	return res, nil
}

func (pg *Postgres) GetAllTickers(ctx context.Context) ([]*m.TickerMetadata, error) {
	sql := q.Get(q.QueryHelper.Select.AllTickerMetadata)

	res, err := Query[m.TickerMetadata](ctx, pg, sql, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("unable to query ticker metadata: %w", err)
	}

	return res, nil
}

func (pg *Postgres) InsertTicker(ctx context.Context, metadata *m.TickerMetadata, tx pgx.Tx) error {
	sql := q.Get(q.QueryHelper.Insert.TickerMetadata)
	args := pgx.NamedArgs{
		"symbol":         metadata.Symbol,
		"asset_group":    metadata.AssetGroup,
		"last_refreshed": metadata.LastRefreshed,
	}

	if err := pg.queryRow(ctx, tx, sql, args).Scan(&metadata.Id); err != nil {
		return fmt.Errorf("error inserting ticker metadata for %s: %w", metadata.Symbol, err)
	}

	return nil
}

func (pg *Postgres) UpdateLastRefreshedDate(ctx context.Context, symbol string, lastRefreshed time.Time, tx pgx.Tx) error {
	sql := q.Get(q.QueryHelper.Update.LastRefreshedDate)
	args := pgx.NamedArgs{
		"last_refreshed": lastRefreshed,
		"symbol":         symbol,
	}

	if _, err := pg.exec(ctx, tx, sql, args); err != nil {
		return fmt.Errorf("error updating last refreshed date for %s: %w", symbol, err)
	}

	return nil
}

// DeleteTicker removes a ticker and every stored observation for it
func (pg *Postgres) DeleteTicker(ctx context.Context, sourceId int32) error {
	args := pgx.NamedArgs{"source_id": sourceId}
	return pg.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q.Get(q.QueryHelper.Delete.TickerSeriesBySourceId), args); err != nil {
			return fmt.Errorf("error deleting series for source %d: %w", sourceId, err)
		}
		if _, err := tx.Exec(ctx, q.Get(q.QueryHelper.Delete.TickerMetadataById), args); err != nil {
			return fmt.Errorf("error deleting ticker metadata %d: %w", sourceId, err)
		}
		return nil
	})
}
