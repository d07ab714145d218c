package repos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"findash/data/migrations"
)

const (
	maxConns = 10
	minConns = 2
)

type Postgres struct {
	db *pgxpool.Pool
}

func GetPostgresConnection(ctx context.Context, connectionString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("error parsing pgx connection string: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error making new pgx pool: %w", err)
	}

	return &Postgres{pool}, nil
}

func (pg *Postgres) GetTransaction(ctx context.Context) (pgx.Tx, error) {
	return pg.db.Begin(ctx)
}

func (pg *Postgres) Ping(ctx context.Context) error {
	return pg.db.Ping(ctx)
}

func (pg *Postgres) Close() {
	pg.db.Close()
}

// exec and queryRow run against the transaction when one is given, otherwise straight on the pool
func (pg *Postgres) exec(ctx context.Context, tx pgx.Tx, sql string, args pgx.NamedArgs) (pgconn.CommandTag, error) {
	if tx == nil {
		return pg.db.Exec(ctx, sql, args)
	}
	return tx.Exec(ctx, sql, args)
}

func (pg *Postgres) queryRow(ctx context.Context, tx pgx.Tx, sql string, args pgx.NamedArgs) pgx.Row {
	if tx == nil {
		return pg.db.QueryRow(ctx, sql, args)
	}
	return tx.QueryRow(ctx, sql, args)
}

func Query[T any](ctx context.Context, pg *Postgres, query string, args pgx.NamedArgs) ([]*T, error) {
	rows, err := pg.db.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query: %w", err)
	}
	defer rows.Close()

	res, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("error occured while collecting rows in query: %w", err)
	}

	result := make([]*T, len(res))
	for i := range res {
		result[i] = &res[i]
	}

	return result, nil
}

func QuerySingle[T any](ctx context.Context, pg *Postgres, query string, args pgx.NamedArgs) (*T, error) {
	res, err := Query[T](ctx, pg, query, args)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	if len(res) > 1 {
		return nil, fmt.Errorf("multiple results found")
	}

	return res[0], nil
}

// WithTransaction runs fn inside one transaction, committing only when fn returns nil
func (pg *Postgres) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := pg.GetTransaction(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema in one transaction, the scripts are idempotent so it runs on every start
func (pg *Postgres) Migrate(ctx context.Context) error {
	scripts, err := migrations.Scripts()
	if err != nil {
		return err
	}

	return pg.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, s := range scripts {
			if _, err := tx.Exec(ctx, s.Sql); err != nil {
				return fmt.Errorf("error applying migration %s: %w", s.Name, err)
			}
			log.Debug().Str("migration", s.Name).Msg("migration applied")
		}
		return nil
	})
}
