package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	m "findash/data/models"
	q "findash/data/queries"
)

func (pg *Postgres) InsertPipelineRun(ctx context.Context, run m.NewPipelineRun) (int32, error) {
	sql := q.Get(q.QueryHelper.Insert.PipelineRun)
	args := pgx.NamedArgs{
		"tickers":           run.Tickers,
		"start_date":        run.StartDate,
		"end_date":          run.EndDate,
		"volatility_window": run.VolatilityWindow,
		"return_kind":       run.ReturnKind,
		"failure_policy":    run.FailurePolicy,
	}

	var runId int32
	if err := pg.db.QueryRow(ctx, sql, args).Scan(&runId); err != nil {
		return 0, fmt.Errorf("error inserting pipeline run: %w", err)
	}

	return runId, nil
}

func (pg *Postgres) UpdatePipelineRunAsFailure(ctx context.Context, runId int32, errorMessage string) error {
	cleanErrorMessage := strings.TrimSpace(errorMessage)
	if cleanErrorMessage == "" {
		return fmt.Errorf("error message is required if pipeline run is failing, occurred in %d", runId)
	}

	return pg.updatePipelineRun(ctx, pgx.NamedArgs{
		"id":              runId,
		"partial":         false,
		"skipped_tickers": []string{},
		"error_message":   cleanErrorMessage,
	})
}

// UpdatePipelineRunAsSuccess closes a run, skipped tickers make it partial
func (pg *Postgres) UpdatePipelineRunAsSuccess(ctx context.Context, runId int32, skippedTickers []string) error {
	if skippedTickers == nil {
		skippedTickers = []string{}
	}

	return pg.updatePipelineRun(ctx, pgx.NamedArgs{
		"id":              runId,
		"partial":         len(skippedTickers) > 0,
		"skipped_tickers": skippedTickers,
		"error_message":   nil,
	})
}

func (pg *Postgres) GetLatestPipelineRuns(ctx context.Context, limit int) ([]*m.PipelineRun, error) {
	sql := q.Get(q.QueryHelper.Select.LatestPipelineRuns)

	res, err := Query[m.PipelineRun](ctx, pg, sql, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("unable to query latest pipeline runs: %w", err)
	}

	return res, nil
}

func (pg *Postgres) updatePipelineRun(ctx context.Context, args pgx.NamedArgs) error {
	sql := q.Get(q.QueryHelper.Update.PipelineRun)
	if _, err := pg.exec(ctx, nil, sql, args); err != nil {
		return fmt.Errorf("error updating pipeline run: %w", err)
	}
	return nil
}
