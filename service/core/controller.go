package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	m "findash/data/models"
)

// Refresh reruns the pipeline and swaps in the new result. A failed run keeps serving the
// previous result. Runs are recorded in pipeline_run when a store is configured.
func (sc *ServiceContext) Refresh(ctx context.Context) (*PipelineResult, error) {
	sc.refreshMu.Lock()
	defer sc.refreshMu.Unlock()

	start := time.Now()
	runId := sc.insertRun(ctx)

	res, err := RunPipeline(ctx, sc.Pipeline, sc.Source)
	sc.publish(res, err)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("pipeline run failed")
		sc.completeRun(ctx, runId, func() error { return sc.Store.UpdatePipelineRunAsFailure(ctx, runId, err.Error()) })
		return nil, err
	}

	sc.completeRun(ctx, runId, func() error { return sc.Store.UpdatePipelineRunAsSuccess(ctx, runId, res.SkippedTickers()) })
	log.Info().
		Int("tickers", len(res.Tickers())).
		Int("rows", res.Prices.Len()).
		Bool("partial", res.Partial).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run published")

	return res, nil
}

// run history is best effort, a database hiccup never fails the pipeline itself
func (sc *ServiceContext) insertRun(ctx context.Context) int32 {
	if sc.Store == nil {
		return 0
	}

	runId, err := sc.Store.InsertPipelineRun(ctx, m.NewPipelineRun{
		Tickers:          sc.Pipeline.Tickers,
		StartDate:        sc.Pipeline.StartDate,
		EndDate:          sc.Pipeline.EndDate,
		VolatilityWindow: sc.Pipeline.VolatilityWindow,
		ReturnKind:       string(sc.Pipeline.ReturnKind),
		FailurePolicy:    string(sc.Pipeline.FailurePolicy),
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not record pipeline run")
		return 0
	}
	return runId
}

func (sc *ServiceContext) completeRun(ctx context.Context, runId int32, update func() error) {
	if sc.Store == nil || runId == 0 {
		return
	}
	if err := update(); err != nil {
		log.Warn().Err(err).Int32("run_id", runId).Msg("could not complete pipeline run record")
	}
}

// RunHistory lists the latest recorded runs, empty without a store
func (sc *ServiceContext) RunHistory(ctx context.Context, limit int) ([]*m.PipelineRun, error) {
	if sc.Store == nil {
		return []*m.PipelineRun{}, nil
	}
	return sc.Store.GetLatestPipelineRuns(ctx, limit)
}
