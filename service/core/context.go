package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	m "findash/data/models"
)

// ErrNoResult is returned by Latest until the first pipeline run succeeds
var ErrNoResult = errors.New("no pipeline result available yet")

// Store is the part of the postgres repo the service uses, nil when no database is configured
type Store interface {
	SeriesStore
	GetAllTickers(ctx context.Context) ([]*m.TickerMetadata, error)
	GetMostRecentDateForSymbol(ctx context.Context, symbol string) (*time.Time, error)
	InsertTicker(ctx context.Context, metadata *m.TickerMetadata, tx pgx.Tx) error
	InsertTickerSeries(ctx context.Context, sourceId int32, data []m.Observation, tx pgx.Tx) (int64, error)
	UpdateLastRefreshedDate(ctx context.Context, symbol string, lastRefreshed time.Time, tx pgx.Tx) error
	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
	DeleteTicker(ctx context.Context, sourceId int32) error

	InsertPipelineRun(ctx context.Context, run m.NewPipelineRun) (int32, error)
	UpdatePipelineRunAsSuccess(ctx context.Context, runId int32, skippedTickers []string) error
	UpdatePipelineRunAsFailure(ctx context.Context, runId int32, errorMessage string) error
	GetLatestPipelineRuns(ctx context.Context, limit int) ([]*m.PipelineRun, error)
}

type NewsFetcher interface {
	FetchLatestNews(ctx context.Context) ([]m.NewsArticle, error)
}

type ServiceContext struct {
	Pipeline           PipelineConfig
	Source             Source
	Groups             map[string]string
	ArtifactsDir       string
	Store              Store
	AlphaVantageClient SeriesFetcher
	News               NewsFetcher

	refreshMu sync.Mutex // one pipeline run at a time

	mu      sync.RWMutex
	latest  *PipelineResult
	lastErr error
}

// Latest returns the last published result, which callers must treat as read only
func (sc *ServiceContext) Latest() (*PipelineResult, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if sc.latest == nil {
		if sc.lastErr != nil {
			return nil, errors.Join(ErrNoResult, sc.lastErr)
		}
		return nil, ErrNoResult
	}
	return sc.latest, nil
}

// LastError is the error of the most recent run, nil when it succeeded
func (sc *ServiceContext) LastError() error {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastErr
}

func (sc *ServiceContext) publish(res *PipelineResult, err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.lastErr = err
	if err == nil {
		sc.latest = res
	}
}
