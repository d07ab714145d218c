package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	m "findash/data/models"
)

// memStore is an in memory Store, a failed transaction restores the metadata and series it started with
type memStore struct {
	mu       sync.Mutex
	nextId   int32
	metadata map[string]*m.TickerMetadata
	series   map[int32][]m.Observation
	runs     []*m.PipelineRun
	failTx   bool
}

func newMemStore() *memStore {
	return &memStore{
		metadata: map[string]*m.TickerMetadata{},
		series:   map[int32][]m.Observation{},
	}
}

func (ms *memStore) GetTickerBySymbol(ctx context.Context, symbol string) (*m.TickerMetadata, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	md, ok := ms.metadata[symbol]
	if !ok {
		return nil, nil
	}
	cp := *md
	return &cp, nil
}

func (ms *memStore) GetTickerSeries(ctx context.Context, symbol string) ([]m.Observation, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	md, ok := ms.metadata[symbol]
	if !ok {
		return nil, nil
	}
	return append([]m.Observation(nil), ms.series[md.Id]...), nil
}

func (ms *memStore) GetAllTickers(ctx context.Context) ([]*m.TickerMetadata, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	res := make([]*m.TickerMetadata, 0, len(ms.metadata))
	for _, md := range ms.metadata {
		res = append(res, md)
	}
	return res, nil
}

func (ms *memStore) GetMostRecentDateForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	md, ok := ms.metadata[symbol]
	if !ok {
		return nil, nil
	}
	var latest *time.Time
	for _, o := range ms.series[md.Id] {
		if latest == nil || o.Date.After(*latest) {
			d := o.Date
			latest = &d
		}
	}
	return latest, nil
}

func (ms *memStore) InsertTicker(ctx context.Context, metadata *m.TickerMetadata, tx pgx.Tx) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.nextId++
	metadata.Id = ms.nextId
	cp := *metadata
	ms.metadata[metadata.Symbol] = &cp
	return nil
}

func (ms *memStore) InsertTickerSeries(ctx context.Context, sourceId int32, data []m.Observation, tx pgx.Tx) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.series[sourceId] = append(ms.series[sourceId], data...)
	return int64(len(data)), nil
}

func (ms *memStore) UpdateLastRefreshedDate(ctx context.Context, symbol string, lastRefreshed time.Time, tx pgx.Tx) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.failTx {
		return errors.New("update failed")
	}
	ms.metadata[symbol].LastRefreshed = lastRefreshed
	return nil
}

func (ms *memStore) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	ms.mu.Lock()
	metadata := make(map[string]*m.TickerMetadata, len(ms.metadata))
	for k, v := range ms.metadata {
		cp := *v
		metadata[k] = &cp
	}
	series := make(map[int32][]m.Observation, len(ms.series))
	for k, v := range ms.series {
		series[k] = append([]m.Observation(nil), v...)
	}
	ms.mu.Unlock()

	if err := fn(nil); err != nil {
		ms.mu.Lock()
		ms.metadata, ms.series = metadata, series
		ms.mu.Unlock()
		return err
	}
	return nil
}

func (ms *memStore) DeleteTicker(ctx context.Context, sourceId int32) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for symbol, md := range ms.metadata {
		if md.Id == sourceId {
			delete(ms.metadata, symbol)
		}
	}
	delete(ms.series, sourceId)
	return nil
}

func (ms *memStore) InsertPipelineRun(ctx context.Context, run m.NewPipelineRun) (int32, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	id := int32(len(ms.runs) + 1)
	ms.runs = append(ms.runs, &m.PipelineRun{Id: id, Tickers: run.Tickers, CreatedAt: time.Now()})
	return id, nil
}

func (ms *memStore) UpdatePipelineRunAsSuccess(ctx context.Context, runId int32, skippedTickers []string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	run := ms.runs[runId-1]
	run.Partial = len(skippedTickers) > 0
	run.SkippedTickers = skippedTickers
	run.CompletedAt.SetValid(time.Now())
	return nil
}

func (ms *memStore) UpdatePipelineRunAsFailure(ctx context.Context, runId int32, errorMessage string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	run := ms.runs[runId-1]
	run.ErrorMessage.SetValid(errorMessage)
	run.CompletedAt.SetValid(time.Now())
	return nil
}

func (ms *memStore) GetLatestPipelineRuns(ctx context.Context, limit int) ([]*m.PipelineRun, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	res := []*m.PipelineRun{}
	for i := len(ms.runs) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, ms.runs[i])
	}
	return res, nil
}
