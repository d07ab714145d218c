package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	ex "findash/data/extensions"
	m "findash/data/models"
)

type FailurePolicy string

const (
	FailAbort FailurePolicy = "abort"
	FailSkip  FailurePolicy = "skip"
)

const (
	DefaultLoadTimeout = 30 * time.Second
	DefaultConcurrency = 4
)

type PipelineConfig struct {
	Tickers          []string
	StartDate        time.Time
	EndDate          time.Time
	VolatilityWindow int
	ReturnKind       ReturnKind
	FailurePolicy    FailurePolicy
	FillPolicy       FillPolicy
	LoadTimeout      time.Duration
	Concurrency      int
}

// PipelineResult is read only once returned, every table is an owned copy
type PipelineResult struct {
	Config      PipelineConfig
	Prices      m.Table
	Returns     m.Table
	Volatility  m.Table
	Failures    []*TickerError
	Partial     bool
	StartedAt   time.Time
	CompletedAt time.Time
}

// Tickers are the columns that made it into the merged table, in configuration order
func (pr *PipelineResult) Tickers() []string {
	return pr.Prices.Columns
}

func (pr *PipelineResult) SkippedTickers() []string {
	res := make([]string, len(pr.Failures))
	for i, f := range pr.Failures {
		res[i] = f.Ticker
	}
	return res
}

func (cfg PipelineConfig) Validate() error {
	if cfg.StartDate.IsZero() || cfg.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRange)
	}
	if ex.ToDate(cfg.StartDate).After(ex.ToDate(cfg.EndDate)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, ex.FmtShort(cfg.StartDate), ex.FmtShort(cfg.EndDate))
	}
	if cfg.VolatilityWindow < 2 {
		return fmt.Errorf("%w: volatility window must be at least 2, got %d", ErrInvalidRange, cfg.VolatilityWindow)
	}
	if len(cfg.Tickers) == 0 {
		return fmt.Errorf("%w: no tickers configured", ErrInvalidConfig)
	}
	for _, t := range cfg.Tickers {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: blank ticker", ErrInvalidConfig)
		}
	}
	if dup, found := ex.FirstDuplicate(cfg.Tickers); found {
		return fmt.Errorf("%w: ticker %s is configured twice", ErrInvalidConfig, dup)
	}
	switch cfg.FailurePolicy {
	case FailAbort, FailSkip, "":
	default:
		return fmt.Errorf("%w: unknown failure policy %q", ErrInvalidConfig, cfg.FailurePolicy)
	}
	if _, err := ParseReturnKind(string(cfg.ReturnKind)); err != nil {
		return err
	}
	if _, err := cfg.FillPolicy.Apply(m.Table{}); err != nil {
		return err
	}
	return nil
}

// RunPipeline loads every ticker, applies the failure policy, merges on date and derives
// returns and volatility. The configuration is checked before any source is touched.
func RunPipeline(ctx context.Context, cfg PipelineConfig, src Source) (*PipelineResult, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailAbort
	}
	if cfg.ReturnKind == "" {
		cfg.ReturnKind = SimpleReturns
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}

	logger := log.With().Str("component", "pipeline").Logger()
	logger.Info().Int("tickers", len(cfg.Tickers)).Str("policy", string(cfg.FailurePolicy)).Msg("pipeline started")

	series, failures := loadAll(ctx, cfg, src)
	logger.Info().Int("loaded", len(series)).Int("failed", len(failures)).Dur("elapsed", time.Since(start)).Msg("sources loaded")

	if len(failures) > 0 {
		joined := joinFailures(failures)
		switch {
		case cfg.FailurePolicy == FailAbort:
			return nil, fmt.Errorf("aborting pipeline: %w", joined)
		case len(failures) == len(cfg.Tickers):
			return nil, fmt.Errorf("%w: every ticker failed: %w", ErrSourceUnavailable, joined)
		}
		for _, f := range failures {
			logger.Warn().Str("ticker", f.Ticker).Err(f.Err).Msg("ticker skipped")
		}
	}

	order := make([]string, 0, len(series))
	for _, t := range cfg.Tickers {
		if _, ok := series[t]; ok {
			order = append(order, t)
		}
	}

	merged, err := Merge(series, order, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("rows", merged.Len()).Dur("elapsed", time.Since(start)).Msg("series merged")

	prices, err := cfg.FillPolicy.Apply(merged)
	if err != nil {
		return nil, err
	}

	returns := CalculateReturns(prices, cfg.ReturnKind)
	volatility := rollingVolatility(returns, prices.Columns, cfg.VolatilityWindow)
	logger.Info().Dur("elapsed", time.Since(start)).Msg("returns and volatility calculated")

	return &PipelineResult{
		Config:      cfg,
		Prices:      prices,
		Returns:     returns,
		Volatility:  volatility,
		Failures:    failures,
		Partial:     len(failures) > 0,
		StartedAt:   start,
		CompletedAt: time.Now(),
	}, nil
}

// loadAll runs the loads with bounded concurrency, each writing to its own slot so the
// outcome never depends on scheduling. Failures come back in configuration order.
func loadAll(ctx context.Context, cfg PipelineConfig, src Source) (map[string]*m.RawSeries, []*TickerError) {
	loaded := make([]*m.RawSeries, len(cfg.Tickers))
	errs := make([]error, len(cfg.Tickers))

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for i, ticker := range cfg.Tickers {
		g.Go(func() error {
			loaded[i], errs[i] = loadWithTimeout(ctx, src, ticker, cfg.LoadTimeout)
			return nil
		})
	}
	_ = g.Wait()

	series := make(map[string]*m.RawSeries, len(cfg.Tickers))
	var failures []*TickerError
	for i, ticker := range cfg.Tickers {
		if errs[i] != nil {
			var te *TickerError
			if !errors.As(errs[i], &te) {
				te = &TickerError{Ticker: ticker, Err: errs[i]}
			}
			failures = append(failures, te)
			continue
		}
		rs := *loaded[i]
		rs.Ticker = ticker
		series[ticker] = &rs
	}
	return series, failures
}

func joinFailures(failures []*TickerError) error {
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}
