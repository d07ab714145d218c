package core

import (
	"fmt"

	"github.com/rs/zerolog/log"

	av "findash/service/api/alpha_vantage"
	"findash/service/config"
)

// BuildPipelineConfig turns the loaded configuration into pipeline settings
func BuildPipelineConfig(cfg *config.Config) (PipelineConfig, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	end, err := cfg.EndDate()
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	kind, err := ParseReturnKind(cfg.Pipeline.ReturnKind)
	if err != nil {
		return PipelineConfig{}, err
	}

	return PipelineConfig{
		Tickers:          cfg.Symbols(),
		StartDate:        start,
		EndDate:          end,
		VolatilityWindow: cfg.Pipeline.VolatilityWindow,
		ReturnKind:       kind,
		FailurePolicy:    FailurePolicy(cfg.Pipeline.FailurePolicy),
		FillPolicy:       FillPolicy(cfg.Pipeline.FillPolicy),
		LoadTimeout:      cfg.Pipeline.LoadTimeout,
		Concurrency:      cfg.Pipeline.Concurrency,
	}, nil
}

// BuildSource wires one source per configured kind and routes every ticker to its own.
// store and fetcher may be nil when the configuration never asks for them.
func BuildSource(cfg *config.Config, store SeriesStore, fetcher SeriesFetcher) (*SourceRouter, error) {
	files := NewFileSource(cfg.Sources.File.Dir)
	if cfg.Sources.File.DateColumn != "" {
		files.Columns.Date = cfg.Sources.File.DateColumn
	}
	if cfg.Sources.File.ValueColumn != "" {
		files.Columns.Value = cfg.Sources.File.ValueColumn
	}
	comma, err := cfg.FileDelimiter()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	files.Comma = comma
	files.DecimalComma = cfg.Sources.File.DecimalComma
	files.DateLayout = cfg.Sources.File.DateLayout

	sources := map[string]Source{config.SourceFile: files}
	if store != nil {
		sources[config.SourcePostgres] = &PostgresSource{Store: store}
	}
	if fetcher != nil {
		series, err := av.ParseTimeSeries(cfg.Sources.AlphaVantage.Series)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if !series.IsAdjusted() {
			log.Warn().Str("series", series.Name()).Msg("alpha vantage prices are not adjusted for splits and dividends, returns will jump on corporate actions")
		}
		sources[config.SourceAlphaVantage] = &AlphaVantageSource{Client: fetcher, Series: series}
	}

	router := &SourceRouter{PerTicker: make(map[string]Source, len(cfg.Tickers))}
	for _, t := range cfg.Tickers {
		kind := cfg.SourceFor(t)
		src, ok := sources[kind]
		if !ok {
			return nil, fmt.Errorf("%w: ticker %s wants source %s which is not configured", ErrInvalidConfig, t.Symbol, kind)
		}
		router.PerTicker[t.Symbol] = src

		if kind == config.SourceFile && (t.DateColumn != "" || t.ValueColumn != "") {
			files.Overrides[t.Symbol] = FileColumns{Date: t.DateColumn, Value: t.ValueColumn}
		}
	}

	router.Default = sources[cfg.Sources.Default]
	return router, nil
}
