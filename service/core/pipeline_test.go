package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "findash/data/models"
)

func pipelineConfig(tickers ...string) PipelineConfig {
	return PipelineConfig{
		Tickers:          tickers,
		StartDate:        day(0),
		EndDate:          day(30),
		VolatilityWindow: 2,
		LoadTimeout:      time.Second,
		Concurrency:      2,
	}
}

func Test_RunPipeline_EndToEnd(t *testing.T) {
	src := newMemSource().
		with(series("A", fp(100), fp(110), fp(121))).
		with(&m.RawSeries{Ticker: "B", Observations: []m.Observation{
			{Date: day(0), Value: null.FloatFrom(50)},
			{Date: day(2), Value: null.FloatFrom(55)},
		}})

	res, err := RunPipeline(context.Background(), pipelineConfig("A", "B"), src)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Prices.Len())
	assert.Equal(t, []string{"A", "B"}, res.Tickers())
	assert.False(t, res.Partial)
	assert.Empty(t, res.Failures)

	assertColumn(t, "B", []*float64{fp(50), nil, fp(55)}, res.Prices.Values["B"])
	assertColumn(t, "A_returns", []*float64{nil, fp(0.10), fp(0.10)}, res.Returns.Values["A_returns"])
	assertColumn(t, "A_volatility", []*float64{nil, nil, fp(0)}, res.Volatility.Values["A_volatility"])
	assertColumn(t, "B_volatility", []*float64{nil, nil, nil}, res.Volatility.Values["B_volatility"])
}

func Test_RunPipeline_StartAfterEndFailsBeforeLoading(t *testing.T) {
	src := newMemSource().with(series("A", fp(1)))
	cfg := pipelineConfig("A")
	cfg.StartDate, cfg.EndDate = day(5), day(1)

	_, err := RunPipeline(context.Background(), cfg, src)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Equal(t, 0, src.totalCalls())
}

func Test_RunPipeline_InvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*PipelineConfig)
		sentinel error
	}{
		{"no tickers", func(c *PipelineConfig) { c.Tickers = nil }, ErrInvalidConfig},
		{"duplicate ticker", func(c *PipelineConfig) { c.Tickers = []string{"A", "A"} }, ErrInvalidConfig},
		{"blank ticker", func(c *PipelineConfig) { c.Tickers = []string{"A", " "} }, ErrInvalidConfig},
		{"window one", func(c *PipelineConfig) { c.VolatilityWindow = 1 }, ErrInvalidRange},
		{"unknown policy", func(c *PipelineConfig) { c.FailurePolicy = "retry" }, ErrInvalidConfig},
		{"unknown fill", func(c *PipelineConfig) { c.FillPolicy = "linear" }, ErrInvalidConfig},
		{"unknown kind", func(c *PipelineConfig) { c.ReturnKind = "excess" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newMemSource().with(series("A", fp(1)))
			cfg := pipelineConfig("A")
			tt.mutate(&cfg)

			_, err := RunPipeline(context.Background(), cfg, src)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, 0, src.totalCalls())
		})
	}
}

func Test_RunPipeline_AbortReturnsEveryFailureInOrder(t *testing.T) {
	src := newMemSource().
		with(series("A", fp(1), fp(2))).
		failing("B", sourceUnavailable("B", "file missing")).
		failing("C", schemaMismatch("C", "no Dernier Prix column"))

	res, err := RunPipeline(context.Background(), pipelineConfig("C", "A", "B"), src)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	msg := err.Error()
	assert.Less(t, strings.Index(msg, "ticker C"), strings.Index(msg, "ticker B"))
}

func Test_RunPipeline_SkipDropsFailedTickers(t *testing.T) {
	src := newMemSource().
		with(series("A", fp(1), fp(2))).
		with(series("C", fp(3), fp(4))).
		failing("B", sourceUnavailable("B", "file missing"))

	cfg := pipelineConfig("A", "B", "C")
	cfg.FailurePolicy = FailSkip

	res, err := RunPipeline(context.Background(), cfg, src)
	require.NoError(t, err)

	assert.True(t, res.Partial)
	assert.Equal(t, []string{"A", "C"}, res.Tickers())
	assert.Equal(t, []string{"B"}, res.SkippedTickers())
	assert.ErrorIs(t, res.Failures[0], ErrSourceUnavailable)
	assert.Equal(t, []string{"A_returns", "C_returns"}, res.Returns.Columns)
	assert.Equal(t, []string{"A_volatility", "C_volatility"}, res.Volatility.Columns)
}

func Test_RunPipeline_SkipWithEveryTickerFailing(t *testing.T) {
	src := newMemSource().
		failing("A", sourceUnavailable("A", "down")).
		failing("B", schemaMismatch("B", "bad"))

	cfg := pipelineConfig("A", "B")
	cfg.FailurePolicy = FailSkip

	_, err := RunPipeline(context.Background(), cfg, src)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func Test_RunPipeline_DuplicateDateYieldsNoTable(t *testing.T) {
	src := newMemSource().
		with(series("A", fp(1), fp(2))).
		with(&m.RawSeries{Ticker: "B", Observations: []m.Observation{
			{Date: day(1), Value: null.FloatFrom(1)},
			{Date: day(1), Value: null.FloatFrom(2)},
		}})

	cfg := pipelineConfig("A", "B")
	cfg.FailurePolicy = FailSkip

	res, err := RunPipeline(context.Background(), cfg, src)
	assert.Nil(t, res)

	var dde *DuplicateDateError
	require.True(t, errors.As(err, &dde), "got %v", err)
	assert.Equal(t, "B", dde.Ticker)
	assert.Equal(t, day(1), dde.Date)
}

func Test_RunPipeline_LoadTimeoutIsSourceUnavailable(t *testing.T) {
	src := newMemSource().with(series("A", fp(1), fp(2))).with(series("SLOW", fp(1)))
	src.delay["SLOW"] = time.Second

	cfg := pipelineConfig("A", "SLOW")
	cfg.LoadTimeout = 20 * time.Millisecond
	cfg.FailurePolicy = FailSkip

	res, err := RunPipeline(context.Background(), cfg, src)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "SLOW", res.Failures[0].Ticker)
	assert.ErrorIs(t, res.Failures[0], ErrSourceUnavailable)
}

func Test_RunPipeline_DeterministicUnderConcurrency(t *testing.T) {
	src := newMemSource()
	var tickers []string
	for i := range 12 {
		ticker := fmt.Sprintf("T%02d", i)
		tickers = append(tickers, ticker)
		src.with(series(ticker, fp(float64(i+1)), fp(float64(i+2)), fp(float64(i+4))))
		src.delay[ticker] = time.Duration(12-i) * time.Millisecond
	}

	cfg := pipelineConfig(tickers...)
	cfg.Concurrency = 5

	first, err := RunPipeline(context.Background(), cfg, src)
	require.NoError(t, err)
	second, err := RunPipeline(context.Background(), cfg, src)
	require.NoError(t, err)

	assert.Equal(t, tickers, first.Tickers())
	assert.Equal(t, first.Prices.Values, second.Prices.Values)
	assert.Equal(t, first.Volatility.Values, second.Volatility.Values)
}

func Test_RunPipeline_FillPolicyAppliedBeforeReturns(t *testing.T) {
	src := newMemSource().with(series("A", fp(100), nil, fp(121)))
	cfg := pipelineConfig("A")
	cfg.FillPolicy = FillForward

	res, err := RunPipeline(context.Background(), cfg, src)
	require.NoError(t, err)

	assertColumn(t, "A", []*float64{fp(100), fp(100), fp(121)}, res.Prices.Values["A"])
	assertColumn(t, "A_returns", []*float64{nil, fp(0), fp(0.21)}, res.Returns.Values["A_returns"])
}

func Test_RunPipeline_OutputDoesNotAliasSource(t *testing.T) {
	rs := series("A", fp(1), fp(2))
	src := SourceFunc(func(ctx context.Context, ticker string) (*m.RawSeries, error) { return rs, nil })

	res, err := RunPipeline(context.Background(), pipelineConfig("A"), src)
	require.NoError(t, err)

	rs.Observations[0].Value = null.FloatFrom(999)
	assertCell(t, "A", 0, fp(1), res.Prices.Values["A"][0])
}
