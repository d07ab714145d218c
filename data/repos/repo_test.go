package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/joho/godotenv"

	ex "findash/data/extensions"
	m "findash/data/models"
)

func Test_Base_CanGetConnectionAndPing(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.Ping(ctx); err != nil {
		t.Errorf("error pinging postgres database: %s", err)
	}
}

func Test_TickerMetadataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST"
	testMetadata := m.TickerMetadata{
		Symbol:        symbol,
		AssetGroup:    m.GroupEquities,
		LastRefreshed: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	exists, err := pg.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error determining if symbol exists for %s (should be false): %s", symbol, err)
	}
	if exists != nil {
		t.Fatalf("symbol %s has not been inserted yet, so it should not exist", symbol)
	}

	if err := pg.InsertTicker(ctx, &testMetadata, nil); err != nil {
		t.Fatalf("error inserting ticker metadata: %s", err)
	}
	if testMetadata.Id == 0 {
		t.Fatalf("id for test metadata failed to set properly")
	}
	defer pg.cleanup(t, ctx, testMetadata.Id)

	res, err := pg.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting ticker metadata by symbol: %s", err)
	}
	ex.AssertAreEqual(t, "id", testMetadata.Id, res.Id)
	ex.AssertAreEqual(t, "symbol", testMetadata.Symbol, res.Symbol)
	ex.AssertAreEqual(t, "asset group", testMetadata.AssetGroup, res.AssetGroup)
	if !testMetadata.LastRefreshed.Equal(res.LastRefreshed) {
		t.Fatalf("last refreshed time did not match, inserted %s, got back %s", testMetadata.LastRefreshed.Format(time.RFC3339), res.LastRefreshed.Format(time.RFC3339))
	}

	newRefresh := time.Date(2025, time.November, 7, 0, 0, 0, 0, time.UTC)
	if err := pg.UpdateLastRefreshedDate(ctx, symbol, newRefresh, nil); err != nil {
		t.Fatalf("error updating last refreshed date: %s", err)
	}
	res, err = pg.GetTickerBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting ticker metadata after update: %s", err)
	}
	if !newRefresh.Equal(res.LastRefreshed) {
		t.Fatalf("last refreshed was not updated, expected %s, got %s", newRefresh.Format(time.RFC3339), res.LastRefreshed.Format(time.RFC3339))
	}
}

func Test_TickerSeriesRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_TEST2"
	testMetadata := m.TickerMetadata{
		Symbol:        symbol,
		AssetGroup:    m.GroupCommodities,
		LastRefreshed: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.InsertTicker(ctx, &testMetadata, nil); err != nil {
		t.Fatalf("error inserting ticker metadata: %s", err)
	}
	defer pg.cleanup(t, ctx, testMetadata.Id)

	mrd, err := pg.GetMostRecentDateForSymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting most recent date for empty series: %s", err)
	}
	ex.AssertNillability(t, "most recent date", true, mrd)

	testSeries := []m.Observation{
		{Date: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC), Value: null.FloatFrom(104)},
		{Date: time.Date(2025, time.October, 24, 0, 0, 0, 0, time.UTC), Value: null.Float{}},
		{Date: time.Date(2025, time.October, 17, 0, 0, 0, 0, time.UTC), Value: null.FloatFrom(100)},
	}

	ct, err := pg.InsertTickerSeries(ctx, testMetadata.Id, testSeries, nil)
	if err != nil {
		t.Fatalf("error inserting ticker series: %s", err)
	}
	ex.AssertAreEqual(t, "inserted rows", int64(len(testSeries)), ct)

	obs, err := pg.GetTickerSeries(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting ticker series by symbol: %s", err)
	}
	ex.AssertAreEqual(t, "observation count", len(testSeries), len(obs))

	// stored out of order, read back ascending
	compareObservation(t, testSeries[2], obs[0])
	compareObservation(t, testSeries[1], obs[1])
	compareObservation(t, testSeries[0], obs[2])

	mrd, err = pg.GetMostRecentDateForSymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting most recent date: %s", err)
	}
	ex.AssertNillability(t, "most recent date", false, mrd)
	if !mrd.Equal(testSeries[0].Date) {
		t.Fatalf("most recent date mismatch, expected %s, got %s", testSeries[0].Date.Format(time.DateOnly), mrd.Format(time.DateOnly))
	}
}

func Test_PipelineRunRepo_CanInsertAndComplete(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)

	runId, err := pg.InsertPipelineRun(ctx, m.NewPipelineRun{
		Tickers:          []string{"_A", "_B"},
		StartDate:        time.Date(2011, time.January, 9, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2023, time.December, 24, 0, 0, 0, 0, time.UTC),
		VolatilityWindow: 4,
		ReturnKind:       "simple",
		FailurePolicy:    "skip",
	})
	if err != nil {
		t.Fatalf("error inserting pipeline run: %s", err)
	}
	defer func() {
		if _, err := pg.db.Exec(ctx, "DELETE FROM pipeline_run WHERE id = $1", runId); err != nil {
			t.Errorf("cleanup pipeline_run failed: %s", err)
		}
	}()

	if err := pg.UpdatePipelineRunAsFailure(ctx, runId, "   "); err == nil {
		t.Fatalf("expected blank failure message to be rejected")
	}
	if err := pg.UpdatePipelineRunAsSuccess(ctx, runId, []string{"_B"}); err != nil {
		t.Fatalf("error completing pipeline run: %s", err)
	}

	runs, err := pg.GetLatestPipelineRuns(ctx, 50)
	if err != nil {
		t.Fatalf("error getting latest pipeline runs: %s", err)
	}

	var found *m.PipelineRun
	for _, r := range runs {
		if r.Id == runId {
			found = r
		}
	}
	if found == nil {
		t.Fatalf("pipeline run %d not found in latest runs", runId)
	}
	ex.AssertAreEqual(t, "partial", true, found.Partial)
	ex.AssertAreEqual(t, "skipped tickers", 1, len(found.SkippedTickers))
	ex.AssertAreEqual(t, "completed", true, found.CompletedAt.Valid)
	ex.AssertAreEqual(t, "error message", false, found.ErrorMessage.Valid)
}

func compareObservation(t *testing.T, expected, actual m.Observation) {
	t.Helper()
	if !expected.Date.Equal(actual.Date) {
		t.Fatalf("value mismatch for date, expected %v, got %v", expected.Date.Format(time.DateOnly), actual.Date.Format(time.DateOnly))
	}
	ex.AssertAreEqual(t, "value validity", expected.Value.Valid, actual.Value.Valid)
	ex.AssertAreEqual(t, "value", expected.Value.Float64, actual.Value.Float64)
}

func getConnection(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()
	_ = godotenv.Load("../../.env")

	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL not set, skipping postgres tests")
	}

	res, err := GetPostgresConnection(ctx, connectionString)
	if err != nil {
		t.Fatalf("error getting postgres connection: %s", err)
	}
	if err := res.Migrate(ctx); err != nil {
		t.Fatalf("error applying migrations: %s", err)
	}

	t.Cleanup(func() {
		res.Close()
	})

	return res
}

func (pg *Postgres) cleanup(t *testing.T, ctx context.Context, id int32) {
	t.Helper()
	if err := pg.DeleteTicker(ctx, id); err != nil {
		t.Errorf("cleanup for ticker %d failed: %s", id, err)
	}
}
