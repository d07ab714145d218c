package queries

import (
	"embed"
	"fmt"
)

//go:embed delete/*.sql insert/*.sql select/*.sql update/*.sql
var Files embed.FS

// ^^^ the go:embed directive bakes the sql files into the binary at compile time,
// so the service does not need the queries folder next to it at runtime

type DeleteQueries struct {
	TickerMetadataById     string
	TickerSeriesBySourceId string
}

type InsertQueries struct {
	TickerMetadata string
	PipelineRun    string
}

type SelectQueries struct {
	AllTickerMetadata      string
	LatestPipelineRuns     string
	MostRecentDateBySymbol string
	TickerMetadataBySymbol string
	TickerSeriesBySymbol   string
}

type UpdateQueries struct {
	LastRefreshedDate string
	PipelineRun       string
}

type QueryHelperStruct struct {
	Delete DeleteQueries
	Insert InsertQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Delete: DeleteQueries{
		TickerMetadataById:     "delete/ticker_metadata_by_id.sql",
		TickerSeriesBySourceId: "delete/ticker_series_by_source_id.sql",
	},
	Insert: InsertQueries{
		TickerMetadata: "insert/ticker_metadata.sql",
		PipelineRun:    "insert/pipeline_run.sql",
	},
	Select: SelectQueries{
		AllTickerMetadata:      "select/all_ticker_metadata.sql",
		LatestPipelineRuns:     "select/latest_pipeline_runs.sql",
		MostRecentDateBySymbol: "select/most_recent_date_by_symbol.sql",
		TickerMetadataBySymbol: "select/ticker_metadata_by_symbol.sql",
		TickerSeriesBySymbol:   "select/ticker_series_by_symbol.sql",
	},
	Update: UpdateQueries{
		LastRefreshedDate: "update/last_refreshed_date.sql",
		PipelineRun:       "update/pipeline_run.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
