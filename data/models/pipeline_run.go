package models

import (
	"time"

	"github.com/guregu/null/v6"
)

type NewPipelineRun struct {
	Tickers          []string
	StartDate        time.Time
	EndDate          time.Time
	VolatilityWindow int
	ReturnKind       string
	FailurePolicy    string
}

type PipelineRun struct {
	Id               int32       `db:"id"`
	Tickers          []string    `db:"tickers"`
	StartDate        time.Time   `db:"start_date"`
	EndDate          time.Time   `db:"end_date"`
	VolatilityWindow int32       `db:"volatility_window"`
	ReturnKind       string      `db:"return_kind"`
	FailurePolicy    string      `db:"failure_policy"`
	Partial          bool        `db:"partial"`
	SkippedTickers   []string    `db:"skipped_tickers"`
	ErrorMessage     null.String `db:"error_message"`
	CreatedAt        time.Time   `db:"created_at"`
	CompletedAt      null.Time   `db:"completed_at"`
}
