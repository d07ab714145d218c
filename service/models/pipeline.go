package models

import (
	"time"

	"github.com/guregu/null/v6"

	dm "findash/data/models"
)

// TableResponse is a table flattened for json, null cells stay null
type TableResponse struct {
	Dates   []string                `json:"dates"`
	Columns []string                `json:"columns"`
	Values  map[string][]null.Float `json:"values"`
	Partial bool                    `json:"partial"`
	Skipped []string                `json:"skipped"`
}

type CorrelationResponse struct {
	Columns []string       `json:"columns"`
	Values  [][]null.Float `json:"values"`
	Partial bool           `json:"partial"`
	Skipped []string       `json:"skipped"`
}

type FailureResponse struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

type RunResponse struct {
	Id             int32      `json:"id"`
	Tickers        []string   `json:"tickers"`
	Partial        bool       `json:"partial"`
	SkippedTickers []string   `json:"skippedTickers"`
	ErrorMessage   *string    `json:"errorMessage"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

type StatusResponse struct {
	StartedAt        time.Time         `json:"startedAt"`
	CompletedAt      time.Time         `json:"completedAt"`
	StartDate        string            `json:"startDate"`
	EndDate          string            `json:"endDate"`
	VolatilityWindow int               `json:"volatilityWindow"`
	ReturnKind       string            `json:"returnKind"`
	FailurePolicy    string            `json:"failurePolicy"`
	FillPolicy       string            `json:"fillPolicy"`
	Tickers          []string          `json:"tickers"`
	Rows             int               `json:"rows"`
	Partial          bool              `json:"partial"`
	Failures         []FailureResponse `json:"failures"`
	LastError        string            `json:"lastError,omitempty"`
	Runs             []RunResponse     `json:"runs"`
}

func MapTableToResponse(t dm.Table, partial bool, skipped []string) TableResponse {
	dates := make([]string, len(t.Dates))
	for i, d := range t.Dates {
		dates[i] = d.Format(time.DateOnly)
	}

	return TableResponse{
		Dates:   dates,
		Columns: t.Columns,
		Values:  t.Values,
		Partial: partial,
		Skipped: skipped,
	}
}

func MapCorrelationToResponse(cm dm.CorrelationMatrix, partial bool, skipped []string) CorrelationResponse {
	return CorrelationResponse{
		Columns: cm.Columns,
		Values:  cm.Values,
		Partial: partial,
		Skipped: skipped,
	}
}

func MapPipelineRunToResponse(run *dm.PipelineRun) RunResponse {
	return RunResponse{
		Id:             run.Id,
		Tickers:        run.Tickers,
		Partial:        run.Partial,
		SkippedTickers: run.SkippedTickers,
		ErrorMessage:   run.ErrorMessage.Ptr(),
		CreatedAt:      run.CreatedAt,
		CompletedAt:    run.CompletedAt.Ptr(),
	}
}
