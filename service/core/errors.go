package core

import (
	"errors"
	"fmt"
	"time"

	ex "findash/data/extensions"
)

var (
	// ErrSourceUnavailable means a ticker's backing data could not be read at all
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch means the data was read but the expected fields were missing or unparseable
	ErrSchemaMismatch = errors.New("schema mismatch")

	ErrDuplicateDate = errors.New("duplicate date")
	ErrInvalidRange  = errors.New("invalid range")
	ErrInvalidConfig = errors.New("invalid config")
)

// TickerError ties a load failure to the ticker it happened on, errors.Is sees through to the sentinel
type TickerError struct {
	Ticker string
	Err    error
}

func (e *TickerError) Error() string {
	return fmt.Sprintf("ticker %s: %v", e.Ticker, e.Err)
}

func (e *TickerError) Unwrap() error {
	return e.Err
}

type DuplicateDateError struct {
	Ticker string
	Date   time.Time
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("%s: ticker %s has more than one observation on %s", ErrDuplicateDate, e.Ticker, ex.FmtShort(e.Date))
}

func (e *DuplicateDateError) Is(target error) bool {
	return target == ErrDuplicateDate
}

func sourceUnavailable(ticker string, format string, args ...any) error {
	return &TickerError{Ticker: ticker, Err: fmt.Errorf("%w: %s", ErrSourceUnavailable, fmt.Sprintf(format, args...))}
}

func schemaMismatch(ticker string, format string, args ...any) error {
	return &TickerError{Ticker: ticker, Err: fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))}
}
