package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	ex "findash/data/extensions"
	m "findash/data/models"
)

const (
	DefaultDateColumn  = "Date"
	DefaultValueColumn = "Dernier Prix"
)

var (
	fileDateLayouts = []string{
		time.DateOnly,
		time.DateTime,
		"01/02/2006",
		"2006/01/02",
	}

	// cells that mean "nothing observed", compared case insensitively
	missingMarkers = []string{"", "#n/a", "n/a", "nan", "null"}

	// thousands are grouped with (narrow) no-break spaces in french number formats
	decimalCommaReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".")
)

// Source hands back the raw series for a single ticker, sorted ascending by date.
// Failures are *TickerError values wrapping ErrSourceUnavailable or ErrSchemaMismatch.
type Source interface {
	Load(ctx context.Context, ticker string) (*m.RawSeries, error)
}

// SourceFunc adapts a plain function to a Source
type SourceFunc func(ctx context.Context, ticker string) (*m.RawSeries, error)

func (f SourceFunc) Load(ctx context.Context, ticker string) (*m.RawSeries, error) {
	return f(ctx, ticker)
}

type FileColumns struct {
	Date  string
	Value string
}

// FileSource reads <Dir>/<ticker>.csv, one file per ticker
type FileSource struct {
	Dir     string
	Columns FileColumns
	// per ticker column names for files that do not follow the default layout
	Overrides map[string]FileColumns

	// Comma is the field delimiter, ',' when zero. French exports use ';'
	Comma rune
	// DecimalComma reads "2 050,5" as 2050.5
	DecimalComma bool
	// DateLayout replaces the default layouts when set, e.g. "02/01/2006" for day first dates
	DateLayout string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		Dir:       dir,
		Columns:   FileColumns{Date: DefaultDateColumn, Value: DefaultValueColumn},
		Overrides: map[string]FileColumns{},
	}
}

func (fs *FileSource) Load(ctx context.Context, ticker string) (*m.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, sourceUnavailable(ticker, "%v", err)
	}

	path := filepath.Join(fs.Dir, ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceUnavailable(ticker, "opening %s: %v", path, err)
	}
	defer f.Close()

	return fs.parse(ticker, f)
}

func (fs *FileSource) columnsFor(ticker string) FileColumns {
	cols := fs.Columns
	if o, ok := fs.Overrides[ticker]; ok {
		if o.Date != "" {
			cols.Date = o.Date
		}
		if o.Value != "" {
			cols.Value = o.Value
		}
	}
	return cols
}

func (fs *FileSource) parse(ticker string, r io.Reader) (*m.RawSeries, error) {
	reader := csv.NewReader(r)
	if fs.Comma != 0 {
		reader.Comma = fs.Comma
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, schemaMismatch(ticker, "file is empty")
	}
	if err != nil {
		return nil, sourceUnavailable(ticker, "reading header: %v", err)
	}

	layouts := fileDateLayouts
	if fs.DateLayout != "" {
		layouts = []string{fs.DateLayout}
	}

	cols := fs.columnsFor(ticker)
	dateIdx := headerIndex(header, cols.Date)
	valueIdx := headerIndex(header, cols.Value)
	if dateIdx < 0 || valueIdx < 0 {
		return nil, schemaMismatch(ticker, "expected columns %q and %q, found %v", cols.Date, cols.Value, header)
	}

	var obs []m.Observation
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sourceUnavailable(ticker, "reading line %d: %v", line, err)
		}
		if isBlank(record) {
			continue
		}
		if len(record) <= dateIdx || len(record) <= valueIdx {
			return nil, schemaMismatch(ticker, "line %d has %d fields", line, len(record))
		}

		date, err := ex.ParseDate(record[dateIdx], layouts)
		if err != nil {
			return nil, schemaMismatch(ticker, "line %d: %v", line, err)
		}

		value, err := parseCell(record[valueIdx], fs.DecimalComma)
		if err != nil {
			return nil, schemaMismatch(ticker, "line %d: %v", line, err)
		}

		obs = append(obs, m.Observation{Date: ex.ToDate(date), Value: value})
	}

	sortObservations(obs)
	return &m.RawSeries{Ticker: ticker, Observations: obs}, nil
}

func headerIndex(header []string, name string) int {
	return slices.IndexFunc(header, func(h string) bool {
		// excel exports sometimes lead with a byte order mark
		return ex.AreEqual(strings.TrimPrefix(h, "\ufeff"), name)
	})
}

func isBlank(record []string) bool {
	for _, r := range record {
		if strings.TrimSpace(r) != "" {
			return false
		}
	}
	return true
}

// parseCell turns a csv cell into a nullable value, markers for missing data become null
func parseCell(cell string, decimalComma bool) (null.Float, error) {
	cell = strings.TrimSpace(cell)
	if slices.Contains(missingMarkers, strings.ToLower(cell)) {
		return null.Float{}, nil
	}
	if decimalComma {
		cell = decimalCommaReplacer.Replace(cell)
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return null.Float{}, fmt.Errorf("value %q is not a number", cell)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return null.Float{}, nil
	}
	return null.FloatFrom(f), nil
}

// sortObservations is stable so duplicate dates stay visible to the merger
func sortObservations(obs []m.Observation) {
	slices.SortStableFunc(obs, func(a, b m.Observation) int {
		return a.Date.Compare(b.Date)
	})
}

// SourceRouter picks the source for each ticker, falling back to Default
type SourceRouter struct {
	Default   Source
	PerTicker map[string]Source
}

func (sr *SourceRouter) Load(ctx context.Context, ticker string) (*m.RawSeries, error) {
	if s, ok := sr.PerTicker[ticker]; ok && s != nil {
		return s.Load(ctx, ticker)
	}
	if sr.Default == nil {
		return nil, sourceUnavailable(ticker, "no source configured")
	}
	return sr.Default.Load(ctx, ticker)
}

// loadWithTimeout bounds a single load, a blown deadline is reported as an unavailable source
func loadWithTimeout(ctx context.Context, src Source, ticker string, timeout time.Duration) (*m.RawSeries, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		rs  *m.RawSeries
		err error
	}
	done := make(chan result, 1)
	go func() {
		rs, err := src.Load(ctx, ticker)
		done <- result{rs, err}
	}()

	select {
	case <-ctx.Done():
		return nil, sourceUnavailable(ticker, "load timed out: %v", ctx.Err())
	case res := <-done:
		if res.err != nil {
			var te *TickerError
			if !errors.As(res.err, &te) {
				return nil, sourceUnavailable(ticker, "%v", res.err)
			}
			return nil, res.err
		}
		if res.rs == nil {
			return nil, sourceUnavailable(ticker, "source returned no series")
		}
		return res.rs, nil
	}
}
