package alpha_vantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	e "findash/data/extensions"
	m "findash/data/models"
	c "findash/service/api"
)

// public
const (
	BaseUrlDefault           = "https://www.alphavantage.co"
	RequestsPerMinuteDefault = 5
)

var (
	// ErrApiMessage is returned when the api answers with a note or an error message instead of data, usually the rate limit
	ErrApiMessage = errors.New("alpha vantage returned a message instead of data")

	// ErrMissingTimeSeries is returned when the response has no block for the requested series
	ErrMissingTimeSeries = errors.New("alpha vantage response has no time series")
)

// private
const (
	defaultOutputSize = "full"
	defaultDataType   = "json"
	defaultTimeout    = time.Second * 30

	// api request elements
	query    = "query"
	symbol   = "symbol"
	function = "function"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	messageKeys = []string{"Note", "Information", "Error Message"}
)

type AlphaVantageClient struct {
	*c.Client
	limiter *rate.Limiter
}

// GetClient builds a client for the public api, limited to the free tier
func GetClient(apiKey string) (*AlphaVantageClient, error) {
	return NewClient(BaseUrlDefault, apiKey, RequestsPerMinuteDefault, defaultTimeout)
}

func NewClient(baseUrl, apiKey string, requestsPerMinute int, timeout time.Duration) (*AlphaVantageClient, error) {
	if requestsPerMinute < 1 {
		return nil, fmt.Errorf("requests per minute must be at least 1, got %d", requestsPerMinute)
	}

	client, err := c.ClientFactory(baseUrl, apiKey, timeout)
	if err != nil {
		return nil, err
	}

	return &AlphaVantageClient{
		Client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}, nil
}

// https://www.alphavantage.co/documentation/#time-series-data
func (avc *AlphaVantageClient) GetTimeSeries(ctx context.Context, ts TimeSeries, ticker string) (*m.TimeSeriesResult, error) {
	if ts.Function() == "" {
		return nil, fmt.Errorf("unknown time series %d", ts)
	}

	if err := avc.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting on alpha vantage rate limit: %w", err)
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function: ts.Function(),
		symbol:   ticker,
	})

	start := time.Now()
	response, err := avc.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s for %s: %w", ts.Name(), ticker, err)
	}

	body, err := c.ReadBody(response)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s for %s: %w", ts.Name(), ticker, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if msg, ok := apiMessage(raw); ok {
		return nil, fmt.Errorf("%w: %s", ErrApiMessage, msg)
	}

	metadata, timeZone, err := parseMetadata(raw)
	if err != nil {
		return nil, err
	}

	timeSeries, err := parseTimeSeries(raw, ts.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("ticker", ticker).
		Str("series", ts.Name()).
		Int("points", len(timeSeries)).
		Dur("elapsed", time.Since(start)).
		Msg("alpha vantage series fetched")

	return &m.TimeSeriesResult{
		Metadata:   metadata,
		TimeSeries: timeSeries,
	}, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = query

	q := endpoint.Query()
	q.Set("apikey", avc.ApiKey)
	q.Set("datatype", defaultDataType)
	q.Set("outputsize", defaultOutputSize)

	for key, value := range params {
		q.Set(key, value)
	}

	endpoint.RawQuery = q.Encode()

	return endpoint
}

func apiMessage(raw map[string]json.RawMessage) (string, bool) {
	for _, key := range messageKeys {
		if v, ok := raw[key]; ok {
			var msg string
			if err := json.Unmarshal(v, &msg); err != nil {
				msg = string(v)
			}
			return msg, true
		}
	}
	return "", false
}

func parseMetadata(raw map[string]json.RawMessage) (*m.TimeSeriesMetadata, *time.Location, error) {
	block, ok := raw["Meta Data"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no meta data block", ErrMissingTimeSeries)
	}

	var elements map[string]string
	if err := json.Unmarshal(block, &elements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	keys := slices.Collect(maps.Keys(elements))
	find := func(suffix string) (string, bool) {
		f := func(s string) bool { return strings.HasSuffix(strings.ToLower(s), suffix) }
		key, err := e.FilterSingle(keys, f)
		if err != nil {
			return "", false
		}
		return elements[key], true
	}

	sym, ok := find(". symbol")
	if !ok {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	tz, _ := find(". time zone")
	timeZone, err := getTimeZone(tz)
	if err != nil {
		return nil, nil, err
	}

	lr, ok := find(". last refreshed")
	if !ok {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}
	lastRefreshed, err := parseDate(lr, timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date: %w", err)
	}

	res := m.TimeSeriesMetadata{
		Symbol:        sym,
		LastRefreshed: lastRefreshed,
		TimeZone:      tz,
	}
	if info, ok := find(". information"); ok {
		res.Information = null.StringFrom(info)
	}
	if size, ok := find(". output size"); ok {
		res.OutputSize = null.StringFrom(size)
	}

	return &res, timeZone, nil
}

// parseTimeSeries returns the points sorted ascending by timestamp
func parseTimeSeries(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.TimeSeriesData, error) {
	block, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMissingTimeSeries, key)
	}

	var elements map[string]map[string]string
	if err := json.Unmarshal(block, &elements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	timeSeries := make([]*m.TimeSeriesData, 0, len(elements))
	for timestampKey, values := range elements {
		timestamp, err := parseDate(timestampKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting timestamp from string to time.Time: %w", err)
		}

		point := &m.TimeSeriesData{Timestamp: timestamp}
		for k, v := range values {
			// keys look like "5. adjusted close", the ordinal differs between functions
			_, name, found := strings.Cut(k, ". ")
			if !found {
				name = k
			}
			switch strings.ToLower(name) {
			case "open":
				point.Open = parseFloat(v)
			case "high":
				point.High = parseFloat(v)
			case "low":
				point.Low = parseFloat(v)
			case "close":
				point.Close = parseFloat(v)
			case "adjusted close":
				point.AdjustedClose = parseFloat(v)
			case "volume":
				point.Volume = parseFloat(v)
			case "dividend amount":
				point.DividendAmount = parseFloat(v)
			}
		}
		timeSeries = append(timeSeries, point)
	}

	sort.Slice(timeSeries, func(i, j int) bool {
		return timeSeries[i].Timestamp.Before(timeSeries[j].Timestamp)
	})

	return timeSeries, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	case "UTC", "":
		return time.UTC, nil
	default:
		log.Debug().Str("time_zone", location).Msg("time zone not recognized, defaulting to UTC")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation: %w", loc, err)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

// parseFloat leaves the value null when alpha vantage sends something that is not a number
func parseFloat(val string) null.Float {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
