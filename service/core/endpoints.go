package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	ex "findash/data/extensions"
	dm "findash/data/models"
	sm "findash/service/models"
)

const (
	DefaultAddr = ":8080"

	runHistoryLimit = 10
)

type ServerSettings struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func GetHttpServer(sc *ServiceContext, settings ServerSettings) *http.Server {
	if settings.Addr == "" {
		settings.Addr = DefaultAddr
	}

	return &http.Server{
		Addr:           settings.Addr,
		Handler:        NewRouter(sc),
		ReadTimeout:    settings.ReadTimeout,
		WriteTimeout:   settings.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func NewRouter(sc *ServiceContext) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping)
		r.Get("/status", sc.status)
		r.Get("/tickers", sc.tickers)
		r.Get("/tickers/stored", sc.storedTickers)
		r.Get("/prices", sc.tableHandler(func(res *PipelineResult) dm.Table { return res.Prices }, func(t string) string { return t }))
		r.Get("/returns", sc.tableHandler(func(res *PipelineResult) dm.Table { return res.Returns }, dm.ReturnsColumn))
		r.Get("/volatility", sc.tableHandler(func(res *PipelineResult) dm.Table { return res.Volatility }, dm.VolatilityColumn))
		r.Get("/correlation", sc.correlation)
		r.Get("/groups", sc.groups)
		r.Get("/news", sc.news)
		r.Get("/artifacts", artifacts)
		r.Get("/artifacts/{name}", sc.artifact)
		r.Post("/refresh", sc.refresh)
		r.Post("/tickers/{symbol}/sync", sc.sync)
		r.Delete("/tickers/{symbol}", sc.deleteTicker)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}

func ping(w http.ResponseWriter, r *http.Request) {
	writeOk(w, &map[string]string{"message": "pong"})
}

func (sc *ServiceContext) status(w http.ResponseWriter, r *http.Request) {
	res, err := sc.Latest()
	if err != nil {
		writeError(w, err)
		return
	}

	failures := make([]sm.FailureResponse, len(res.Failures))
	for i, f := range res.Failures {
		failures[i] = sm.FailureResponse{Ticker: f.Ticker, Error: f.Err.Error()}
	}

	runs, err := sc.RunHistory(r.Context(), runHistoryLimit)
	if err != nil {
		log.Warn().Err(err).Msg("could not read run history")
	}
	runResponses := make([]sm.RunResponse, len(runs))
	for i, run := range runs {
		runResponses[i] = sm.MapPipelineRunToResponse(run)
	}

	body := sm.StatusResponse{
		StartedAt:        res.StartedAt,
		CompletedAt:      res.CompletedAt,
		StartDate:        ex.FmtShort(res.Config.StartDate),
		EndDate:          ex.FmtShort(res.Config.EndDate),
		VolatilityWindow: res.Config.VolatilityWindow,
		ReturnKind:       string(res.Config.ReturnKind),
		FailurePolicy:    string(res.Config.FailurePolicy),
		FillPolicy:       string(res.Config.FillPolicy),
		Tickers:          res.Tickers(),
		Rows:             res.Prices.Len(),
		Partial:          res.Partial,
		Failures:         failures,
		Runs:             runResponses,
	}
	if lastErr := sc.LastError(); lastErr != nil {
		body.LastError = lastErr.Error()
	}

	writeOk(w, &body)
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Group  string `json:"group"`
}

func (sc *ServiceContext) tickers(w http.ResponseWriter, r *http.Request) {
	res, err := sc.Latest()
	if err != nil {
		writeError(w, err)
		return
	}

	body := make([]tickerResponse, len(res.Tickers()))
	for i, t := range res.Tickers() {
		body[i] = tickerResponse{Symbol: t, Group: sc.Groups[t]}
	}
	writeOk(w, &body)
}

type storedTickerResponse struct {
	Symbol        string    `json:"symbol"`
	Group         string    `json:"group"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}

func (sc *ServiceContext) storedTickers(w http.ResponseWriter, r *http.Request) {
	stored, err := sc.StoredTickers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	body := make([]storedTickerResponse, len(stored))
	for i, md := range stored {
		body[i] = storedTickerResponse{Symbol: md.Symbol, Group: md.AssetGroup, LastRefreshed: md.LastRefreshed}
	}
	writeOk(w, &body)
}

// tableHandler serves a subset of one of the result tables, ?tickers=A,B picks the columns
func (sc *ServiceContext) tableHandler(pick func(*PipelineResult) dm.Table, column func(string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := sc.Latest()
		if err != nil {
			writeError(w, err)
			return
		}

		tickers, err := requestedTickers(r, res)
		if err != nil {
			writeError(w, err)
			return
		}

		columns := make([]string, len(tickers))
		for i, t := range tickers {
			columns[i] = column(t)
		}

		table, err := pick(res).Select(columns...)
		if err != nil {
			writeError(w, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
			return
		}

		body := sm.MapTableToResponse(table, res.Partial, res.SkippedTickers())
		writeOk(w, &body)
	}
}

func (sc *ServiceContext) correlation(w http.ResponseWriter, r *http.Request) {
	res, err := sc.Latest()
	if err != nil {
		writeError(w, err)
		return
	}

	tickers, err := requestedTickers(r, res)
	if err != nil {
		writeError(w, err)
		return
	}

	columns := make([]string, len(tickers))
	for i, t := range tickers {
		columns[i] = dm.ReturnsColumn(t)
	}

	cm, err := CorrelationMatrix(res.Returns, columns)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
		return
	}

	body := sm.MapCorrelationToResponse(cm, res.Partial, res.SkippedTickers())
	writeOk(w, &body)
}

func (sc *ServiceContext) groups(w http.ResponseWriter, r *http.Request) {
	res, err := sc.Latest()
	if err != nil {
		writeError(w, err)
		return
	}

	body := GroupTickers(res.Tickers(), sc.Groups)
	writeOk(w, &body)
}

func (sc *ServiceContext) news(w http.ResponseWriter, r *http.Request) {
	if sc.News == nil {
		writeJson(w, http.StatusServiceUnavailable, sm.GetServiceResponseError("news is not configured"))
		return
	}

	articles, err := sc.News.FetchLatestNews(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch the latest news")
		writeJson(w, http.StatusBadGateway, sm.GetServiceResponseError(err.Error()))
		return
	}
	writeOk(w, &articles)
}

func artifacts(w http.ResponseWriter, r *http.Request) {
	body := sm.Artifacts()
	writeOk(w, &body)
}

func (sc *ServiceContext) artifact(w http.ResponseWriter, r *http.Request) {
	a, ok := sm.FindArtifact(chi.URLParam(r, "name"))
	if !ok {
		writeJson(w, http.StatusNotFound, sm.GetServiceResponseError("unknown artifact"))
		return
	}

	path := filepath.Join(sc.ArtifactsDir, a.File)
	if _, err := os.Stat(path); err != nil {
		writeJson(w, http.StatusNotFound, sm.GetServiceResponseError(fmt.Sprintf("artifact %s is missing on disk", a.Name)))
		return
	}
	http.ServeFile(w, r, path)
}

func (sc *ServiceContext) refresh(w http.ResponseWriter, r *http.Request) {
	// the run outlives a dropped client, it still gets published
	ctx := context.WithoutCancel(r.Context())
	if _, err := sc.Refresh(ctx); err != nil {
		writeError(w, err)
		return
	}
	sc.status(w, r)
}

func (sc *ServiceContext) sync(w http.ResponseWriter, r *http.Request) {
	res, err := sc.SyncTickerSeries(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOk(w, res)
}

func (sc *ServiceContext) deleteTicker(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := sc.DeleteStoredTicker(r.Context(), symbol); err != nil {
		writeError(w, err)
		return
	}
	writeOk(w, &map[string]string{"deleted": symbol})
}

// requestedTickers reads ?tickers=A,B, all loaded tickers when absent. Unknown tickers are rejected.
func requestedTickers(r *http.Request, res *PipelineResult) ([]string, error) {
	requested := ex.SplitList(r.URL.Query().Get("tickers"))
	if len(requested) == 0 {
		return res.Tickers(), nil
	}

	known := make(map[string]struct{}, len(res.Tickers()))
	for _, t := range res.Tickers() {
		known[t] = struct{}{}
	}
	for _, t := range requested {
		if _, ok := known[t]; !ok {
			return nil, fmt.Errorf("%w: unknown ticker %s", ErrInvalidConfig, t)
		}
	}
	return requested, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoResult), errors.Is(err, ErrSyncUnavailable), errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrTickerNotStored):
		return http.StatusNotFound
	case errors.Is(err, ErrRecentlySynced):
		return http.StatusConflict
	case errors.Is(err, ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeOk[T any](w http.ResponseWriter, data *T) {
	writeJson(w, http.StatusOK, sm.GetServiceResponseOk(data))
}

func writeError(w http.ResponseWriter, err error) {
	writeJson(w, statusFor(err), sm.GetServiceResponseError(err.Error()))
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}
