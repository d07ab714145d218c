package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	r "findash/data/repos"
	av "findash/service/api/alpha_vantage"
	"findash/service/api/news"
	"findash/service/config"
	c "findash/service/core"
	"findash/service/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("FINDASH_CONFIG"), "path to the yaml config file, defaults only when empty")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if _, err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	// listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := &c.ServiceContext{
		Groups:       cfg.Groups(),
		ArtifactsDir: cfg.Artifacts.Dir,
	}

	// postgres is optional, the interfaces stay nil without it
	var seriesStore c.SeriesStore
	if cfg.Database.Url != "" {
		pg, err := r.GetPostgresConnection(ctx, cfg.Database.Url)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database migrations")
		}

		sc.Store = pg
		seriesStore = pg
	}

	var fetcher c.SeriesFetcher
	if key := cfg.Sources.AlphaVantage.ApiKey; key != "" {
		avClient, err := av.NewClient(cfg.Sources.AlphaVantage.BaseUrl, key, cfg.Sources.AlphaVantage.RequestsPerMinute, cfg.Sources.AlphaVantage.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create alpha vantage client")
		}
		sc.AlphaVantageClient = avClient
		fetcher = avClient
	}

	newsClient, err := news.NewClient(news.Settings{
		BaseUrl:  cfg.News.BaseUrl,
		ApiKey:   cfg.News.ApiKey,
		Query:    cfg.News.Query,
		PageSize: cfg.News.PageSize,
		Timeout:  cfg.News.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create news client")
	}
	sc.News = newsClient

	if sc.Pipeline, err = c.BuildPipelineConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to build pipeline config")
	}
	if sc.Source, err = c.BuildSource(cfg, seriesStore, fetcher); err != nil {
		log.Fatal().Err(err).Msg("failed to build sources")
	}

	// a failed first run still starts the server, /api/refresh can retry it
	if _, err := sc.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("initial pipeline run failed")
	}

	s := c.GetHttpServer(sc, c.ServerSettings{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	go func() {
		log.Info().Str("addr", s.Addr).Msg("starting findash server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	log.Info().Msg("received shutdown signal, shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped successfully")
}
