package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	e "findash/data/extensions"
	m "findash/data/models"
	av "findash/service/api/alpha_vantage"
)

const (
	EnvPrefix = "FINDASH"

	SourceFile         = "file"
	SourcePostgres     = "postgres"
	SourceAlphaVantage = "alphavantage"
)

var (
	sourceKinds    = []string{SourceFile, SourcePostgres, SourceAlphaVantage}
	returnKinds    = []string{"simple", "log"}
	failurePolices = []string{"abort", "skip"}
	fillPolicies   = []string{"none", "ffill", "drop"}

	// layouts accepted for pipeline.start_date and pipeline.end_date
	dateLayouts = []string{time.DateOnly, "2006/01/02", "01/02/2006"}
)

type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Tickers   []TickerConfig  `mapstructure:"tickers"`
	Database  DatabaseConfig  `mapstructure:"database"`
	News      NewsConfig      `mapstructure:"news"`
	Server    ServerConfig    `mapstructure:"server"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type PipelineConfig struct {
	StartDate        string        `mapstructure:"start_date"`
	EndDate          string        `mapstructure:"end_date"`
	VolatilityWindow int           `mapstructure:"volatility_window"`
	ReturnKind       string        `mapstructure:"return_kind"`
	FailurePolicy    string        `mapstructure:"failure_policy"`
	FillPolicy       string        `mapstructure:"fill_policy"`
	LoadTimeout      time.Duration `mapstructure:"load_timeout"`
	Concurrency      int           `mapstructure:"concurrency"`
}

type SourcesConfig struct {
	Default      string             `mapstructure:"default"`
	File         FileSourceConfig   `mapstructure:"file"`
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
}

type FileSourceConfig struct {
	Dir          string `mapstructure:"dir"`
	DateColumn   string `mapstructure:"date_column"`
	ValueColumn  string `mapstructure:"value_column"`
	Delimiter    string `mapstructure:"delimiter"`
	DecimalComma bool   `mapstructure:"decimal_comma"`
	DateLayout   string `mapstructure:"date_layout"`
}

type AlphaVantageConfig struct {
	ApiKey            string        `mapstructure:"api_key"`
	Series            string        `mapstructure:"series"`
	BaseUrl           string        `mapstructure:"base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// TickerConfig overrides the source and the file columns for a single ticker, empty fields fall back to the defaults
type TickerConfig struct {
	Symbol      string `mapstructure:"symbol"`
	Group       string `mapstructure:"group"`
	Source      string `mapstructure:"source"`
	DateColumn  string `mapstructure:"date_column"`
	ValueColumn string `mapstructure:"value_column"`
}

type DatabaseConfig struct {
	Url string `mapstructure:"url"`
}

type NewsConfig struct {
	ApiKey   string        `mapstructure:"api_key"`
	BaseUrl  string        `mapstructure:"base_url"`
	Query    string        `mapstructure:"query"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads .env, then the yaml file at path (skipped when path is empty), then FINDASH_ prefixed environment overrides
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Tickers) == 0 {
		cfg.Tickers = DefaultTickers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// weekly window of the original dashboard
	v.SetDefault("pipeline.start_date", "2011-01-09")
	v.SetDefault("pipeline.end_date", "2023-12-24")
	v.SetDefault("pipeline.volatility_window", 4)
	v.SetDefault("pipeline.return_kind", "simple")
	v.SetDefault("pipeline.failure_policy", "abort")
	v.SetDefault("pipeline.fill_policy", "none")
	v.SetDefault("pipeline.load_timeout", "30s")
	v.SetDefault("pipeline.concurrency", 4)

	v.SetDefault("sources.default", SourceFile)
	v.SetDefault("sources.file.dir", "./data/raw")
	v.SetDefault("sources.file.date_column", "Date")
	v.SetDefault("sources.file.value_column", "Dernier Prix")
	v.SetDefault("sources.file.delimiter", ",")
	v.SetDefault("sources.file.decimal_comma", false)
	v.SetDefault("sources.file.date_layout", "")
	v.SetDefault("sources.alphavantage.api_key", "")
	v.SetDefault("sources.alphavantage.series", "weekly_adjusted")
	v.SetDefault("sources.alphavantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("sources.alphavantage.requests_per_minute", 5)
	v.SetDefault("sources.alphavantage.timeout", "30s")

	v.SetDefault("database.url", "")

	v.SetDefault("news.api_key", "")
	v.SetDefault("news.base_url", "https://newsapi.org")
	v.SetDefault("news.query", "bitcoin OR cryptocurrency")
	v.SetDefault("news.page_size", 10)
	v.SetDefault("news.timeout", "10s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("artifacts.dir", "./assets")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks enumerations and formats, range checks on the window and dates are left to the pipeline
func (c *Config) Validate() error {
	if _, err := c.StartDate(); err != nil {
		return err
	}
	if _, err := c.EndDate(); err != nil {
		return err
	}
	if !slices.Contains(returnKinds, c.Pipeline.ReturnKind) {
		return fmt.Errorf("pipeline.return_kind must be one of %v, got %q", returnKinds, c.Pipeline.ReturnKind)
	}
	if !slices.Contains(failurePolices, c.Pipeline.FailurePolicy) {
		return fmt.Errorf("pipeline.failure_policy must be one of %v, got %q", failurePolices, c.Pipeline.FailurePolicy)
	}
	if !slices.Contains(fillPolicies, c.Pipeline.FillPolicy) {
		return fmt.Errorf("pipeline.fill_policy must be one of %v, got %q", fillPolicies, c.Pipeline.FillPolicy)
	}
	if c.Pipeline.LoadTimeout <= 0 {
		return fmt.Errorf("pipeline.load_timeout must be positive")
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be at least 1")
	}

	if !slices.Contains(sourceKinds, c.Sources.Default) {
		return fmt.Errorf("sources.default must be one of %v, got %q", sourceKinds, c.Sources.Default)
	}
	if _, err := c.FileDelimiter(); err != nil {
		return err
	}
	if _, err := av.ParseTimeSeries(c.Sources.AlphaVantage.Series); err != nil {
		return fmt.Errorf("sources.alphavantage.series: %w", err)
	}
	if c.Sources.AlphaVantage.RequestsPerMinute < 1 {
		return fmt.Errorf("sources.alphavantage.requests_per_minute must be at least 1")
	}

	for i, t := range c.Tickers {
		if strings.TrimSpace(t.Symbol) == "" {
			return fmt.Errorf("tickers[%d].symbol is required", i)
		}
		if t.Source != "" && !slices.Contains(sourceKinds, t.Source) {
			return fmt.Errorf("tickers[%d].source must be one of %v, got %q", i, sourceKinds, t.Source)
		}
		if t.Group != "" && !slices.Contains(m.AssetGroups, t.Group) {
			return fmt.Errorf("tickers[%d].group must be one of %v, got %q", i, m.AssetGroups, t.Group)
		}
	}

	usesSource := func(kind string) bool {
		for _, t := range c.Tickers {
			if c.SourceFor(t) == kind {
				return true
			}
		}
		return false
	}
	if usesSource(SourcePostgres) && c.Database.Url == "" {
		return fmt.Errorf("database.url is required when a ticker is loaded from postgres")
	}
	if usesSource(SourceAlphaVantage) && c.Sources.AlphaVantage.ApiKey == "" {
		return fmt.Errorf("sources.alphavantage.api_key is required when a ticker is loaded from alpha vantage")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.News.PageSize < 1 || c.News.PageSize > 100 {
		return fmt.Errorf("news.page_size must be between 1 and 100")
	}

	return nil
}

func (c *Config) StartDate() (time.Time, error) {
	t, err := e.ParseDate(c.Pipeline.StartDate, dateLayouts)
	if err != nil {
		return time.Time{}, fmt.Errorf("pipeline.start_date: %w", err)
	}
	return t, nil
}

func (c *Config) EndDate() (time.Time, error) {
	t, err := e.ParseDate(c.Pipeline.EndDate, dateLayouts)
	if err != nil {
		return time.Time{}, fmt.Errorf("pipeline.end_date: %w", err)
	}
	return t, nil
}

// FileDelimiter is sources.file.delimiter as a csv field separator, ',' when empty
func (c *Config) FileDelimiter() (rune, error) {
	d := []rune(c.Sources.File.Delimiter)
	switch {
	case len(d) == 0:
		return ',', nil
	case len(d) > 1 || d[0] == '"' || d[0] == '\r' || d[0] == '\n' || d[0] == utf8.RuneError:
		return 0, fmt.Errorf("sources.file.delimiter must be a single character, got %q", c.Sources.File.Delimiter)
	}
	return d[0], nil
}

func (c *Config) Symbols() []string {
	res := make([]string, len(c.Tickers))
	for i, t := range c.Tickers {
		res[i] = t.Symbol
	}
	return res
}

// SourceFor resolves the source kind of a ticker, falling back to sources.default
func (c *Config) SourceFor(t TickerConfig) string {
	if t.Source != "" {
		return t.Source
	}
	return c.Sources.Default
}

// Groups maps every configured symbol to its asset group, tickers without one are left out
func (c *Config) Groups() map[string]string {
	res := make(map[string]string, len(c.Tickers))
	for _, t := range c.Tickers {
		if t.Group != "" {
			res[t.Symbol] = t.Group
		}
	}
	return res
}
