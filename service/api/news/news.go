package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	m "findash/data/models"
	c "findash/service/api"
)

const (
	BaseUrlDefault = "https://newsapi.org"

	everythingPath  = "v2/everything"
	defaultTimeout  = 10 * time.Second
	defaultPageSize = 10

	// breaker opens after this many failures in a row and probes again after breakerCooldown
	breakerFailures = 3
	breakerCooldown = time.Minute
)

var (
	ErrMissingApiKey = errors.New("news api key is not configured")
	ErrProvider      = errors.New("news provider returned an error")
)

type Settings struct {
	BaseUrl  string
	ApiKey   string
	Query    string
	PageSize int
	Timeout  time.Duration
}

type NewsClient struct {
	*c.Client
	query    string
	pageSize int
	breaker  *gobreaker.CircuitBreaker
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Url         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func NewClient(s Settings) (*NewsClient, error) {
	if s.BaseUrl == "" {
		s.BaseUrl = BaseUrlDefault
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.PageSize <= 0 {
		s.PageSize = defaultPageSize
	}

	client, err := c.ClientFactory(s.BaseUrl, s.ApiKey, s.Timeout)
	if err != nil {
		return nil, err
	}

	st := gobreaker.Settings{Name: "news"}
	st.Timeout = breakerCooldown
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= breakerFailures }
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
	}

	return &NewsClient{
		Client:   client,
		query:    s.Query,
		pageSize: s.PageSize,
		breaker:  gobreaker.NewCircuitBreaker(st),
	}, nil
}

// FetchLatestNews returns the newest articles for the configured query, most recent first.
// A missing key fails without touching the network.
func (nc *NewsClient) FetchLatestNews(ctx context.Context) ([]m.NewsArticle, error) {
	if strings.TrimSpace(nc.ApiKey) == "" {
		return nil, ErrMissingApiKey
	}

	res, err := nc.breaker.Execute(func() (interface{}, error) {
		return nc.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching latest news: %w", err)
	}

	return res.([]m.NewsArticle), nil
}

func (nc *NewsClient) fetch(ctx context.Context) ([]m.NewsArticle, error) {
	endpoint := &url.URL{Path: everythingPath}
	q := endpoint.Query()
	q.Set("q", nc.query)
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")
	q.Set("pageSize", strconv.Itoa(nc.pageSize))
	q.Set("apiKey", nc.ApiKey)
	endpoint.RawQuery = q.Encode()

	response, err := nc.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// newsapi sends a json error body with non 2xx statuses, so decode before judging the status
	body, statusErr := c.ReadBody(response)

	var parsed everythingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if statusErr != nil {
			return nil, statusErr
		}
		return nil, fmt.Errorf("error unmarshaling news response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("%w: %s %s", ErrProvider, parsed.Code, parsed.Message)
	}
	if statusErr != nil {
		return nil, statusErr
	}

	articles := make([]m.NewsArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		articles = append(articles, m.NewsArticle{
			Title:       a.Title,
			Summary:     a.Description,
			Link:        a.Url,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}

	return articles, nil
}
