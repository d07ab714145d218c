package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client *http.Client
	scheme string
	host   string
}

type Client struct {
	Connection Connection
	ApiKey     string
}

func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	endpoint.Scheme = conn.scheme
	endpoint.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	return conn.client.Do(req)
}

// ClientFactory builds a client against baseUrl, e.g. https://www.alphavantage.co or an httptest server
func ClientFactory(baseUrl string, apiKey string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("error parsing base url %s: %w", baseUrl, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %s needs a scheme and a host", baseUrl)
	}

	clientHost := &ClientHost{
		client: &http.Client{Timeout: timeout},
		scheme: u.Scheme,
		host:   u.Host,
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}, nil
}

// ReadBody drains a response, anything other than a 2xx is returned as an error carrying the status
func ReadBody(response *http.Response) ([]byte, error) {
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return body, &StatusError{StatusCode: response.StatusCode}
	}
	return body, nil
}

type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
