package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ClientFactory_RequestsAgainstBaseUrl(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("symbol")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := ClientFactory(srv.URL, "key", time.Second)
	require.NoError(t, err)

	endpoint := &url.URL{Path: "query", RawQuery: "symbol=IBM"}
	res, err := c.Connection.Request(context.Background(), endpoint)
	require.NoError(t, err)

	body, err := ReadBody(res)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
	assert.Equal(t, "/query", gotPath)
	assert.Equal(t, "IBM", gotQuery)
}

func Test_ReadBody_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := ClientFactory(srv.URL, "key", time.Second)
	require.NoError(t, err)

	res, err := c.Connection.Request(context.Background(), &url.URL{Path: "query"})
	require.NoError(t, err)

	_, err = ReadBody(res)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func Test_ClientFactory_RejectsRelativeUrl(t *testing.T) {
	_, err := ClientFactory("www.alphavantage.co", "key", time.Second)
	assert.Error(t, err)
}
