package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"boxdharvest/lib/scrapers/letterboxd/pagecache"
	"boxdharvest/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func fastOptions(baseUrl string) ClientOptions {
	return ClientOptions{
		BaseUrl:     baseUrl,
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
		Delay:       time.Millisecond,
	}
}

func TestGet(t *testing.T) {
	defer telemetry.SetupForTesting(t, "letterboxd-core")()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/film/parasite-2019/", r.URL.Path)
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	client, err := NewClient(fastOptions(server.URL))
	require.NoError(t, err)

	body, err := client.Get(context.Background(), "/film/parasite-2019/")
	require.NoError(t, err)
	require.Equal(t, []byte("<html>ok</html>"), body)
}

func TestGetRetriesTransientFailures(t *testing.T) {
	defer telemetry.SetupForTesting(t, "letterboxd-core")()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client, err := NewClient(fastOptions(server.URL))
	require.NoError(t, err)

	body, err := client.Get(context.Background(), "/list/")
	require.NoError(t, err)
	require.Equal(t, []byte("recovered"), body)
	require.EqualValues(t, 3, calls.Load())
}

func TestGetExhaustsRetryBudget(t *testing.T) {
	defer telemetry.SetupForTesting(t, "letterboxd-core")()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(fastOptions(server.URL))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/film/missing/")
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, 3, ferr.Attempts)
	require.EqualValues(t, 3, calls.Load())
	require.ErrorContains(t, err, "HTTP 404")
}

func TestGetCancelledContext(t *testing.T) {
	defer telemetry.SetupForTesting(t, "letterboxd-core")()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	opts := fastOptions(server.URL)
	opts.BackoffBase = time.Minute
	client, err := NewClient(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()

	_, err = client.Get(ctx, "/film/slow/")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetReadThroughCache(t *testing.T) {
	defer telemetry.SetupForTesting(t, "letterboxd-core")()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	cache, err := pagecache.Open("", server.URL)
	require.NoError(t, err)
	defer cache.Close()

	opts := fastOptions(server.URL)
	opts.Cache = cache
	client, err := NewClient(opts)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := client.Get(ctx, "/film/cached/")
	require.NoError(t, err)
	second, err := client.Get(ctx, "/film/cached/")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, calls.Load())
}
