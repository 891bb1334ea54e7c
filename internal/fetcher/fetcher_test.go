package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextread/backend/internal/fetcher"
)

func TestFetcher_Fetch(t *testing.T) {
	var userAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("work_id,original_title\n1,Dune\n"))
	}))
	defer ts.Close()

	f := fetcher.NewFetcher(5*time.Second, "NextRead-Test/1.0")
	res, err := f.Fetch(context.Background(), ts.URL+"/works.csv")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/csv", res.ContentType)
	assert.Equal(t, "work_id,original_title\n1,Dune\n", string(res.Body))
	assert.Equal(t, "NextRead-Test/1.0", userAgent)
	assert.False(t, res.FetchedAt.IsZero())
}

func TestFetcher_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := fetcher.NewFetcher(5*time.Second, "test")
	res, err := f.Fetch(context.Background(), ts.URL)
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestFetcher_HTMLLandingPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title> Sign in to download </title></head><body>nope</body></html>"))
	}))
	defer ts.Close()

	f := fetcher.NewFetcher(5*time.Second, "test")
	_, err := f.Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fetcher.ErrHTMLResponse))
	assert.Contains(t, err.Error(), "Sign in to download")
}

func TestFetcher_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	f := fetcher.NewFetcher(time.Second, "test")
	_, err := f.Fetch(context.Background(), url)
	assert.Error(t, err)
}
