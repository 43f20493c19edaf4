package contextapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

func newTestClient(t *testing.T, baseURL string, attempts int) *Client {
	t.Helper()
	client, err := NewClient(config.APIConfig{
		BaseURL:       baseURL,
		Timeout:       2 * time.Second,
		RetryAttempts: attempts,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	client, err := NewClient(config.APIConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAPIBaseURL, client.cfg.BaseURL)
	assert.Equal(t, config.DefaultAPITimeout, client.cfg.Timeout)
	assert.Equal(t, config.DefaultAPIRetryAttempts, client.cfg.RetryAttempts)
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/context/ctx-42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"context": "prior conversation summary"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3)
	value, err := client.Fetch(context.Background(), "ctx-42")
	require.NoError(t, err)
	assert.Equal(t, "prior conversation summary", value)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"context": "recovered"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3)
	value, err := client.Fetch(context.Background(), "ctx-1")
	require.NoError(t, err)
	assert.Equal(t, "recovered", value)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2)
	_, err := client.Fetch(context.Background(), "ctx-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3)
	_, err := client.Fetch(context.Background(), "ctx-missing")
	require.ErrorIs(t, err, ErrContextNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RequiresContextID(t *testing.T) {
	client := newTestClient(t, "http://localhost:1", 1)
	_, err := client.Fetch(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context id is required")
}

func TestFetch_EscapesContextID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/context/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"context": "ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 1)
	_, err := client.Fetch(context.Background(), "a/b")
	require.NoError(t, err)
}
