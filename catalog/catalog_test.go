package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bilhete/models"
	"bilhete/rdx"
	"bilhete/upstream"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anyValue(expected, actual []interface{}) error { return nil }

func catalogBackend(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"events": []models.Event{
				{ID: "e1", Title: "Festival", Date: "2026-09-12"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func withMockRedis(t *testing.T) redismock.ClientMock {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	old := rdx.Conn
	rdx.Conn = rdb
	t.Cleanup(func() { rdx.Conn = old })
	return mock
}

func TestEventsFetchedOnceThenServedFromCache(t *testing.T) {
	hits := 0
	srv := catalogBackend(t, &hits)
	svc := NewService(upstream.NewWithBase(srv.URL))
	mock := withMockRedis(t)

	mock.ExpectGet("catalog:events").RedisNil()
	mock.CustomMatch(anyValue).ExpectSet("catalog:events", "", 60*time.Second).SetVal("OK")

	events, err := svc.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Festival", events[0].Title)
	assert.Equal(t, 1, hits)

	// second load hits the cache, not the backend
	cached, err := json.Marshal(events)
	require.NoError(t, err)
	mock.ExpectGet("catalog:events").SetVal(string(cached))

	events, err = svc.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, hits, "cached load must not reach the backend")
}

func TestEventsSurvivesCorruptCacheEntry(t *testing.T) {
	hits := 0
	srv := catalogBackend(t, &hits)
	svc := NewService(upstream.NewWithBase(srv.URL))
	mock := withMockRedis(t)

	mock.ExpectGet("catalog:events").SetVal("{not json")
	mock.CustomMatch(anyValue).ExpectSet("catalog:events", "", 60*time.Second).SetVal("OK")

	events, err := svc.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, hits, "corrupt cache entry falls through to the backend")
}
