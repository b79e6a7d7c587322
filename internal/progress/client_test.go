package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_PullProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/progress", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get("X-Session-Token"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []Record{
				{MediaID: "m1", PositionMs: 1000, UpdatedAt: ts(0)},
				{MediaID: "m2", PositionMs: 2000, UpdatedAt: ts(5)},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "tok-1")
	records, err := client.PullProgress(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "m1", records[0].MediaID)
	assert.Equal(t, int64(2000), records[1].PositionMs)
}

func TestHTTPClient_PullProgress_NonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "tok-1")
	_, err := client.PullProgress(context.Background())
	assert.Error(t, err)
}

func TestHTTPClient_PushProgress(t *testing.T) {
	var received struct {
		Records []Record `json:"records"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "tok-1")
	err := client.PushProgress(context.Background(), []Record{
		{MediaID: "m1", PositionMs: 1234, UpdatedAt: ts(0)},
	})
	require.NoError(t, err)
	require.Len(t, received.Records, 1)
	assert.Equal(t, int64(1234), received.Records[0].PositionMs)
}
