package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchai186/commodity-price-tracker/internal/models"
)

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid username or password"}`)
			return
		}
		fmt.Fprint(w, `{"token":"tok-1","expires_at":"2026-08-26T06:00:00Z"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	resp, err := client.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "2026-08-26T06:00:00Z", resp.ExpiresAt)

	_, err = client.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestDispatchRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/v1/runs", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"run-7","trigger":"manual","status":"pending"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")

	run, err := client.DispatchRun(context.Background(), "ops")
	require.NoError(t, err)
	assert.Equal(t, "run-7", run.ID)
	assert.Equal(t, models.TriggerManual, run.Trigger)
}

func TestDispatchRunConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"a run is already in progress"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")

	_, err := client.DispatchRun(context.Background(), "")
	assert.ErrorIs(t, err, ErrRunActive)
}

func TestListRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/runs", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		require.Equal(t, "failed", r.URL.Query().Get("status"))

		fmt.Fprint(w, `{"runs":[{"id":"run-1","status":"failed"}],"total":1,"limit":5,"offset":0}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")

	list, err := client.ListRuns(context.Background(), 5, 0, "failed")
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "run-1", list.Runs[0].ID)
}

func TestGetRunNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"run not found"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")

	_, err := client.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/status", r.URL.Path)
		fmt.Fprint(w, `{
			"version": {"version":"1.2.3","commit":"abc","buildDate":"2026-08-01"},
			"runs": {"succeeded":4,"failed":1,"running":0,"pending":0},
			"active_run": null,
			"last_run": {"id":"run-3","status":"succeeded","report_date":"2026-08-24"},
			"next_scheduled_run": "2026-08-31T06:00:00Z"
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-1")

	status, err := client.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", status.Version.Version)
	assert.Equal(t, int64(4), status.Runs["succeeded"])
	assert.Empty(t, status.ActiveRun)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "run-3", status.LastRun.ID)
	assert.Equal(t, "2026-08-31T06:00:00Z", status.NextScheduledRun)
}
