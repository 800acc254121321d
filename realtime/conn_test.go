package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-authkit/realtime"
)

func staticToken(token string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func TestConnSetAuthValidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validate", r.URL.Path)
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	conn := realtime.NewConn(server.URL)

	var authenticated bool
	conn.SetAuth(staticToken("good-token"), func(isAuthenticated bool) {
		authenticated = isAuthenticated
	})

	assert.True(t, authenticated)
}

func TestConnSetAuthRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	conn := realtime.NewConn(server.URL)

	authenticated := true
	conn.SetAuth(staticToken("stale-token"), func(isAuthenticated bool) {
		authenticated = isAuthenticated
	})

	assert.False(t, authenticated)
}

func TestConnSetAuthEmptyTokenSkipsValidation(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	conn := realtime.NewConn(server.URL)

	authenticated := true
	conn.SetAuth(staticToken(""), func(isAuthenticated bool) {
		authenticated = isAuthenticated
	})

	assert.False(t, authenticated)
	assert.Zero(t, requests)
}

func TestConnDoWithoutFetcher(t *testing.T) {
	conn := realtime.NewConn("http://localhost:0")

	err := conn.Do(context.Background(), http.MethodGet, "/tasks", nil, nil)
	assert.ErrorIs(t, err, authkit.ErrConnectionUnavailable)
}

func TestConnDoWithoutToken(t *testing.T) {
	conn := realtime.NewConn("http://localhost:0")
	conn.SetAuth(staticToken(""), nil)

	err := conn.Do(context.Background(), http.MethodGet, "/tasks", nil, nil)
	assert.ErrorIs(t, err, authkit.ErrUnauthenticated)
}

func TestConnListTasks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/validate" {
			w.WriteHeader(http.StatusOK)
			return
		}

		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "9f1c8e2a-0000-0000-0000-000000000001", "text": "first"},
			{"id": "9f1c8e2a-0000-0000-0000-000000000002", "text": "second"},
		})
	}))
	defer server.Close()

	conn := realtime.NewConn(server.URL)
	conn.SetAuth(staticToken("good-token"), nil)

	records, err := conn.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Text)
}

func TestConnCreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/validate" {
			w.WriteHeader(http.StatusOK)
			return
		}

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		payload := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "buy milk", payload["text"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "9f1c8e2a-0000-0000-0000-000000000003",
			"text": payload["text"],
		})
	}))
	defer server.Close()

	conn := realtime.NewConn(server.URL)
	conn.SetAuth(staticToken("good-token"), nil)

	record, err := conn.CreateTask(context.Background(), "buy milk")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", record.Text)
}

func TestConnDoServiceRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/validate" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"task belongs to another user"}`))
	}))
	defer server.Close()

	conn := realtime.NewConn(server.URL)
	conn.SetAuth(staticToken("good-token"), nil)

	_, err := conn.ToggleTask(context.Background(), "9f1c8e2a-0000-0000-0000-000000000001")
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, http.StatusForbidden, richErr.Code)
	assert.Equal(t, http.StatusForbidden, richErr.Metadata["status"])
}
