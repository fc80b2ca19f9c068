package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamboard-dev/teamboard/internal/types"
)

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not authorized to access this project"})
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("t")).GetProject(context.Background(), uuid.New())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Not authorized to access this project", apiErr.Message)
}

func TestClientSendsTokenAndKeepsLoginToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/users/login":
			_ = json.NewEncoder(w).Encode(types.AuthResponse{Token: "issued"})
		default:
			_ = json.NewEncoder(w).Encode(types.UserResponse{Name: "Ann"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	_, err := c.Login(context.Background(), "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "issued", c.Token())

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.Name)
	assert.Equal(t, []string{"", "Bearer issued"}, gotAuth)
}

func TestUpdateTaskSendsOnlyPresentFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(types.TaskResponse{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).UpdateTask(context.Background(), uuid.New(), types.UpdateTaskRequest{
		Status:     types.Some(types.TaskStatusDone),
		AssignedTo: types.Null[string](),
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"status": "done", "assignedTo": nil}, body)
}

func TestSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:3000/api/ws?token=a+b", New("http://localhost:3000", WithToken("a b")).SocketURL())
	assert.Equal(t, "wss://board.example.com/api/ws", New("https://board.example.com").SocketURL())
}
