// Package client is a Go client for the teamboard API: typed REST calls, a
// real-time subscription and a local store that keeps one project's view
// current.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/types"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("teamboard: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/users/register", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Login keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	req := types.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*types.UserResponse, error) {
	var resp types.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateProject(ctx context.Context, req types.CreateProjectRequest) (*types.ProjectResponse, error) {
	var resp types.ProjectResponse
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]types.ProjectResponse, error) {
	var resp []types.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*types.ProjectResponse, error) {
	var resp types.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateProject(ctx context.Context, id uuid.UUID, req types.UpdateProjectRequest) (*types.ProjectResponse, error) {
	var resp types.ProjectResponse
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id.String(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id.String(), nil, nil)
}

func (c *Client) AddMember(ctx context.Context, projectID, userID uuid.UUID) (*types.ProjectResponse, error) {
	var resp types.ProjectResponse
	req := types.AddMemberRequest{UserID: userID.String()}
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID.String()+"/members", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) (*types.ProjectResponse, error) {
	var resp types.ProjectResponse
	path := "/api/projects/" + projectID.String() + "/members/" + userID.String()
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID uuid.UUID, req types.CreateTaskRequest) (*types.TaskResponse, error) {
	var resp types.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID.String()+"/tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateTask(ctx context.Context, taskID uuid.UUID, req types.UpdateTaskRequest) (*types.TaskResponse, error) {
	var resp types.TaskResponse
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+taskID.String(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SocketURL is the websocket endpoint with the current token attached.
func (c *Client) SocketURL() string {
	u := c.baseURL + "/api/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	if token := c.Token(); token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
