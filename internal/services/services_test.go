package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/teamboard-dev/teamboard/internal/auth"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/repository"
	"github.com/teamboard-dev/teamboard/internal/types"
	"golang.org/x/crypto/bcrypt"
)

type published struct {
	ProjectID uuid.UUID
	Event     string
	Payload   any
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(projectID uuid.UUID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{ProjectID: projectID, Event: event, Payload: payload})
}

func (r *recorder) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

type fixture struct {
	store    *repository.Store
	events   *recorder
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", 0)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	events := &recorder{}
	return &fixture{
		store:    store,
		events:   events,
		users:    NewUserService(store.Users, tokens, bcrypt.MinCost, nil),
		projects: NewProjectService(store, events, nil),
		tasks:    NewTaskService(store, events, nil),
	}
}

func (f *fixture) register(t *testing.T, name, email, role string) policy.Actor {
	t.Helper()
	resp, err := f.users.Register(context.Background(), types.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return policy.Actor{ID: resp.ID, Role: resp.Role}
}

func (f *fixture) project(t *testing.T, owner policy.Actor, title string, members ...uuid.UUID) *types.ProjectResponse {
	t.Helper()
	req := types.CreateProjectRequest{Title: title}
	if len(members) > 0 {
		list := types.IDList(members)
		req.Members = &list
	}
	p, err := f.projects.Create(context.Background(), owner, req)
	require.NoError(t, err)
	return p
}
