package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/types"
)

func memberIDs(p *types.ProjectResponse) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")

	p := f.project(t, a, "Sprint 1", b.ID, b.ID)

	assert.Equal(t, "Sprint 1", p.Title)
	assert.Equal(t, a.ID, p.Owner.ID)
	assert.Equal(t, "Ann", p.Owner.Name)
	assert.Equal(t, []uuid.UUID{b.ID}, memberIDs(p))
	assert.Empty(t, p.Tasks)
	assert.Empty(t, f.events.all())

	_, err := f.projects.Create(context.Background(), a, types.CreateProjectRequest{Title: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateProjectOmitsUnknownMembers(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")

	p := f.project(t, a, "Ghosts", uuid.New())
	assert.NotNil(t, p.Members)
	assert.Empty(t, p.Members)
}

func TestGetProjectAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	admin := f.register(t, "Root", "root@x.com", types.RoleAdmin)
	p := f.project(t, a, "Sprint 1")

	_, err := f.projects.Get(ctx, b, p.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Not authorized to access this project", apperr.Message(err))

	_, err = f.projects.Get(ctx, admin, p.ID)
	assert.NoError(t, err)

	_, err = f.projects.Get(ctx, a, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.projects.AddMember(ctx, a, p.ID, b.ID.String())
	require.NoError(t, err)

	got, err := f.projects.Get(ctx, b, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	admin := f.register(t, "Root", "root@x.com", types.RoleAdmin)

	first := f.project(t, a, "First")
	second := f.project(t, b, "Second", a.ID)
	f.project(t, b, "Third")

	mine, err := f.projects.List(ctx, a)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Equal(t, second.ID, mine[1].ID)

	all, err := f.projects.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	c := f.register(t, "Cid", "c@x.com", "")
	p := f.project(t, a, "Sprint 1", b.ID)

	_, err := f.projects.Update(ctx, b, p.ID, types.UpdateProjectRequest{Title: "Mine now"})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Not authorized to update this project", apperr.Message(err))

	_, err = f.projects.Update(ctx, a, p.ID, types.UpdateProjectRequest{Title: ""})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.projects.Update(ctx, a, p.ID, types.UpdateProjectRequest{
		Title:       "Sprint 2",
		Description: types.Some("next"),
		Members:     types.Some(types.IDList{c.ID}),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sprint 2", got.Title)
	assert.Equal(t, "next", got.Description)
	assert.Equal(t, []uuid.UUID{c.ID}, memberIDs(got))

	got, err = f.projects.Update(ctx, a, p.ID, types.UpdateProjectRequest{Title: "Sprint 3"})
	require.NoError(t, err)
	assert.Equal(t, "next", got.Description)
	assert.Equal(t, []uuid.UUID{c.ID}, memberIDs(got))

	got, err = f.projects.Update(ctx, a, p.ID, types.UpdateProjectRequest{
		Title:       "Sprint 3",
		Description: types.Some(""),
		Members:     types.Some(types.IDList{}),
	})
	require.NoError(t, err)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.Members)

	events := f.events.all()
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, types.EventProjectUpdated, e.Event)
		assert.Equal(t, p.ID, e.ProjectID)
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	p := f.project(t, a, "Sprint 1")

	once, err := f.projects.AddMember(ctx, a, p.ID, b.ID.String())
	require.NoError(t, err)
	twice, err := f.projects.AddMember(ctx, a, p.ID, b.ID.String())
	require.NoError(t, err)

	assert.Len(t, once.Members, len(p.Members)+1)
	assert.Len(t, twice.Members, len(p.Members)+1)

	events := f.events.all()
	require.Len(t, events, 2)
	assert.Equal(t, types.EventProjectUpdated, events[0].Event)
	payload, ok := events[0].Payload.(*types.ProjectResponse)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{b.ID}, memberIDs(payload))
}

func TestAddMemberErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	p := f.project(t, a, "Sprint 1")

	_, err := f.projects.AddMember(ctx, a, uuid.New(), b.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.projects.AddMember(ctx, b, p.ID, b.ID.String())
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Not authorized to add members to this project", apperr.Message(err))

	_, err = f.projects.AddMember(ctx, a, p.ID, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.projects.AddMember(ctx, a, p.ID, "nope")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	p := f.project(t, a, "Sprint 1", b.ID)

	_, err := f.projects.RemoveMember(ctx, a, p.ID, "nope")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.projects.RemoveMember(ctx, a, p.ID, b.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.Members)

	got, err = f.projects.RemoveMember(ctx, a, p.ID, b.ID.String())
	require.NoError(t, err)
	assert.Empty(t, got.Members)

	_, err = f.projects.Get(ctx, b, p.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	p := f.project(t, a, "Sprint 1", b.ID)

	var taskIDs []uuid.UUID
	for _, title := range []string{"one", "two", "three"} {
		task, err := f.tasks.Create(ctx, a, p.ID, types.CreateTaskRequest{Title: title})
		require.NoError(t, err)
		taskIDs = append(taskIDs, task.ID)
	}

	err := f.projects.Delete(ctx, b, p.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Not authorized to delete this project", apperr.Message(err))

	require.NoError(t, f.projects.Delete(ctx, a, p.ID))

	for _, id := range taskIDs {
		_, err := f.store.Tasks.FindByID(ctx, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}
	_, err = f.projects.Get(ctx, a, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	events := f.events.all()
	last := events[len(events)-1]
	assert.Equal(t, types.EventProjectDeleted, last.Event)
	assert.Equal(t, types.ProjectDeletedPayload{ID: p.ID}, last.Payload)
}

func TestAuthorizeRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")
	b := f.register(t, "Bob", "b@x.com", "")
	p := f.project(t, a, "Sprint 1")

	assert.NoError(t, f.projects.AuthorizeRoom(ctx, a, p.ID))
	assert.ErrorIs(t, f.projects.AuthorizeRoom(ctx, b, p.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, f.projects.AuthorizeRoom(ctx, a, uuid.New()), apperr.ErrNotFound)
}

func TestProjectDescriptionIsTrimmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com", "")

	p, err := f.projects.Create(ctx, a, types.CreateProjectRequest{Title: "Sprint 1", Description: "  goals  "})
	require.NoError(t, err)
	assert.Equal(t, "goals", p.Description)

	p, err = f.projects.Update(ctx, a, p.ID, types.UpdateProjectRequest{Title: "Sprint 1", Description: types.Some("   ")})
	require.NoError(t, err)
	assert.Empty(t, p.Description)
}
