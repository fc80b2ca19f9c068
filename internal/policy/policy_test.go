package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/teamboard-dev/teamboard/internal/types"
)

// relation enumerates how an actor can relate to a project.
type relation struct {
	admin    bool
	owner    bool
	member   bool
	assignee bool
}

func allRelations() []relation {
	var out []relation
	for i := 0; i < 16; i++ {
		out = append(out, relation{
			admin:    i&1 != 0,
			owner:    i&2 != 0,
			member:   i&4 != 0,
			assignee: i&8 != 0,
		})
	}
	return out
}

func fixture(r relation) (Actor, Project, Task) {
	actor := Actor{ID: uuid.New(), Role: types.RoleMember}
	if r.admin {
		actor.Role = types.RoleAdmin
	}

	project := Project{OwnerID: uuid.New(), MemberIDs: []uuid.UUID{uuid.New(), uuid.New()}}
	if r.owner {
		project.OwnerID = actor.ID
	}
	if r.member {
		project.MemberIDs = append(project.MemberIDs, actor.ID)
	}

	other := uuid.New()
	task := Task{AssignedTo: &other}
	if r.assignee {
		task.AssignedTo = &actor.ID
	}
	return actor, project, task
}

func TestCanReadProject(t *testing.T) {
	for _, r := range allRelations() {
		actor, project, _ := fixture(r)
		want := r.admin || r.owner || r.member
		assert.Equal(t, want, CanReadProject(actor, project), "%+v", r)
		assert.Equal(t, want, CanCreateTask(actor, project), "%+v", r)
		assert.Equal(t, want, CanJoinRoom(actor, project), "%+v", r)
	}
}

func TestCanWriteProject(t *testing.T) {
	for _, r := range allRelations() {
		actor, project, _ := fixture(r)
		want := r.admin || r.owner
		assert.Equal(t, want, CanWriteProject(actor, project), "%+v", r)
	}
}

func TestCanWriteTask(t *testing.T) {
	for _, r := range allRelations() {
		actor, project, task := fixture(r)
		want := r.admin || r.owner || r.member || r.assignee
		assert.Equal(t, want, CanWriteTask(actor, task, project), "%+v", r)
	}
}

func TestCanWriteTaskUnassigned(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: types.RoleMember}
	project := Project{OwnerID: uuid.New()}

	assert.False(t, CanWriteTask(actor, Task{}, project))
}

func TestMemberCannotWriteProject(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: types.RoleMember}
	project := Project{OwnerID: uuid.New(), MemberIDs: []uuid.UUID{actor.ID}}

	assert.True(t, CanReadProject(actor, project))
	assert.False(t, CanWriteProject(actor, project))
}
