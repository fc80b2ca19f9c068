// Package policy holds the authorization rules for projects and tasks. The
// functions are pure: callers load the resources and pass in what the rules
// need.
package policy

import (
	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/types"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == types.RoleAdmin
}

type Project struct {
	OwnerID   uuid.UUID
	MemberIDs []uuid.UUID
}

func (p Project) isOwner(id uuid.UUID) bool {
	return p.OwnerID == id
}

func (p Project) isMember(id uuid.UUID) bool {
	for _, m := range p.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

type Task struct {
	AssignedTo *uuid.UUID
}

func CanReadProject(actor Actor, project Project) bool {
	return actor.IsAdmin() || project.isOwner(actor.ID) || project.isMember(actor.ID)
}

// CanWriteProject covers metadata edits, deletion and membership management.
// Members are not allowed any of these.
func CanWriteProject(actor Actor, project Project) bool {
	return actor.IsAdmin() || project.isOwner(actor.ID)
}

func CanCreateTask(actor Actor, project Project) bool {
	return CanReadProject(actor, project)
}

func CanWriteTask(actor Actor, task Task, parent Project) bool {
	if CanReadProject(actor, parent) {
		return true
	}
	return task.AssignedTo != nil && *task.AssignedTo == actor.ID
}

func CanJoinRoom(actor Actor, project Project) bool {
	return CanReadProject(actor, project)
}
