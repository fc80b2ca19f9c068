package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/models"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/types"
	"gorm.io/datatypes"
)

func projectAccess(p *models.Project) policy.Project {
	return policy.Project{OwnerID: p.OwnerID, MemberIDs: p.MemberIDs()}
}

func taskAccess(t *models.Task) policy.Task {
	return policy.Task{AssignedTo: t.AssignedToID}
}

func toUserResponse(u *models.User) types.UserResponse {
	return types.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func toUserSummary(u models.User) types.UserSummary {
	return types.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toTaskResponse(t models.Task) types.TaskResponse {
	resp := types.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     formatDate(t.DueDate),
		Project:     t.ProjectID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		resp.AssignedTo = &id
	}
	return resp
}

func toTaskView(t models.Task, users map[uuid.UUID]models.User) types.TaskView {
	view := types.TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     formatDate(t.DueDate),
		Project:     t.ProjectID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedToID != nil {
		if u, ok := users[*t.AssignedToID]; ok {
			summary := toUserSummary(u)
			view.AssignedTo = &summary
		}
	}
	return view
}

// toProjectResponse expands references using users. Member ids that do not
// resolve to a user are left out; an unresolved owner keeps its id.
func toProjectResponse(p *models.Project, users map[uuid.UUID]models.User) types.ProjectResponse {
	resp := types.ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Owner:       types.UserSummary{ID: p.OwnerID},
		Members:     []types.UserSummary{},
		Tasks:       []types.TaskView{},
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if owner, ok := users[p.OwnerID]; ok {
		resp.Owner = toUserSummary(owner)
	}
	for _, id := range p.MemberIDs() {
		if u, ok := users[id]; ok {
			resp.Members = append(resp.Members, toUserSummary(u))
		}
	}
	for _, t := range p.Tasks {
		resp.Tasks = append(resp.Tasks, toTaskView(t, users))
	}
	return resp
}

// referencedUsers lists every user id a set of projects points at.
func referencedUsers(projects ...*models.Project) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, p := range projects {
		add(p.OwnerID)
		for _, id := range p.MemberIDs() {
			add(id)
		}
		for _, t := range p.Tasks {
			if t.AssignedToID != nil {
				add(*t.AssignedToID)
			}
		}
	}
	return ids
}

func formatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).Format(types.DateLayout)
	return &s
}

// parseDueDate accepts a calendar date or an RFC 3339 timestamp and keeps
// only the calendar date. An empty string means no due date.
func parseDueDate(raw string) (*datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(types.DateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, apperr.Validation("Invalid dueDate %q: expected YYYY-MM-DD or RFC 3339", raw)
		}
	}

	y, m, d := t.Date()
	date := datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &date, nil
}

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := types.ParseID(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid %s: %v", field, err)
	}
	return &id, nil
}
