package client

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/types"
)

// Store holds the local view of the project currently on screen and folds
// real-time events into it. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	project *types.ProjectResponse
	deleted bool
}

func NewStore() *Store {
	return &Store{}
}

// SetProject replaces the view with a freshly fetched project.
func (s *Store) SetProject(p types.ProjectResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Members = slices.Clone(p.Members)
	p.Tasks = slices.Clone(p.Tasks)
	s.project = &p
	s.deleted = false
}

// Project returns a copy of the current view, or nil when there is none.
func (s *Store) Project() *types.ProjectResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.project == nil {
		return nil
	}
	p := *s.project
	p.Members = slices.Clone(p.Members)
	p.Tasks = slices.Clone(p.Tasks)
	return &p
}

// Deleted reports whether the viewed project was deleted.
func (s *Store) Deleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted
}

// ApplyTask merges a task by id: new tasks are appended, known ones replaced.
// Tasks of other projects are ignored.
func (s *Store) ApplyTask(t types.TaskResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil || t.Project != s.project.ID {
		return
	}
	s.mergeTask(s.expand(t))
}

// Apply folds one server frame into the view. Frames for other projects and
// frames that carry no state are ignored.
func (s *Store) Apply(msg types.SocketMessage) error {
	switch msg.Event {
	case types.EventTaskCreated, types.EventTaskUpdated:
		var t types.TaskResponse
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Event, err)
		}
		s.ApplyTask(t)

	case types.EventProjectUpdated:
		var p types.ProjectResponse
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Event, err)
		}
		s.applyProject(p)

	case types.EventProjectDeleted:
		var payload types.ProjectDeletedPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Event, err)
		}
		s.mu.Lock()
		if s.project != nil && s.project.ID == payload.ID {
			s.project = nil
			s.deleted = true
		}
		s.mu.Unlock()
	}
	return nil
}

// applyProject takes metadata and membership from p and merges its tasks
// into the ones already known.
func (s *Store) applyProject(p types.ProjectResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil || p.ID != s.project.ID {
		return
	}
	tasks := s.project.Tasks
	s.project.Title = p.Title
	s.project.Description = p.Description
	s.project.Owner = p.Owner
	s.project.Members = slices.Clone(p.Members)
	s.project.UpdatedAt = p.UpdatedAt
	s.project.Tasks = tasks
	for _, t := range p.Tasks {
		s.mergeTask(t)
	}
}

func (s *Store) mergeTask(view types.TaskView) {
	i := slices.IndexFunc(s.project.Tasks, func(t types.TaskView) bool { return t.ID == view.ID })
	if i < 0 {
		s.project.Tasks = append(s.project.Tasks, view)
		return
	}
	s.project.Tasks[i] = view
}

// expand resolves the assignee against the people the view already knows.
func (s *Store) expand(t types.TaskResponse) types.TaskView {
	view := types.TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		Project:     t.Project,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != nil {
		summary := s.person(*t.AssignedTo)
		view.AssignedTo = &summary
	}
	return view
}

func (s *Store) person(id uuid.UUID) types.UserSummary {
	if s.project.Owner.ID == id {
		return s.project.Owner
	}
	for _, m := range s.project.Members {
		if m.ID == id {
			return m
		}
	}
	return types.UserSummary{ID: id}
}
