package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/models"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/repository"
	"github.com/teamboard-dev/teamboard/internal/types"
)

type TaskService struct {
	store  *repository.Store
	events EventPublisher
	logger *slog.Logger
}

func NewTaskService(store *repository.Store, events EventPublisher, logger *slog.Logger) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{store: store, events: events, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, actor policy.Actor, projectID uuid.UUID, req types.CreateTaskRequest) (*types.TaskResponse, error) {
	project, err := s.store.Projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateTask(actor, projectAccess(project)) {
		return nil, apperr.Forbidden("Not authorized to add tasks to this project")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}
	assignee, err := parseOptionalID(req.AssignedTo, "assignedTo")
	if err != nil {
		return nil, err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:    project.ID,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Status:       types.TaskStatusPending,
		AssignedToID: assignee,
		DueDate:      due,
	}
	if err := s.store.Tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", project.ID.String()),
	)

	resp := toTaskResponse(*task)
	s.events.Publish(project.ID, types.EventTaskCreated, resp)
	return &resp, nil
}

// Update applies a patch. Every field present in req overwrites the stored
// value, even when it is empty.
func (s *TaskService) Update(ctx context.Context, actor policy.Actor, taskID uuid.UUID, req types.UpdateTaskRequest) (*types.TaskResponse, error) {
	task, err := s.writable(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if err := applyTaskPatch(task, req); err != nil {
		return nil, err
	}
	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", task.Status),
	)

	resp := toTaskResponse(*task)
	s.events.Publish(task.ProjectID, types.EventTaskUpdated, resp)
	return &resp, nil
}

// AuthorizeUpdate reports whether actor may update the task. It fails the
// same way Update does for a missing task or an outsider.
func (s *TaskService) AuthorizeUpdate(ctx context.Context, actor policy.Actor, taskID uuid.UUID) error {
	_, err := s.writable(ctx, actor, taskID)
	return err
}

func (s *TaskService) writable(ctx context.Context, actor policy.Actor, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.store.Projects.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteTask(actor, taskAccess(task), projectAccess(project)) {
		return nil, apperr.Forbidden("Not authorized to update this task")
	}
	return task, nil
}

func applyTaskPatch(task *models.Task, req types.UpdateTaskRequest) error {
	if req.Title.Set {
		title := strings.TrimSpace(req.Title.Value)
		if title == "" {
			return apperr.Validation("Title cannot be empty")
		}
		task.Title = title
	}
	if req.Description.Set {
		task.Description = strings.TrimSpace(req.Description.Value)
	}
	if req.Status.Set {
		if !types.ValidTaskStatus(req.Status.Value) {
			return apperr.Validation("Status must be one of: %s, %s, %s",
				types.TaskStatusPending, types.TaskStatusInProgress, types.TaskStatusDone)
		}
		task.Status = req.Status.Value
	}
	if req.AssignedTo.Set {
		assignee, err := parseOptionalID(req.AssignedTo.Value, "assignedTo")
		if err != nil {
			return err
		}
		task.AssignedToID = assignee
	}
	if req.DueDate.Set {
		due, err := parseDueDate(req.DueDate.Value)
		if err != nil {
			return err
		}
		task.DueDate = due
	}
	return nil
}
