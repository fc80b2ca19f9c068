package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/services"
	"github.com/teamboard-dev/teamboard/internal/types"
	"github.com/teamboard-dev/teamboard/internal/utils"
)

type TaskHandler struct {
	tasks  *services.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

func (h *TaskHandler) CreateTask(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		respondError(ctx, h.logger, apperr.Unauthenticated(err.Error()))
		return
	}

	projectID, err := utils.ParseIDParam(ctx, "id", "Project")

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	var body types.CreateTaskRequest

	if err := bindJSON(ctx, &body); err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	task, err := h.tasks.Create(ctx.Request.Context(), actor, projectID, body)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		respondError(ctx, h.logger, apperr.Unauthenticated(err.Error()))
		return
	}

	taskID, err := utils.ParseIDParam(ctx, "id", "Task")

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	var body types.UpdateTaskRequest

	if err := bindJSON(ctx, &body); err != nil {
		// Callers who may not update it learn nothing about the payload.
		if authErr := h.tasks.AuthorizeUpdate(ctx.Request.Context(), actor, taskID); authErr != nil {
			err = authErr
		}
		respondError(ctx, h.logger, err)
		return
	}

	task, err := h.tasks.Update(ctx.Request.Context(), actor, taskID, body)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}
