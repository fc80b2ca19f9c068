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

type ProjectHandler struct {
	projects *services.ProjectService
	logger   *slog.Logger
}

func NewProjectHandler(projects *services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

func (h *ProjectHandler) CreateProject(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		respondError(ctx, h.logger, apperr.Unauthenticated(err.Error()))
		return
	}

	var body types.CreateProjectRequest

	if err := bindJSON(ctx, &body); err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	project, err := h.projects.Create(ctx.Request.Context(), actor, body)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		respondError(ctx, h.logger, apperr.Unauthenticated(err.Error()))
		return
	}

	projects, err := h.projects.List(ctx.Request.Context(), actor)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(ctx *gin.Context) {
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

	project, err := h.projects.Get(ctx.Request.Context(), actor, projectID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(ctx *gin.Context) {
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

	var body types.UpdateProjectRequest

	if err := bindJSON(ctx, &body); err != nil {
		// Callers who may not update it learn nothing about the payload.
		if authErr := h.projects.AuthorizeUpdate(ctx.Request.Context(), actor, projectID); authErr != nil {
			err = authErr
		}
		respondError(ctx, h.logger, err)
		return
	}

	project, err := h.projects.Update(ctx.Request.Context(), actor, projectID, body)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(ctx *gin.Context) {
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

	if err := h.projects.Delete(ctx.Request.Context(), actor, projectID); err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func (h *ProjectHandler) AddMember(ctx *gin.Context) {
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

	var body types.AddMemberRequest

	if err := bindJSON(ctx, &body); err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	project, err := h.projects.AddMember(ctx.Request.Context(), actor, projectID, body.UserID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) RemoveMember(ctx *gin.Context) {
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

	project, err := h.projects.RemoveMember(ctx.Request.Context(), actor, projectID, ctx.Param("userId"))

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, project)
}
