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

type UserHandler struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewUserHandler(users *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) Register(ctx *gin.Context) {
	var body types.RegisterRequest

	if err := bindJSON(ctx, &body); err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	resp, err := h.users.Register(ctx.Request.Context(), body)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Login(ctx *gin.Context) {
	var body types.LoginRequest

	if err := bindJSON(ctx, &body); err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	resp, err := h.users.Login(ctx.Request.Context(), body)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Me(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		respondError(ctx, h.logger, apperr.Unauthenticated(err.Error()))
		return
	}

	resp, err := h.users.Get(ctx.Request.Context(), user.ID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
