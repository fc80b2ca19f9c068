package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/realtime"
	"github.com/teamboard-dev/teamboard/internal/utils"
)

type WSHandler struct {
	hub    *realtime.Hub
	authz  realtime.RoomAuthorizer
	logger *slog.Logger
}

func NewWSHandler(hub *realtime.Hub, authz realtime.RoomAuthorizer, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, authz: authz, logger: logger}
}

// WebSocket serves the real-time channel. Authentication happens in the
// middleware before the upgrade.
func (h *WSHandler) WebSocket(ctx *gin.Context) {
	actor, err := utils.GetCurrentActor(ctx)

	if err != nil {
		respondError(ctx, h.logger, apperr.Unauthenticated(err.Error()))
		return
	}

	if err := h.hub.ServeWS(ctx.Writer, ctx.Request, actor, h.authz); err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("user_id", actor.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
