package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/types"
)

// ParseIDParam reads a path id. A malformed id is reported as not found,
// the same as an id that does not exist.
func ParseIDParam(ctx *gin.Context, name, resource string) (uuid.UUID, error) {
	id, err := types.ParseID(ctx.Param(name))
	if err != nil {
		return uuid.Nil, apperr.NotFound(resource + " not found")
	}
	return id, nil
}
