package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectMembership links a user to a project. UserID is an opaque reference:
// it carries no foreign key so that ids of unknown users are kept as given.
type ProjectMembership struct {
	ProjectID uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	CreatedAt time.Time
}
