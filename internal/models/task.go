package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Task struct {
	BaseModel

	ProjectID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Title        string    `gorm:"not null"`
	Description  string
	Status       string     `gorm:"size:16;not null;default:pending"` // "pending", "in-progress", "done"
	AssignedToID *uuid.UUID `gorm:"type:char(36);index"`
	DueDate      *datatypes.Date
}
