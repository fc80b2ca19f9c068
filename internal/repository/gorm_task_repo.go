package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/models"
	"gorm.io/gorm"
)

type gormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *gormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Task not found")
	}
	return &task, nil
}

// Update writes every column, so cleared fields are stored as cleared.
func (r *gormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Model(task).Select("*").Omit("id", "project_id", "created_at").Updates(task).Error
}

func (r *gormTaskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.Task{})
	return result.RowsAffected, result.Error
}
