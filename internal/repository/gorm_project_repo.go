package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &gormProjectRepository{db: db}
}

func (r *gormProjectRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_memberships.created_at ASC")
		}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.created_at ASC")
		})
}

// Create inserts the project and any memberships attached to it.
func (r *gormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Tasks").Create(project).Error
}

func (r *gormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.withChildren(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Project not found")
	}
	return &project, nil
}

func (r *gormProjectRepository) ListAll(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := r.withChildren(ctx).Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *gormProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	memberOf := r.db.Model(&models.ProjectMembership{}).Select("project_id").Where("user_id = ?", userID)

	var projects []models.Project
	err := r.withChildren(ctx).
		Where("owner_id = ?", userID).
		Or("id IN (?)", memberOf).
		Order("created_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *gormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Model(project).Select("title", "description", "updated_at").Updates(project).Error
}

func (r *gormProjectRepository) ReplaceMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		memberships := make([]models.ProjectMembership, 0, len(userIDs))
		for _, id := range userIDs {
			memberships = append(memberships, models.ProjectMembership{ProjectID: projectID, UserID: id})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&memberships).Error
	})
}

func (r *gormProjectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	membership := models.ProjectMembership{ProjectID: projectID, UserID: userID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error
}

func (r *gormProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMembership{}).Error
}

func (r *gormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}
