package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/models"
)

// UserRepository persists users. Lookups of missing users return an error
// wrapping apperr.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// ProjectRepository persists projects together with their memberships.
// Projects are returned with Memberships and Tasks loaded, tasks ordered by
// creation time.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListAll(ctx context.Context) ([]models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	// Update writes title and description.
	Update(ctx context.Context, project *models.Project) error
	ReplaceMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	// Delete removes the project and its memberships. Tasks are left alone.
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Users    UserRepository
	Projects ProjectRepository
	Tasks    TaskRepository
}
