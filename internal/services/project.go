package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/models"
	"github.com/teamboard-dev/teamboard/internal/policy"
	"github.com/teamboard-dev/teamboard/internal/repository"
	"github.com/teamboard-dev/teamboard/internal/types"
)

type ProjectService struct {
	store  *repository.Store
	events EventPublisher
	logger *slog.Logger
}

func NewProjectService(store *repository.Store, events EventPublisher, logger *slog.Logger) *ProjectService {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{store: store, events: events, logger: logger}
}

func (s *ProjectService) Create(ctx context.Context, actor policy.Actor, req types.CreateProjectRequest) (*types.ProjectResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}

	project := &models.Project{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     actor.ID,
	}
	if req.Members != nil {
		for _, id := range req.Members.Unique() {
			project.Memberships = append(project.Memberships, models.ProjectMembership{UserID: id})
		}
	}

	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		slog.String("project_id", project.ID.String()),
		slog.String("owner_id", actor.ID.String()),
		slog.Int("members", len(project.Memberships)),
	)

	return s.reload(ctx, project.ID)
}

func (s *ProjectService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*types.ProjectResponse, error) {
	project, err := s.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, project)
}

func (s *ProjectService) List(ctx context.Context, actor policy.Actor) ([]types.ProjectResponse, error) {
	var (
		projects []models.Project
		err      error
	)
	if actor.IsAdmin() {
		projects, err = s.store.Projects.ListAll(ctx)
	} else {
		projects, err = s.store.Projects.ListForUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	refs := make([]*models.Project, len(projects))
	for i := range projects {
		refs[i] = &projects[i]
	}
	users, err := s.users(ctx, refs...)
	if err != nil {
		return nil, err
	}

	out := make([]types.ProjectResponse, 0, len(projects))
	for _, p := range refs {
		out = append(out, toProjectResponse(p, users))
	}
	return out, nil
}

// Update overwrites the title, the description when present and the whole
// member set when members is present.
func (s *ProjectService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req types.UpdateProjectRequest) (*types.ProjectResponse, error) {
	project, err := s.writable(ctx, actor, id, "Not authorized to update this project")
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}
	project.Title = title
	if req.Description.Set {
		project.Description = strings.TrimSpace(req.Description.Value)
	}

	if err := s.store.Projects.Update(ctx, project); err != nil {
		return nil, err
	}
	if req.Members.Set {
		if err := s.store.Projects.ReplaceMembers(ctx, id, req.Members.Value.Unique()); err != nil {
			return nil, err
		}
	}

	return s.changed(ctx, id)
}

// AuthorizeUpdate reports whether actor may update the project, failing the
// same way Update does.
func (s *ProjectService) AuthorizeUpdate(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	_, err := s.writable(ctx, actor, id, "Not authorized to update this project")
	return err
}

// Delete removes every task of the project and then the project itself.
func (s *ProjectService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if _, err := s.writable(ctx, actor, id, "Not authorized to delete this project"); err != nil {
		return err
	}

	removed, err := s.store.Tasks.DeleteByProject(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Projects.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		slog.String("project_id", id.String()),
		slog.Int64("tasks_removed", removed),
	)
	s.events.Publish(id, types.EventProjectDeleted, types.ProjectDeletedPayload{ID: id})
	return nil
}

func (s *ProjectService) AddMember(ctx context.Context, actor policy.Actor, id uuid.UUID, rawUserID string) (*types.ProjectResponse, error) {
	if _, err := s.writable(ctx, actor, id, "Not authorized to add members to this project"); err != nil {
		return nil, err
	}

	userID, err := types.ParseID(rawUserID)
	if err != nil {
		return nil, apperr.Validation("Invalid userId: %v", err)
	}
	if _, err := s.store.Users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.store.Projects.AddMember(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *ProjectService) RemoveMember(ctx context.Context, actor policy.Actor, id uuid.UUID, rawUserID string) (*types.ProjectResponse, error) {
	if _, err := s.writable(ctx, actor, id, "Not authorized to remove members from this project"); err != nil {
		return nil, err
	}

	userID, err := types.ParseID(rawUserID)
	if err != nil {
		return nil, apperr.Validation("Invalid userId: %v", err)
	}

	if err := s.store.Projects.RemoveMember(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// AuthorizeRoom reports whether actor may subscribe to the project's room.
func (s *ProjectService) AuthorizeRoom(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	project, err := s.store.Projects.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanJoinRoom(actor, projectAccess(project)) {
		return apperr.Forbidden("Not authorized to join this project")
	}
	return nil
}

func (s *ProjectService) readable(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.Projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadProject(actor, projectAccess(project)) {
		return nil, apperr.Forbidden("Not authorized to access this project")
	}
	return project, nil
}

func (s *ProjectService) writable(ctx context.Context, actor policy.Actor, id uuid.UUID, denied string) (*models.Project, error) {
	project, err := s.store.Projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteProject(actor, projectAccess(project)) {
		return nil, apperr.Forbidden(denied)
	}
	return project, nil
}

// changed reloads the project and announces it to the room.
func (s *ProjectService) changed(ctx context.Context, id uuid.UUID) (*types.ProjectResponse, error) {
	resp, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(id, types.EventProjectUpdated, resp)
	return resp, nil
}

func (s *ProjectService) reload(ctx context.Context, id uuid.UUID) (*types.ProjectResponse, error) {
	project, err := s.store.Projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, project)
}

func (s *ProjectService) expand(ctx context.Context, project *models.Project) (*types.ProjectResponse, error) {
	users, err := s.users(ctx, project)
	if err != nil {
		return nil, err
	}
	resp := toProjectResponse(project, users)
	return &resp, nil
}

func (s *ProjectService) users(ctx context.Context, projects ...*models.Project) (map[uuid.UUID]models.User, error) {
	ids := referencedUsers(projects...)
	if len(ids) == 0 {
		return map[uuid.UUID]models.User{}, nil
	}
	found, err := s.store.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := make(map[uuid.UUID]models.User, len(found))
	for _, u := range found {
		users[u.ID] = u
	}
	return users, nil
}
