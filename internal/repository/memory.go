package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teamboard-dev/teamboard/internal/apperr"
	"github.com/teamboard-dev/teamboard/internal/models"
)

// memoryDB backs the in-memory store used with DB_DRIVER=memory and in tests.
// Records are copied on the way in and out so callers never share state with
// the store.
type memoryDB struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	projects map[uuid.UUID]models.Project
	members  map[uuid.UUID][]models.ProjectMembership
	tasks    map[uuid.UUID]models.Task
	clock    func() time.Time
	last     time.Time
}

func NewMemoryStore() *Store {
	db := &memoryDB{
		users:    make(map[uuid.UUID]models.User),
		projects: make(map[uuid.UUID]models.Project),
		members:  make(map[uuid.UUID][]models.ProjectMembership),
		tasks:    make(map[uuid.UUID]models.Task),
		clock:    time.Now,
	}
	return &Store{
		Users:    &memoryUserRepository{db: db},
		Projects: &memoryProjectRepository{db: db},
		Tasks:    &memoryTaskRepository{db: db},
	}
}

// now returns strictly increasing timestamps so creation order is total.
// Callers hold the write lock.
func (db *memoryDB) now() time.Time {
	t := db.clock()
	if !t.After(db.last) {
		t = db.last.Add(time.Nanosecond)
	}
	db.last = t
	return t
}

func (db *memoryDB) stamp(m *models.BaseModel) {
	now := db.now()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// hydrate attaches memberships and tasks. Callers hold at least a read lock.
func (db *memoryDB) hydrate(p models.Project) models.Project {
	p.Memberships = slices.Clone(db.members[p.ID])

	p.Tasks = nil
	for _, t := range db.tasks {
		if t.ProjectID == p.ID {
			p.Tasks = append(p.Tasks, copyTask(t))
		}
	}
	slices.SortFunc(p.Tasks, func(a, b models.Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return p
}

func copyTask(t models.Task) models.Task {
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		t.AssignedToID = &id
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func sortProjects(projects []models.Project) {
	slices.SortFunc(projects, func(a, b models.Project) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

type memoryUserRepository struct {
	db *memoryDB
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}

	r.db.stamp(&user.BaseModel)
	stored := *user
	stored.OwnedProjects = nil
	r.db.users[user.ID] = stored
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	user, ok := r.db.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &user, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (r *memoryUserRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var users []models.User
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

type memoryProjectRepository struct {
	db *memoryDB
}

func (r *memoryProjectRepository) Create(_ context.Context, project *models.Project) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.stamp(&project.BaseModel)

	var memberships []models.ProjectMembership
	for i := range project.Memberships {
		m := &project.Memberships[i]
		m.ProjectID = project.ID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = r.db.now()
		}
		if !slices.ContainsFunc(memberships, func(x models.ProjectMembership) bool { return x.UserID == m.UserID }) {
			memberships = append(memberships, *m)
		}
	}
	r.db.members[project.ID] = memberships

	stored := *project
	stored.Memberships = nil
	stored.Tasks = nil
	r.db.projects[project.ID] = stored
	return nil
}

func (r *memoryProjectRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.projects[id]
	if !ok {
		return nil, apperr.NotFound("Project not found")
	}
	p = r.db.hydrate(p)
	return &p, nil
}

func (r *memoryProjectRepository) ListAll(_ context.Context) ([]models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	projects := make([]models.Project, 0, len(r.db.projects))
	for _, p := range r.db.projects {
		projects = append(projects, r.db.hydrate(p))
	}
	sortProjects(projects)
	return projects, nil
}

func (r *memoryProjectRepository) ListForUser(_ context.Context, userID uuid.UUID) ([]models.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var projects []models.Project
	for _, p := range r.db.projects {
		p = r.db.hydrate(p)
		if p.OwnerID == userID || p.HasMember(userID) {
			projects = append(projects, p)
		}
	}
	sortProjects(projects)
	return projects, nil
}

func (r *memoryProjectRepository) Update(_ context.Context, project *models.Project) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.projects[project.ID]
	if !ok {
		return apperr.NotFound("Project not found")
	}
	stored.Title = project.Title
	stored.Description = project.Description
	stored.UpdatedAt = r.db.now()
	project.UpdatedAt = stored.UpdatedAt
	r.db.projects[project.ID] = stored
	return nil
}

func (r *memoryProjectRepository) ReplaceMembers(_ context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	memberships := make([]models.ProjectMembership, 0, len(userIDs))
	for _, id := range userIDs {
		if slices.ContainsFunc(memberships, func(m models.ProjectMembership) bool { return m.UserID == id }) {
			continue
		}
		memberships = append(memberships, models.ProjectMembership{ProjectID: projectID, UserID: id, CreatedAt: r.db.now()})
	}
	r.db.members[projectID] = memberships
	return nil
}

func (r *memoryProjectRepository) AddMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current := r.db.members[projectID]
	if slices.ContainsFunc(current, func(m models.ProjectMembership) bool { return m.UserID == userID }) {
		return nil
	}
	r.db.members[projectID] = append(current, models.ProjectMembership{ProjectID: projectID, UserID: userID, CreatedAt: r.db.now()})
	return nil
}

func (r *memoryProjectRepository) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.members[projectID] = slices.DeleteFunc(slices.Clone(r.db.members[projectID]), func(m models.ProjectMembership) bool {
		return m.UserID == userID
	})
	return nil
}

func (r *memoryProjectRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.members, id)
	delete(r.db.projects, id)
	return nil
}

type memoryTaskRepository struct {
	db *memoryDB
}

func (r *memoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.projects[task.ProjectID]; !ok {
		return apperr.NotFound("Project not found")
	}
	r.db.stamp(&task.BaseModel)
	r.db.tasks[task.ID] = copyTask(*task)
	return nil
}

func (r *memoryTaskRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok {
		return nil, apperr.NotFound("Task not found")
	}
	t = copyTask(t)
	return &t, nil
}

func (r *memoryTaskRepository) Update(_ context.Context, task *models.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.tasks[task.ID]
	if !ok {
		return apperr.NotFound("Task not found")
	}
	task.ProjectID = stored.ProjectID
	task.CreatedAt = stored.CreatedAt
	task.UpdatedAt = r.db.now()
	r.db.tasks[task.ID] = copyTask(*task)
	return nil
}

func (r *memoryTaskRepository) DeleteByProject(_ context.Context, projectID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, t := range r.db.tasks {
		if t.ProjectID == projectID {
			delete(r.db.tasks, id)
			n++
		}
	}
	return n, nil
}
