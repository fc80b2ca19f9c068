package types

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	Members     *IDList `json:"members,omitempty"`
}

// UpdateProjectRequest replaces title, and description and members when
// they are present. A present members field replaces the whole member set.
type UpdateProjectRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description Optional[string] `json:"description,omitzero"`
	Members     Optional[IDList] `json:"members,omitzero"`
}

type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// UpdateTaskRequest carries a task patch. Any field present in the payload
// overwrites the stored value, null or "" clear assignedTo and dueDate.
type UpdateTaskRequest struct {
	Title       Optional[string] `json:"title,omitzero"`
	Description Optional[string] `json:"description,omitzero"`
	Status      Optional[string] `json:"status,omitzero"`
	AssignedTo  Optional[string] `json:"assignedTo,omitzero"`
	DueDate     Optional[string] `json:"dueDate,omitzero"`
}

type JoinRoomPayload struct {
	ProjectID string `json:"projectId"`
}
