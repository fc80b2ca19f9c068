package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type AuthResponse struct {
	UserResponse
	Token string `json:"token"`
}

// UserSummary is the expanded form of a user reference.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// TaskResponse is a task with its references left as ids.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssignedTo  *uuid.UUID `json:"assignedTo"`
	DueDate     *string    `json:"dueDate"`
	Project     uuid.UUID  `json:"project"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskView is a task with its assignee expanded.
type TaskView struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	AssignedTo  *UserSummary `json:"assignedTo"`
	DueDate     *string      `json:"dueDate"`
	Project     uuid.UUID    `json:"project"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type ProjectResponse struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Owner       UserSummary   `json:"owner"`
	Members     []UserSummary `json:"members"`
	Tasks       []TaskView    `json:"tasks"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type ProjectDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// SocketMessage is the frame exchanged over the real-time channel in both
// directions.
type SocketMessage struct {
	Event     string          `json:"event"`
	ProjectID uuid.UUID       `json:"projectId,omitzero"`
	Data      json.RawMessage `json:"data,omitempty"`
}
