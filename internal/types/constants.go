package types

const ContextUserKey = "user"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

// Real-time event names.
const (
	EventJoin      = "join"
	EventJoined    = "joined"
	EventLeave     = "leave"
	EventConnected = "connected"
	EventError     = "error"

	EventTaskCreated    = "task:created"
	EventTaskUpdated    = "task:updated"
	EventProjectUpdated = "project:updated"
	EventProjectDeleted = "project:deleted"
)

// DateLayout is the wire format of task due dates.
const DateLayout = "2006-01-02"

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// DefaultAllowedOrigins are the development front-end origins accepted for
// CORS and websocket upgrades.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}
