package api

import (
	"context"

	"taskboard-api/domain"
)

// Storage abstracts persistence for the resolvers. Every task operation takes
// the owner identifier as a mandatory filter component.
type Storage interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	InsertUser(ctx context.Context, rec domain.UserRecord) (string, error)
	ListTasksByOwner(ctx context.Context, owner string) ([]domain.TaskRecord, error)
	GetTask(ctx context.Context, owner, id string) (*domain.TaskRecord, error)
	InsertTask(ctx context.Context, rec domain.TaskRecord) (string, error)
	UpdateTask(ctx context.Context, owner, id string, changes domain.TaskChanges) (bool, error)
	DeleteTask(ctx context.Context, owner, id string) (bool, error)
}

// SessionStore persists authenticated identities between requests.
type SessionStore interface {
	Create(ctx context.Context, ident domain.Identity) (string, error)
	Get(ctx context.Context, token string) (*domain.Identity, error)
}

// UserResult is the envelope for register and me. Exactly one of User and
// Error is set.
type UserResult struct {
	User  *domain.User `json:"user"`
	Error *string      `json:"error"`
}

// LoginResult is the envelope for login. Token carries the session token the
// caller presents on subsequent requests.
type LoginResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
	Error *string      `json:"error"`
}

// TaskResult is the envelope for the single-task operations.
type TaskResult struct {
	Task  *domain.Task `json:"task"`
	Error *string      `json:"error"`
}

// TasksResult is the envelope for the task listing. An empty listing is a
// success, not an error.
type TasksResult struct {
	Tasks []domain.Task `json:"tasks"`
	Error *string       `json:"error"`
}

// DeleteResult is the envelope for deleteTask.
type DeleteResult struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}
