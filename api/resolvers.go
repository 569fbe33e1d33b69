package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskboard-api/domain"
	"taskboard-api/password"
)

// Domain error messages carried in result envelopes. A record that is absent
// and a record owned by someone else produce the same message, so a caller
// cannot probe for another owner's records.
const (
	msgAuthRequired     = "authentication required"
	msgNotAuthenticated = "not authenticated"
	msgEmailTaken       = "email already registered"
	msgUserNotFound     = "user not found"
	msgInvalidPassword  = "invalid password"
	msgTaskNotFound     = "task not found"
	msgTaskNotOwned     = "task not found or not owned"
	msgMissingFields    = "username, email and password are required"
	msgMissingCreds     = "email and password are required"
	msgTitleRequired    = "title is required"
	msgInvalidTaskID    = "invalid task id"
)

// Resolver implements the query and mutation operations over the credential
// store, the task store and the session store. Domain failures travel in-band
// inside result envelopes; only storage failures surface as Go errors.
type Resolver struct {
	store    Storage
	sessions SessionStore
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(store Storage, sessions SessionStore) *Resolver {
	return &Resolver{store: store, sessions: sessions}
}

func errString(msg string) *string {
	return &msg
}

func validTaskID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// RegisterInput carries the register mutation arguments.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account. Email uniqueness is enforced atomically by
// the store insert, so two racing registrations cannot both succeed.
func (r *Resolver) Register(ctx context.Context, in RegisterInput) (UserResult, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return UserResult{Error: errString(msgMissingFields)}, nil
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		return UserResult{}, err
	}
	rec := domain.UserRecord{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UnixNano(),
	}
	id, err := r.store.InsertUser(ctx, rec)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return UserResult{Error: errString(msgEmailTaken)}, nil
		}
		return UserResult{}, err
	}
	rec.ID = id
	u := rec.View()
	return UserResult{User: &u}, nil
}

// LoginInput carries the login mutation arguments.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies the credential pair and mints a session for the identity.
// An unknown email and a wrong password report distinct errors, matching the
// behavior this system has always had.
func (r *Resolver) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return LoginResult{Error: errString(msgMissingCreds)}, nil
	}
	rec, err := r.store.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return LoginResult{}, err
	}
	if rec == nil {
		return LoginResult{Error: errString(msgUserNotFound)}, nil
	}
	if !password.Verify(in.Password, rec.PasswordHash) {
		return LoginResult{Error: errString(msgInvalidPassword)}, nil
	}
	ident := domain.Identity{
		ID:        rec.ID,
		Username:  rec.Username,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
	}
	token, err := r.sessions.Create(ctx, ident)
	if err != nil {
		return LoginResult{}, err
	}
	u := rec.View()
	return LoginResult{User: &u, Token: token}, nil
}

// Me returns the identity the request authenticated as.
func (r *Resolver) Me(ident *domain.Identity) UserResult {
	if ident == nil {
		return UserResult{Error: errString(msgNotAuthenticated)}
	}
	u := ident.View()
	return UserResult{User: &u}
}

// Tasks lists every task owned by the authenticated identity.
func (r *Resolver) Tasks(ctx context.Context, ident *domain.Identity) (TasksResult, error) {
	if ident == nil {
		return TasksResult{Error: errString(msgAuthRequired)}, nil
	}
	recs, err := r.store.ListTasksByOwner(ctx, ident.ID)
	if err != nil {
		return TasksResult{}, err
	}
	tasks := make([]domain.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.View())
	}
	return TasksResult{Tasks: tasks}, nil
}

// Task returns a single task when the authenticated identity owns it.
func (r *Resolver) Task(ctx context.Context, ident *domain.Identity, id string) (TaskResult, error) {
	if ident == nil {
		return TaskResult{Error: errString(msgAuthRequired)}, nil
	}
	if !validTaskID(id) {
		return TaskResult{Error: errString(msgInvalidTaskID)}, nil
	}
	rec, err := r.store.GetTask(ctx, ident.ID, id)
	if err != nil {
		return TaskResult{}, err
	}
	if rec == nil {
		return TaskResult{Error: errString(msgTaskNotFound)}, nil
	}
	t := rec.View()
	return TaskResult{Task: &t}, nil
}

// CreateTaskInput carries the createTask mutation arguments.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateTask creates a task owned by the authenticated identity.
func (r *Resolver) CreateTask(ctx context.Context, ident *domain.Identity, in CreateTaskInput) (TaskResult, error) {
	if ident == nil {
		return TaskResult{Error: errString(msgAuthRequired)}, nil
	}
	if in.Title == "" {
		return TaskResult{Error: errString(msgTitleRequired)}, nil
	}
	now := time.Now().UnixNano()
	rec := domain.TaskRecord{
		Owner:       ident.ID,
		Title:       in.Title,
		Description: in.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := r.store.InsertTask(ctx, rec)
	if err != nil {
		return TaskResult{}, err
	}
	rec.ID = id
	t := rec.View()
	return TaskResult{Task: &t}, nil
}

// UpdateTask applies the supplied fields to the identity's task and returns
// the refreshed record.
func (r *Resolver) UpdateTask(ctx context.Context, ident *domain.Identity, id string, changes domain.TaskChanges) (TaskResult, error) {
	if ident == nil {
		return TaskResult{Error: errString(msgAuthRequired)}, nil
	}
	if !validTaskID(id) {
		return TaskResult{Error: errString(msgInvalidTaskID)}, nil
	}
	matched, err := r.store.UpdateTask(ctx, ident.ID, id, changes)
	if err != nil {
		return TaskResult{}, err
	}
	if !matched {
		return TaskResult{Error: errString(msgTaskNotOwned)}, nil
	}
	rec, err := r.store.GetTask(ctx, ident.ID, id)
	if err != nil {
		return TaskResult{}, err
	}
	if rec == nil {
		return TaskResult{Error: errString(msgTaskNotFound)}, nil
	}
	t := rec.View()
	return TaskResult{Task: &t}, nil
}

// DeleteTask removes the identity's task.
func (r *Resolver) DeleteTask(ctx context.Context, ident *domain.Identity, id string) (DeleteResult, error) {
	if ident == nil {
		return DeleteResult{Error: errString(msgAuthRequired)}, nil
	}
	if !validTaskID(id) {
		return DeleteResult{Error: errString(msgInvalidTaskID)}, nil
	}
	deleted, err := r.store.DeleteTask(ctx, ident.ID, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if !deleted {
		return DeleteResult{Error: errString(msgTaskNotOwned)}, nil
	}
	return DeleteResult{Success: true}, nil
}
