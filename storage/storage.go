package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"taskboard-api/domain"
)

// userPartition is the fixed partition holding every user row. The row key is
// the email address, so the table itself enforces email uniqueness on insert.
const userPartition = "user"

const (
	edmInt64   = "Edm.Int64"
	edmBoolean = "Edm.Boolean"
)

// Storage provides access to the users and tasks tables.
type Storage struct {
	svc       *aztables.ServiceClient
	userTable *aztables.Client
	taskTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, usersTable, tasksTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		svc:       svc,
		userTable: svc.NewClient(usersTable),
		taskTable: svc.NewClient(tasksTable),
	}, nil
}

// EnsureTables creates the users and tasks tables when they do not exist yet.
func (s *Storage) EnsureTables(ctx context.Context) error {
	for _, table := range []*aztables.Client{s.userTable, s.taskTable} {
		if _, err := table.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
				continue
			}
			return err
		}
	}
	return nil
}

// entity carries the table key pair.
type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type userEntity struct {
	entity
	ID            string `json:"ID"`
	Username      string `json:"Username"`
	Email         string `json:"Email"`
	PasswordHash  string `json:"PasswordHash"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
}

type taskEntity struct {
	entity
	Title         string `json:"Title"`
	Description   string `json:"Description,omitempty"`
	Completed     bool   `json:"Completed"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

// taskUpdateEntity carries a partial task update. Only non-nil fields reach
// the stored row under merge mode; UpdatedAt is always stamped.
type taskUpdateEntity struct {
	entity
	Title         *string `json:"Title,omitempty"`
	Description   *string `json:"Description,omitempty"`
	Completed     *bool   `json:"Completed,omitempty"`
	CompletedType *string `json:"Completed@odata.type,omitempty"`
	UpdatedAt     int64   `json:"UpdatedAt,string"`
	UpdatedAtType string  `json:"UpdatedAt@odata.type"`
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

func recordFromUserEntity(ent userEntity) domain.UserRecord {
	return domain.UserRecord{
		ID:           ent.ID,
		Username:     ent.Username,
		Email:        ent.Email,
		PasswordHash: ent.PasswordHash,
		CreatedAt:    ent.CreatedAt,
	}
}

func recordFromTaskEntity(ent taskEntity) domain.TaskRecord {
	return domain.TaskRecord{
		ID:          ent.RowKey,
		Owner:       ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Completed:   ent.Completed,
		CreatedAt:   ent.CreatedAt,
		UpdatedAt:   ent.UpdatedAt,
	}
}

// FindUserByEmail retrieves the user with the given email, or nil when absent.
func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	resp, err := s.userTable.GetEntity(ctx, userPartition, email, nil)
	if err != nil {
		if isStatus(err, 404) {
			return nil, nil
		}
		return nil, err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	rec := recordFromUserEntity(ent)
	return &rec, nil
}

// InsertUser adds a user row and returns the assigned user identifier. The
// table rejects a duplicate email atomically, which surfaces as
// domain.ErrAlreadyExists.
func (s *Storage) InsertUser(ctx context.Context, rec domain.UserRecord) (string, error) {
	ent := userEntity{
		entity:        entity{PartitionKey: userPartition, RowKey: rec.Email},
		ID:            uuid.NewString(),
		Username:      rec.Username,
		Email:         rec.Email,
		PasswordHash:  rec.PasswordHash,
		CreatedAt:     rec.CreatedAt,
		CreatedAtType: edmInt64,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return "", err
	}
	if _, err := s.userTable.AddEntity(ctx, payload, nil); err != nil {
		if isStatus(err, 409) {
			return "", domain.ErrAlreadyExists
		}
		return "", err
	}
	return ent.ID, nil
}

// ListTasksByOwner retrieves every task in the owner's partition, in the
// store's native row-key order.
func (s *Storage) ListTasksByOwner(ctx context.Context, owner string) ([]domain.TaskRecord, error) {
	filter := "PartitionKey eq '" + owner + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.TaskRecord{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, recordFromTaskEntity(ent))
		}
	}
	return tasks, nil
}

// GetTask retrieves the owner's task with the given identifier, or nil when
// no such row exists in the owner's partition.
func (s *Storage) GetTask(ctx context.Context, owner, id string) (*domain.TaskRecord, error) {
	resp, err := s.taskTable.GetEntity(ctx, owner, id, nil)
	if err != nil {
		if isStatus(err, 404) {
			return nil, nil
		}
		return nil, err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return nil, err
	}
	rec := recordFromTaskEntity(ent)
	return &rec, nil
}

// InsertTask adds a task row under the owner's partition and returns the
// assigned task identifier. Identifiers are time-ordered, so listing a
// partition yields insertion order.
func (s *Storage) InsertTask(ctx context.Context, rec domain.TaskRecord) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	ent := taskEntity{
		entity:        entity{PartitionKey: rec.Owner, RowKey: id.String()},
		Title:         rec.Title,
		Description:   rec.Description,
		Completed:     rec.Completed,
		CreatedAt:     rec.CreatedAt,
		CreatedAtType: edmInt64,
		UpdatedAt:     rec.UpdatedAt,
		UpdatedAtType: edmInt64,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return "", err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return "", err
	}
	return ent.RowKey, nil
}

// UpdateTask merges the supplied fields into the owner's task and stamps the
// updated timestamp. It reports whether a row matched.
func (s *Storage) UpdateTask(ctx context.Context, owner, id string, changes domain.TaskChanges) (bool, error) {
	upd := taskUpdateEntity{
		entity:        entity{PartitionKey: owner, RowKey: id},
		Title:         changes.Title,
		Description:   changes.Description,
		Completed:     changes.Completed,
		UpdatedAt:     time.Now().UnixNano(),
		UpdatedAtType: edmInt64,
	}
	if changes.Completed != nil {
		t := edmBoolean
		upd.CompletedType = &t
	}
	payload, err := json.Marshal(upd)
	if err != nil {
		return false, err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		if isStatus(err, 404) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteTask removes the owner's task with the given identifier. It reports
// whether a row was deleted.
func (s *Storage) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	if _, err := s.taskTable.DeleteEntity(ctx, owner, id, nil); err != nil {
		if isStatus(err, 404) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
