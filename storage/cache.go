package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

type taskBackend interface {
	ListTasksByOwner(ctx context.Context, owner string) ([]domain.TaskRecord, error)
	GetTask(ctx context.Context, owner, id string) (*domain.TaskRecord, error)
	InsertTask(ctx context.Context, rec domain.TaskRecord) (string, error)
	UpdateTask(ctx context.Context, owner, id string, changes domain.TaskChanges) (bool, error)
	DeleteTask(ctx context.Context, owner, id string) (bool, error)
}

// TaskCache wraps a Storage instance with Redis-backed caching of per-owner
// task listings. Any write to an owner's partition evicts that owner's
// listing, so reads after a write always observe it.
type TaskCache struct {
	*Storage
	base  taskBackend
	redis *redis.Client
	ttl   time.Duration
}

// NewTaskCache creates a caching wrapper using the provided Redis client and TTL.
func NewTaskCache(base taskBackend, client *redis.Client, ttl time.Duration) *TaskCache {
	if base == nil {
		panic("storage.NewTaskCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &TaskCache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *TaskCache) ListTasksByOwner(ctx context.Context, owner string) ([]domain.TaskRecord, error) {
	if tasks, ok := c.loadFromCache(ctx, owner); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasksByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	c.store(ctx, owner, tasks)
	return tasks, nil
}

func (c *TaskCache) GetTask(ctx context.Context, owner, id string) (*domain.TaskRecord, error) {
	return c.base.GetTask(ctx, owner, id)
}

func (c *TaskCache) InsertTask(ctx context.Context, rec domain.TaskRecord) (string, error) {
	id, err := c.base.InsertTask(ctx, rec)
	if err != nil {
		return "", err
	}
	c.evict(ctx, rec.Owner)
	return id, nil
}

func (c *TaskCache) UpdateTask(ctx context.Context, owner, id string, changes domain.TaskChanges) (bool, error) {
	matched, err := c.base.UpdateTask(ctx, owner, id, changes)
	if err != nil {
		return false, err
	}
	if matched {
		c.evict(ctx, owner)
	}
	return matched, nil
}

func (c *TaskCache) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	deleted, err := c.base.DeleteTask(ctx, owner, id)
	if err != nil {
		return false, err
	}
	if deleted {
		c.evict(ctx, owner)
	}
	return deleted, nil
}

func (c *TaskCache) loadFromCache(ctx context.Context, owner string) ([]domain.TaskRecord, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(owner)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		}
		return nil, false
	}
	var tasks []domain.TaskRecord
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *TaskCache) store(ctx context.Context, owner string, tasks []domain.TaskRecord) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(owner), data, c.ttl).Err()
}

func (c *TaskCache) evict(ctx context.Context, owner string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(owner)).Result()
}

func tasksCacheKey(owner string) string {
	return "tasks:" + owner
}
