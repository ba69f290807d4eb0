package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"efficio-api/domain"
	"efficio-api/internal/consts"
)

type taskBackend interface {
	FetchTasks(ctx context.Context, userID string) ([]domain.Task, error)
	UpsertTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, owner, taskID string) error
}

// Cache wraps a Storage instance with Redis-backed caching for the task list
// read path. Mutations evict so the next read repopulates from the table.
type Cache struct {
	*Storage
	base  taskBackend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL.
func NewCache(base *Storage, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Storage: base, base: base, redis: client, ttl: ttl}
}

func tasksCacheKey(userID string) string {
	return consts.TasksKeyPrefix + userID
}

func (c *Cache) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := c.loadTasksFromCache(ctx, userID); ok {
		return tasks, nil
	}

	tasks, err := c.base.FetchTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.storeTasks(ctx, userID, tasks)
	return tasks, nil
}

func (c *Cache) UpsertTask(ctx context.Context, t domain.Task) error {
	if err := c.base.UpsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.Owner)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, owner, taskID string) error {
	if err := c.base.DeleteTask(ctx, owner, taskID); err != nil {
		return err
	}
	c.evict(ctx, owner)
	return nil
}

func (c *Cache) loadTasksFromCache(ctx context.Context, userID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(userID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(userID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeTasks(ctx context.Context, userID string, tasks []domain.Task) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(userID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, tasksCacheKey(userID)).Err()
}
