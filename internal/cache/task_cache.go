package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CachedTasks adds a Redis read-through cache to point lookups. Redis
// failures are logged and fall through to the store.
type CachedTasks struct {
	repository.TaskStore
	rdb redis.Cmdable
	ttl time.Duration
}

func NewCachedTasks(store repository.TaskStore, rdb redis.Cmdable, ttl time.Duration) *CachedTasks {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedTasks{TaskStore: store, rdb: rdb, ttl: ttl}
}

func taskKey(id string) string {
	return fmt.Sprintf("task:%s", id)
}

// FindOne serves from cache when possible; the ownership predicate is
// applied to cached entries as well.
func (c *CachedTasks) FindOne(ctx context.Context, id, ownerID string) (*models.Task, error) {
	cached, err := c.rdb.Get(ctx, taskKey(id)).Bytes()
	switch {
	case err == nil:
		var task models.Task
		if err := json.Unmarshal(cached, &task); err == nil {
			if !task.OwnedBy(ownerID) {
				return nil, repository.ErrNotFound
			}
			return &task, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.ErrorLogger.Error("Error reading task cache", zap.String("task_id", id), zap.Error(err))
	}

	task, err := c.TaskStore.FindOne(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, task)
	return task, nil
}

func (c *CachedTasks) Update(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	task, err := c.TaskStore.Update(ctx, id, ownerID, patch)
	c.evict(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, task)
	return task, nil
}

func (c *CachedTasks) Delete(ctx context.Context, id, ownerID string) (*models.Task, error) {
	task, err := c.TaskStore.Delete(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, id)
	return task, nil
}

func (c *CachedTasks) store(ctx context.Context, task *models.Task) {
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, taskKey(task.ID), data, c.ttl).Err(); err != nil {
		logger.ErrorLogger.Error("Error caching task", zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (c *CachedTasks) evict(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, taskKey(id)).Err(); err != nil {
		logger.ErrorLogger.Error("Error evicting task cache", zap.String("task_id", id), zap.Error(err))
	}
}
